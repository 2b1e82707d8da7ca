// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package main 提供 botflow 命令行与服务端程序入口。

# 概述

cmd/botflow 提供蓝图批量编译、校验、节点类型查询以及 HTTP API 服务。
程序支持 YAML 配置文件加载、结构化日志（zap）、Prometheus 指标、
OpenTelemetry 追踪以及 Redis 编译结果缓存。

# 主要能力

  - 子命令：compile、validate、node-types、serve、health、version
  - 批量编译：errgroup 并发处理文件，结果按参数顺序输出
  - 中间件链：Recovery、RequestID、SecurityHeaders、RequestLogger、
    OTelTracing、Metrics、CORS、RateLimiter（基于 IP）、BodyLimit
  - Metrics 服务器：独立端口暴露 /metrics（Prometheus）
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
