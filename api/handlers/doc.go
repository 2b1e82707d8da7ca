// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 botflow HTTP API 的请求处理器实现。

# 概述

handlers 包实现蓝图编译、校验、导出、节点类型查询、实时校验以及
健康检查端点。所有 Handler 均遵循标准 net/http 接口。

# 核心类型

  - BlueprintHandler: 编译 / 校验 / 导出（200、422、500 语义）
  - NodeTypeHandler : 节点类型注册表只读接口
  - LiveHandler     : WebSocket 实时校验，每帧蓝图回复一帧校验结果
  - HealthHandler   : 服务健康检查（/health, /healthz, /ready, /version）
  - Response        : 统一 JSON 响应结构（success + data + error + timestamp）
  - ResponseWriter  : 包装 http.ResponseWriter 以捕获状态码与响应大小

# 错误语义

校验失败返回 422 VALIDATION_FAILED，details 中携带完整结果；编译故障
只向客户端返回通用重试提示，具体原因仅记录在服务端日志中。
*/
package handlers
