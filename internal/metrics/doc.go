// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖
HTTP、编译、缓存与实时校验四个维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制，所有指标按 namespace 隔离。Collector 实现了
compiler.Observer，可直接通过 compiler.WithObserver 注入编译器。

# 主要能力

  - HTTP 指标：请求总数、请求耗时、请求/响应体大小，
    按 method/path/status 分组，状态码归类为 2xx/3xx/4xx/5xx。
  - 编译指标：编译总数与耗时（按 status 分组）、节点数分布、
    校验问题计数（按 severity/code 分组）。
  - 缓存指标：命中与未命中计数，按 cache_type 分组。
  - 实时校验指标：活跃 WebSocket 会话数与消息计数。
*/
package metrics
