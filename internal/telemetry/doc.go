// Package telemetry 封装 OpenTelemetry SDK 初始化逻辑，为 botflow 的编译
// span、botflow.compile.* 指标和 HTTP 追踪中间件提供全局 provider。
// 禁用时使用 noop 实现，不连接任何外部服务。
package telemetry
