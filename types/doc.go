// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供 botflow 服务的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 api、cmd 等上层模块
提供统一的错误码与 Context 传播约定。

# 核心类型

  - Error / ErrorCode: 结构化错误体系，含 HTTP 状态码、Retryable 与 Details
  - WithRequestID / WithTraceID / WithOwnerID: Context 传播

# 错误工具链

  - AsError / WrapError / GetErrorCode / IsRetryable
  - NewInvalidRequestError / NewNotFoundError / NewValidationError / NewCompilationError
*/
package types
