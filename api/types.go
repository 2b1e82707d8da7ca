package api

import (
	"github.com/BaSui01/botflow/blueprint"
	"github.com/BaSui01/botflow/compiler"
	"github.com/BaSui01/botflow/nodetype"
)

// =============================================================================
// 🗺️ Blueprint API 类型
// =============================================================================

// CompileRequest 编译请求
type CompileRequest struct {
	Blueprint *blueprint.Blueprint    `json:"blueprint"`
	Options   compiler.CompileOptions `json:"options,omitempty"`
}

// CompileResponse 编译响应
type CompileResponse struct {
	*compiler.Result
	Cached bool `json:"cached"`
}

// ValidateRequest 校验请求
type ValidateRequest struct {
	Blueprint *blueprint.Blueprint `json:"blueprint"`
}

// ExportResponse 导出响应
type ExportResponse struct {
	Target     string                    `json:"target"`
	Document   any                       `json:"document"`
	Validation compiler.ValidationResult `json:"validation"`
	Cached     bool                      `json:"cached"`
}

// =============================================================================
// 🧩 节点类型 API 类型
// =============================================================================

// NodeTypeList 节点类型列表
type NodeTypeList struct {
	Fingerprint string                `json:"fingerprint"`
	Count       int                   `json:"count"`
	NodeTypes   []nodetype.Definition `json:"node_types"`
}

// =============================================================================
// 🔌 实时校验消息
// =============================================================================

// LiveFrame 实时校验服务端消息
type LiveFrame struct {
	// Seq 从 1 开始的消息序号
	Seq        int                        `json:"seq"`
	Validation *compiler.ValidationResult `json:"validation,omitempty"`
	Error      string                     `json:"error,omitempty"`
}
