package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/botflow/api"
	"github.com/BaSui01/botflow/nodetype"
	"github.com/BaSui01/botflow/types"
)

// =============================================================================
// 🧩 节点类型接口 Handler
// =============================================================================

// NodeTypeHandler 节点类型注册表只读接口
type NodeTypeHandler struct {
	registry *nodetype.Registry
	logger   *zap.Logger
}

// NewNodeTypeHandler 创建节点类型处理器
func NewNodeTypeHandler(reg *nodetype.Registry, logger *zap.Logger) *NodeTypeHandler {
	return &NodeTypeHandler{
		registry: reg,
		logger:   logger.With(zap.String("component", "nodetype_handler")),
	}
}

// HandleList 处理 GET /api/v1/node-types，支持 ?category= 过滤
func (h *NodeTypeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	defs := h.registry.List()
	if category != "" {
		filtered := defs[:0]
		for _, d := range defs {
			if d.Category == category {
				filtered = append(filtered, d)
			}
		}
		defs = filtered
	}

	WriteSuccess(w, r, api.NodeTypeList{
		Fingerprint: h.registry.Fingerprint(),
		Count:       len(defs),
		NodeTypes:   defs,
	})
}

// HandleGet 处理 GET /api/v1/node-types/{type}
func (h *NodeTypeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("type")
	if name == "" {
		WriteError(w, r, types.NewInvalidRequestError("node type is required"), h.logger)
		return
	}

	def, ok := h.registry.Get(name)
	if !ok {
		WriteError(w, r, types.NewNotFoundError("unknown node type: "+name), h.logger)
		return
	}

	WriteSuccess(w, r, def)
}
