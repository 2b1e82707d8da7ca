package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/botflow/api"
	"github.com/BaSui01/botflow/blueprint"
	"github.com/BaSui01/botflow/compiler"
	"github.com/BaSui01/botflow/internal/service"
	"github.com/BaSui01/botflow/types"
)

// =============================================================================
// 🗺️ Blueprint 接口 Handler
// =============================================================================

// BlueprintService 编译服务接口，*service.BlueprintService 实现了该接口
type BlueprintService interface {
	Compile(ctx context.Context, bp *blueprint.Blueprint, opts compiler.CompileOptions) service.Outcome
	Validate(bp *blueprint.Blueprint) compiler.ValidationResult
	Export(ctx context.Context, bp *blueprint.Blueprint, opts compiler.CompileOptions, target string) (any, service.Outcome, error)
}

// BlueprintHandler 蓝图编译、校验与导出处理器
type BlueprintHandler struct {
	service BlueprintService
	logger  *zap.Logger
}

// NewBlueprintHandler 创建蓝图处理器
func NewBlueprintHandler(svc BlueprintService, logger *zap.Logger) *BlueprintHandler {
	return &BlueprintHandler{
		service: svc,
		logger:  logger.With(zap.String("component", "blueprint_handler")),
	}
}

// HandleCompile 处理 POST /api/v1/blueprints/compile
// 成功返回 200；校验失败返回 422 并附带完整结果；编译故障返回 500 通用重试提示。
func (h *BlueprintHandler) HandleCompile(w http.ResponseWriter, r *http.Request) {
	var req api.CompileRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Blueprint == nil {
		WriteError(w, r, types.NewInvalidRequestError("blueprint is required"), h.logger)
		return
	}

	ctx := types.WithOwnerID(r.Context(), req.Blueprint.OwnerID)
	out := h.service.Compile(ctx, req.Blueprint, req.Options)
	res := out.Result

	switch {
	case res.Faulted():
		WriteError(w, r, types.NewCompilationError(), h.logger)
	case !res.Success:
		WriteError(w, r, types.NewValidationError(api.CompileResponse{Result: res}), h.logger)
	default:
		h.logger.Debug("blueprint compiled",
			zap.String("owner_id", req.Blueprint.OwnerID),
			zap.String("version", req.Blueprint.Version),
			zap.Int("nodes", res.Stats.Nodes),
			zap.Bool("cached", out.Cached),
		)
		WriteSuccess(w, r, api.CompileResponse{Result: res, Cached: out.Cached})
	}
}

// HandleValidate 处理 POST /api/v1/blueprints/validate，总是返回 200 与校验结果
func (h *BlueprintHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req api.ValidateRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Blueprint == nil {
		WriteError(w, r, types.NewInvalidRequestError("blueprint is required"), h.logger)
		return
	}

	WriteSuccess(w, r, h.service.Validate(req.Blueprint))
}

// HandleExport 处理 POST /api/v1/blueprints/export?target=n8n
func (h *BlueprintHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("target")
	if target == "" {
		target = "n8n"
	}

	var req api.CompileRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Blueprint == nil {
		WriteError(w, r, types.NewInvalidRequestError("blueprint is required"), h.logger)
		return
	}

	doc, out, err := h.service.Export(r.Context(), req.Blueprint, req.Options, target)
	switch {
	case errors.Is(err, service.ErrUnknownTarget):
		WriteError(w, r, types.NewError(types.ErrUnsupported, "unsupported export target: "+target).
			WithHTTPStatus(http.StatusBadRequest), h.logger)
	case errors.Is(err, service.ErrNotCompiled):
		if out.Result.Faulted() {
			WriteError(w, r, types.NewCompilationError(), h.logger)
			return
		}
		WriteError(w, r, types.NewValidationError(out.Result.Validation), h.logger)
	case err != nil:
		WriteError(w, r, types.NewError(types.ErrExportFailed, "export failed").
			WithCause(err).
			WithHTTPStatus(http.StatusInternalServerError), h.logger)
	default:
		WriteSuccess(w, r, api.ExportResponse{
			Target:     target,
			Document:   doc,
			Validation: out.Result.Validation,
			Cached:     out.Cached,
		})
	}
}

func (h *BlueprintHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !ValidateContentType(w, r, h.logger) {
		return false
	}
	return DecodeJSONBody(w, r, dst, h.logger) == nil
}
