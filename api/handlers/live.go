package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/BaSui01/botflow/api"
	"github.com/BaSui01/botflow/blueprint"
	"github.com/BaSui01/botflow/compiler"
)

// =============================================================================
// 🔌 实时校验 WebSocket Handler
// =============================================================================

// LiveRecorder 记录实时校验会话指标，metrics.Collector 实现了该接口
type LiveRecorder interface {
	LiveSessionOpened()
	LiveSessionClosed()
	RecordLiveMessage(result string)
}

type nopLiveRecorder struct{}

func (nopLiveRecorder) LiveSessionOpened() {}
func (nopLiveRecorder) LiveSessionClosed() {}
func (nopLiveRecorder) RecordLiveMessage(string) {}

// Validator 校验单个蓝图
type Validator interface {
	Validate(bp *blueprint.Blueprint) compiler.ValidationResult
}

// LiveHandler 编辑器实时反馈：客户端每发送一帧 Blueprint JSON，服务端回复一帧校验结果
type LiveHandler struct {
	validator      Validator
	recorder       LiveRecorder
	originPatterns []string
	readLimit      int64
	logger         *zap.Logger
}

// LiveOption LiveHandler 选项
type LiveOption func(*LiveHandler)

// WithLiveRecorder 设置指标记录器
func WithLiveRecorder(r LiveRecorder) LiveOption {
	return func(h *LiveHandler) {
		if r != nil {
			h.recorder = r
		}
	}
}

// WithOriginPatterns 允许跨域升级的 Origin 模式
func WithOriginPatterns(patterns ...string) LiveOption {
	return func(h *LiveHandler) {
		h.originPatterns = patterns
	}
}

// WithReadLimit 单帧最大字节数
func WithReadLimit(n int64) LiveOption {
	return func(h *LiveHandler) {
		if n > 0 {
			h.readLimit = n
		}
	}
}

// NewLiveHandler 创建实时校验处理器
func NewLiveHandler(v Validator, logger *zap.Logger, opts ...LiveOption) *LiveHandler {
	h := &LiveHandler{
		validator: v,
		recorder:  nopLiveRecorder{},
		readLimit: 1 << 20,
		logger:    logger.With(zap.String("component", "live_handler")),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleLive 处理 GET /api/v1/blueprints/live
func (h *LiveHandler) HandleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		// Accept 已写出错误响应
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(h.readLimit)

	h.recorder.LiveSessionOpened()
	defer h.recorder.LiveSessionClosed()

	requestIDField := zap.String("request_id", requestID(r))
	h.logger.Debug("live session opened", requestIDField)

	err = h.serve(r.Context(), conn)
	switch status := websocket.CloseStatus(err); {
	case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
		h.logger.Debug("live session closed", requestIDField)
	case errors.Is(err, context.Canceled):
		h.logger.Debug("live session cancelled", requestIDField)
	default:
		h.logger.Warn("live session ended", requestIDField, zap.Error(err))
		_ = conn.Close(websocket.StatusInternalError, "session error")
		return
	}
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

// serve 逐帧处理直到连接关闭。无法解析的帧回复错误信息，会话继续。
func (h *LiveHandler) serve(ctx context.Context, conn *websocket.Conn) error {
	for seq := 1; ; seq++ {
		// conn.Read 而非 wsjson.Read：后者在解码失败时会关闭连接
		_, raw, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		frame := api.LiveFrame{Seq: seq}
		bp, err := blueprint.FromJSON(raw)
		if err != nil {
			frame.Error = "invalid blueprint JSON"
			h.recorder.RecordLiveMessage("malformed")
		} else {
			result := h.validator.Validate(bp)
			frame.Validation = &result
			if result.Valid {
				h.recorder.RecordLiveMessage("valid")
			} else {
				h.recorder.RecordLiveMessage("invalid")
			}
		}

		if err := wsjson.Write(ctx, conn, frame); err != nil {
			return err
		}
	}
}
