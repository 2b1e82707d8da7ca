package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/botflow/api"
	"github.com/BaSui01/botflow/blueprint"
	"github.com/BaSui01/botflow/compiler"
	"github.com/BaSui01/botflow/internal/service"
	"github.com/BaSui01/botflow/testutil/fixtures"
)

// =============================================================================
// 🧪 测试辅助
// =============================================================================

func newBlueprintHandler(opts ...compiler.Option) *BlueprintHandler {
	c := compiler.New(fixtures.Registry(), opts...)
	return NewBlueprintHandler(service.NewBlueprintService(c, zap.NewNop()), zap.NewNop())
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	r := httptest.NewRequest(method, target, bytes.NewReader(data))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

// =============================================================================
// 🧪 BlueprintHandler 测试
// =============================================================================

func TestBlueprintHandler_HandleCompile(t *testing.T) {
	failing := compiler.OptimizerFunc{ID: "boom", Fn: func(context.Context, *compiler.CompiledWorkflow) error {
		return errors.New("optimizer exploded")
	}}

	tests := []struct {
		name       string
		handler    *BlueprintHandler
		req        api.CompileRequest
		wantStatus int
		wantCode   string
	}{
		{
			name:       "success",
			handler:    newBlueprintHandler(),
			req:        api.CompileRequest{Blueprint: fixtures.TriggerReply()},
			wantStatus: http.StatusOK,
		},
		{
			name:       "validation failure",
			handler:    newBlueprintHandler(),
			req:        api.CompileRequest{Blueprint: fixtures.NewBlueprint()},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "missing blueprint",
			handler:    newBlueprintHandler(),
			req:        api.CompileRequest{},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "compilation fault",
			handler:    newBlueprintHandler(compiler.WithOptimizers(failing)),
			req:        api.CompileRequest{Blueprint: fixtures.TriggerReply(), Options: compiler.CompileOptions{Optimize: true}},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "COMPILATION_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.handler.HandleCompile(w, jsonRequest(t, http.MethodPost, "/api/v1/blueprints/compile", tt.req))

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			if tt.wantCode == "" {
				assert.True(t, resp.Success)
				return
			}
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestBlueprintHandler_HandleCompile_Body(t *testing.T) {
	h := newBlueprintHandler()
	w := httptest.NewRecorder()
	h.HandleCompile(w, jsonRequest(t, http.MethodPost, "/", api.CompileRequest{Blueprint: fixtures.TriggerReply()}))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data api.CompileResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotNil(t, resp.Data.Result)
	require.NotNil(t, resp.Data.Workflow)
	assert.Equal(t, []string{"r1"}, resp.Data.Workflow.Connections.Targets("t1", "main"))
	assert.False(t, resp.Data.Cached)
}

func TestBlueprintHandler_HandleCompile_ValidationDetails(t *testing.T) {
	bp := fixtures.TriggerReply()
	bp.Nodes = append(bp.Nodes, blueprint.Node{ID: "t1", Type: "trigger"})

	h := newBlueprintHandler()
	w := httptest.NewRecorder()
	h.HandleCompile(w, jsonRequest(t, http.MethodPost, "/", api.CompileRequest{Blueprint: bp}))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		Error struct {
			Details api.CompileResponse `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotNil(t, resp.Error.Details.Result)
	assert.True(t, resp.Error.Details.Validation.HasError(compiler.CodeDuplicateID))
}

func TestBlueprintHandler_HandleCompile_ContentType(t *testing.T) {
	h := newBlueprintHandler()
	r := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(`{}`)))
	r.Header.Set("Content-Type", "text/yaml")
	w := httptest.NewRecorder()

	h.HandleCompile(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBlueprintHandler_HandleValidate(t *testing.T) {
	h := newBlueprintHandler()

	w := httptest.NewRecorder()
	h.HandleValidate(w, jsonRequest(t, http.MethodPost, "/", api.ValidateRequest{Blueprint: fixtures.NewBlueprint()}))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data compiler.ValidationResult `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Data.Valid)
	assert.True(t, resp.Data.HasError(compiler.CodeEmptyBlueprint))
}

func TestBlueprintHandler_HandleExport(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		bp         *blueprint.Blueprint
		wantStatus int
	}{
		{"default target", "/api/v1/blueprints/export", fixtures.TriggerReply(), http.StatusOK},
		{"n8n", "/api/v1/blueprints/export?target=n8n", fixtures.TriggerReply(), http.StatusOK},
		{"unsupported", "/api/v1/blueprints/export?target=zapier", fixtures.TriggerReply(), http.StatusBadRequest},
		{"invalid", "/api/v1/blueprints/export?target=n8n", fixtures.NewBlueprint(), http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newBlueprintHandler()
			w := httptest.NewRecorder()
			h.HandleExport(w, jsonRequest(t, http.MethodPost, tt.target, api.CompileRequest{Blueprint: tt.bp}))

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestBlueprintHandler_HandleExport_Document(t *testing.T) {
	h := newBlueprintHandler()
	w := httptest.NewRecorder()
	h.HandleExport(w, jsonRequest(t, http.MethodPost, "/?target=n8n", api.CompileRequest{Blueprint: fixtures.TriggerReply()}))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Target   string `json:"target"`
			Document struct {
				Nodes       []map[string]any          `json:"nodes"`
				Connections map[string]map[string]any `json:"connections"`
			} `json:"document"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "n8n", resp.Data.Target)
	assert.Len(t, resp.Data.Document.Nodes, 2)
	assert.Contains(t, resp.Data.Document.Connections, "t1")
}
