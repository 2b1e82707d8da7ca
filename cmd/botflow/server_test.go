package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/botflow/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *httptest.Server {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	s, err := NewServer(cfg, zap.NewNop(), nextTestNamespace())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(s.Handler(ctx))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		if s.cache != nil {
			_ = s.cache.Close()
		}
	})
	return srv
}

func postCompile(t *testing.T, srv *httptest.Server, bp string) (int, envelope) {
	t.Helper()
	body := `{"blueprint": ` + bp + `}`
	resp, err := http.Post(srv.URL+"/api/v1/blueprints/compile", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestServer_Routes(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, path := range []string{"/health", "/healthz", "/ready", "/version", "/api/v1/node-types", "/api/v1/node-types/reply.text"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"), path)
		assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"), path)
	}

	resp, err := http.Get(srv.URL + "/api/v1/node-types/does.not.exist")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Compile(t *testing.T) {
	srv := newTestServer(t, nil)

	status, env := postCompile(t, srv, validBlueprint)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)

	var out struct {
		Success bool `json:"success"`
		Cached  bool `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.True(t, out.Success)
	assert.False(t, out.Cached)

	status, env = postCompile(t, srv, `{"owner_id": "u", "version": "v1", "nodes": [], "edges": []}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.False(t, env.Success)
}

func TestServer_CompileCache(t *testing.T) {
	mr := miniredis.RunT(t)
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.Cache.Enabled = true
		cfg.Cache.Addr = mr.Addr()
	})

	var cached []bool
	for i := 0; i < 2; i++ {
		status, env := postCompile(t, srv, validBlueprint)
		require.Equal(t, http.StatusOK, status)
		var out struct {
			Cached bool `json:"cached"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &out))
		cached = append(cached, out.Cached)
	}
	assert.Equal(t, []bool{false, true}, cached)
}

func TestServer_CacheUnavailableFallsBack(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.Cache.Enabled = true
		cfg.Cache.Addr = "127.0.0.1:1"
	})

	status, env := postCompile(t, srv, validBlueprint)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
}

func TestServer_BodyLimit(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.Server.MaxBodyBytes = 64
	})

	body := bytes.Repeat([]byte(" "), 256)
	resp, err := http.Post(srv.URL+"/api/v1/blueprints/compile", "application/json", bytes.NewReader(append(body, '{', '}')))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestServer_StartAndRun(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.HTTPPort = 0
	cfg.Server.MetricsPort = 0
	s, err := NewServer(cfg, zap.NewNop(), nextTestNamespace())
	require.NoError(t, err)
	require.NoError(t, s.Start())

	_, port, err := net.SplitHostPort(s.httpManager.Addr())
	require.NoError(t, err)
	resp, err := http.Get("http://127.0.0.1:" + port + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.NoError(t, s.Run(ctx))
	assert.False(t, s.httpManager.IsRunning())
}
