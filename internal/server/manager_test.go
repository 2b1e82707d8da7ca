package server

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/botflow/config"
)

func testConfig() Config {
	return Config{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second}
}

func TestFromServerConfig(t *testing.T) {
	cfg := FromServerConfig(config.ServerConfig{
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    20 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}, 9091)

	assert.Equal(t, ":9091", cfg.Addr)
	assert.Equal(t, 20*time.Second, cfg.IdleTimeout)
	assert.Equal(t, 1<<20, cfg.MaxHeaderBytes)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestManager_StartAndShutdown(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	m := NewManager("api", handler, testConfig(), zap.NewNop())
	assert.False(t, m.IsRunning())

	require.NoError(t, m.Start())
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })
	assert.True(t, m.IsRunning())

	resp, err := http.Get("http://" + m.Addr() + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	require.NoError(t, m.Shutdown(context.Background()))
	assert.False(t, m.IsRunning())
	require.NoError(t, m.Shutdown(context.Background()))
}

func TestManager_DoubleStart(t *testing.T) {
	m := NewManager("api", http.NewServeMux(), testConfig(), zap.NewNop())

	require.NoError(t, m.Start())
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	err := m.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")
}

func TestManager_StartAfterShutdown(t *testing.T) {
	m := NewManager("metrics", http.NewServeMux(), testConfig(), zap.NewNop())

	require.NoError(t, m.Start())
	require.NoError(t, m.Shutdown(context.Background()))

	err := m.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}

func TestManager_StartListenError(t *testing.T) {
	m := NewManager("api", http.NewServeMux(), Config{Addr: "256.0.0.1:bad"}, zap.NewNop())
	assert.Error(t, m.Start())
}

func TestManager_WaitReturnsOnCancel(t *testing.T) {
	m := NewManager("api", http.NewServeMux(), testConfig(), zap.NewNop())
	require.NoError(t, m.Start())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Wait(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return after cancel")
	}
	assert.False(t, m.IsRunning())
}

func TestManager_Errors(t *testing.T) {
	m := NewManager("api", http.NewServeMux(), testConfig(), zap.NewNop())

	select {
	case <-m.Errors():
		t.Fatal("should not have received an error")
	default:
	}
}
