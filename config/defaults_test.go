package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- DefaultConfig aggregate ---

func TestDefaultConfig_ContainsAllSubConfigs(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.NotEqual(t, ServerConfig{}, cfg.Server)
	assert.NotEqual(t, CompilerConfig{}, cfg.Compiler)
	assert.NotEqual(t, CacheConfig{}, cfg.Cache)
	assert.NotEqual(t, TelemetryConfig{}, cfg.Telemetry)
	assert.NotEmpty(t, cfg.Log.OutputPaths)
}

// --- Individual Default*Config functions ---

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 9091, cfg.MetricsPort)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.RateLimitRPS)
	assert.Equal(t, 200, cfg.RateLimitBurst)
	assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
	assert.Empty(t, cfg.CORSAllowedOrigins)
}

func TestDefaultCompilerConfig(t *testing.T) {
	cfg := DefaultCompilerConfig()
	assert.True(t, cfg.AutoLayout)
	assert.False(t, cfg.StrictCycles)
	assert.Empty(t, cfg.CatalogPath)
	assert.Equal(t, LayoutConfig{StartX: 250, SpacingX: 220, StartY: 300}, cfg.Layout)
}

func TestDefaultCacheConfig(t *testing.T) {
	cfg := DefaultCacheConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Addr)
	assert.Equal(t, 10*time.Minute, cfg.TTL)
	assert.Equal(t, "botflow:compile:", cfg.KeyPrefix)
}

func TestDefaultLogConfig(t *testing.T) {
	cfg := DefaultLogConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, []string{"stdout"}, cfg.OutputPaths)
	assert.True(t, cfg.EnableCaller)
	assert.False(t, cfg.EnableStacktrace)
}

func TestDefaultTelemetryConfig(t *testing.T) {
	cfg := DefaultTelemetryConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, "botflow", cfg.ServiceName)
	assert.InDelta(t, 0.1, cfg.SampleRate, 0.0001)
}
