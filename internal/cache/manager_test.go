package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/botflow/compiler"
	"github.com/BaSui01/botflow/config"
	"github.com/BaSui01/botflow/testutil/fixtures"
)

// =============================================================================
// 🧪 测试辅助
// =============================================================================

type countingRecorder struct {
	mu     sync.Mutex
	hits   int
	misses int
}

func (r *countingRecorder) RecordCacheHit(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits++
}

func (r *countingRecorder) RecordCacheMiss(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.misses++
}

func setupTestRedis(t *testing.T, opts ...Option) (*miniredis.Miniredis, *Manager) {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := config.CacheConfig{
		Enabled:   true,
		Addr:      mr.Addr(),
		TTL:       time.Minute,
		KeyPrefix: "test:compile:",
	}

	manager, err := NewManager(cfg, zap.NewNop(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	return mr, manager
}

func compileFixture(t *testing.T) *compiler.Result {
	t.Helper()
	c := compiler.New(fixtures.Registry())
	res := c.Compile(context.Background(), fixtures.TriggerReply(), compiler.CompileOptions{})
	require.True(t, res.Success)
	return res
}

// =============================================================================
// 🧪 Manager 测试
// =============================================================================

func TestNewManager_ConnectionFailure(t *testing.T) {
	_, err := NewManager(config.CacheConfig{Addr: "127.0.0.1:1"}, zap.NewNop())
	assert.Error(t, err)
}

func TestManager_Key(t *testing.T) {
	_, m := setupTestRedis(t)

	bp := fixtures.TriggerReply()
	k1, err := m.Key(bp, compiler.CompileOptions{}, "fp-1")
	require.NoError(t, err)
	k2, err := m.Key(fixtures.TriggerReply(), compiler.CompileOptions{}, "fp-1")
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.Contains(t, k1, "test:compile:")

	otherFP, err := m.Key(bp, compiler.CompileOptions{}, "fp-2")
	require.NoError(t, err)
	assert.NotEqual(t, k1, otherFP)

	otherOpts, err := m.Key(bp, compiler.CompileOptions{AutoLayout: compiler.Bool(false)}, "fp-1")
	require.NoError(t, err)
	assert.NotEqual(t, k1, otherOpts)

	bp.Nodes[1].Config = map[string]any{"text": "changed"}
	changed, err := m.Key(bp, compiler.CompileOptions{}, "fp-1")
	require.NoError(t, err)
	assert.NotEqual(t, k1, changed)
}

func TestManager_PutAndGet(t *testing.T) {
	rec := &countingRecorder{}
	mr, m := setupTestRedis(t, WithRecorder(rec))
	ctx := context.Background()

	res := compileFixture(t)
	key, err := m.Key(fixtures.TriggerReply(), compiler.CompileOptions{}, "fp")
	require.NoError(t, err)

	_, err = m.Get(ctx, key)
	assert.True(t, IsCacheMiss(err))

	stored, err := m.Put(ctx, key, res)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Equal(t, time.Minute, mr.TTL(key))

	got, err := m.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, got.Success)
	require.NotNil(t, got.Workflow)
	assert.Equal(t, len(res.Workflow.Nodes), len(got.Workflow.Nodes))
	assert.Equal(t, res.Workflow.Connections.Targets("t1", "main"), got.Workflow.Connections.Targets("t1", "main"))

	assert.Equal(t, 1, rec.hits)
	assert.Equal(t, 1, rec.misses)
}

func TestManager_PutSkipsFailures(t *testing.T) {
	mr, m := setupTestRedis(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		result *compiler.Result
	}{
		{"nil", nil},
		{"invalid", &compiler.Result{Validation: compiler.ValidationResult{Errors: []compiler.ValidationError{{Code: compiler.CodeEmptyBlueprint}}}}},
		{"validate only", &compiler.Result{Success: true, Validation: compiler.ValidationResult{Valid: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored, err := m.Put(ctx, "test:compile:"+tt.name, tt.result)
			require.NoError(t, err)
			assert.False(t, stored)
		})
	}
	assert.Empty(t, mr.Keys())
}

func TestManager_GetExpired(t *testing.T) {
	mr, m := setupTestRedis(t)
	ctx := context.Background()

	_, err := m.Put(ctx, "test:compile:k", compileFixture(t))
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = m.Get(ctx, "test:compile:k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestManager_GetCorruptEntry(t *testing.T) {
	mr, m := setupTestRedis(t)
	require.NoError(t, mr.Set("test:compile:bad", "{not json"))

	_, err := m.Get(context.Background(), "test:compile:bad")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.False(t, mr.Exists("test:compile:bad"))
}

func TestManager_Delete(t *testing.T) {
	mr, m := setupTestRedis(t)
	ctx := context.Background()

	_, err := m.Put(ctx, "test:compile:a", compileFixture(t))
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx))
	require.NoError(t, m.Delete(ctx, "test:compile:a"))
	assert.False(t, mr.Exists("test:compile:a"))
}

func TestManager_Closed(t *testing.T) {
	_, m := setupTestRedis(t, WithHealthCheck(10*time.Millisecond))
	ctx := context.Background()

	require.NoError(t, m.Ping(ctx))
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = m.Put(ctx, "k", compileFixture(t))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Ping(ctx), ErrClosed)
	assert.ErrorIs(t, m.Delete(ctx, "k"), ErrClosed)
}
