// Package cache provides the Redis-backed compile result cache.
// This package is internal and should not be imported by external projects.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/botflow/blueprint"
	"github.com/BaSui01/botflow/compiler"
	"github.com/BaSui01/botflow/config"
	"github.com/BaSui01/botflow/internal/tlsutil"
)

// cacheType 上报给指标收集器的缓存类型标签
const cacheType = "compile"

// =============================================================================
// 💾 编译结果缓存
// =============================================================================

// Recorder 接收缓存命中/未命中事件，metrics.Collector 实现了该接口
type Recorder interface {
	RecordCacheHit(cacheType string)
	RecordCacheMiss(cacheType string)
}

type nopRecorder struct{}

func (nopRecorder) RecordCacheHit(string) {}
func (nopRecorder) RecordCacheMiss(string) {}

// Manager 编译结果缓存管理器。只缓存编译成功的结果。
type Manager struct {
	redis    *redis.Client
	ttl      time.Duration
	prefix   string
	recorder Recorder
	logger   *zap.Logger

	mu     sync.RWMutex
	closed bool
	stop   chan struct{}
}

// Option 缓存管理器选项
type Option func(*Manager)

// WithRecorder 设置命中率记录器
func WithRecorder(r Recorder) Option {
	return func(m *Manager) {
		if r != nil {
			m.recorder = r
		}
	}
}

// WithHealthCheck 启动后台健康检查
func WithHealthCheck(interval time.Duration) Option {
	return func(m *Manager) {
		if interval > 0 {
			go m.healthCheckLoop(interval)
		}
	}
}

// NewManager 创建缓存管理器并检查 Redis 连接
func NewManager(cfg config.CacheConfig, logger *zap.Logger, opts ...Option) (*Manager, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		TLSConfig:    tlsutil.ForAddr(cfg.TLSEnabled, cfg.Addr),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	m := &Manager{
		redis:    client,
		ttl:      cfg.TTL,
		prefix:   cfg.KeyPrefix,
		recorder: nopRecorder{},
		logger:   logger.With(zap.String("component", "cache")),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.logger.Info("compile cache initialized",
		zap.String("addr", cfg.Addr),
		zap.Duration("ttl", cfg.TTL),
		zap.Int("pool_size", cfg.PoolSize),
	)

	return m, nil
}

// =============================================================================
// 🔑 缓存键
// =============================================================================

// keyInput 参与缓存键计算的内容
type keyInput struct {
	Blueprint   *blueprint.Blueprint    `json:"blueprint"`
	Options     compiler.CompileOptions `json:"options"`
	Fingerprint string                  `json:"fingerprint"`
}

// Key 计算缓存键：SHA-256(规范 JSON(blueprint, options, 注册表指纹))。
// encoding/json 对 map 键排序，相同内容得到相同的键。
func (m *Manager) Key(bp *blueprint.Blueprint, opts compiler.CompileOptions, fingerprint string) (string, error) {
	data, err := json.Marshal(keyInput{Blueprint: bp, Options: opts, Fingerprint: fingerprint})
	if err != nil {
		return "", fmt.Errorf("failed to encode cache key input: %w", err)
	}
	sum := sha256.Sum256(data)
	return m.prefix + hex.EncodeToString(sum[:]), nil
}

// =============================================================================
// 🎯 核心方法
// =============================================================================

// Get 读取缓存的编译结果，未命中返回 ErrCacheMiss
func (m *Manager) Get(ctx context.Context, key string) (*compiler.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	val, err := m.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		m.recorder.RecordCacheMiss(cacheType)
		return nil, ErrCacheMiss
	}
	if err != nil {
		m.logger.Error("cache get failed", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("cache get failed: %w", err)
	}

	var result compiler.Result
	if err := json.Unmarshal(val, &result); err != nil {
		// 损坏的条目按未命中处理
		m.logger.Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		_ = m.redis.Del(ctx, key).Err()
		m.recorder.RecordCacheMiss(cacheType)
		return nil, ErrCacheMiss
	}

	m.recorder.RecordCacheHit(cacheType)
	return &result, nil
}

// Put 写入编译结果。失败或仅校验的结果不缓存，返回 false。
func (m *Manager) Put(ctx context.Context, key string, result *compiler.Result) (bool, error) {
	if result == nil || !result.Success || result.Workflow == nil {
		return false, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return false, ErrClosed
	}

	data, err := json.Marshal(result)
	if err != nil {
		return false, fmt.Errorf("failed to marshal compile result: %w", err)
	}

	if err := m.redis.Set(ctx, key, data, m.ttl).Err(); err != nil {
		m.logger.Error("cache set failed", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("cache set failed: %w", err)
	}

	return true, nil
}

// Delete 删除缓存条目
func (m *Manager) Delete(ctx context.Context, keys ...string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrClosed
	}
	if len(keys) == 0 {
		return nil
	}

	if err := m.redis.Del(ctx, keys...).Err(); err != nil {
		m.logger.Error("cache delete failed", zap.Strings("keys", keys), zap.Error(err))
		return fmt.Errorf("cache delete failed: %w", err)
	}
	return nil
}

// Ping 检查 Redis 连接
func (m *Manager) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrClosed
	}
	return m.redis.Ping(ctx).Err()
}

// Close 关闭缓存管理器
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true
	close(m.stop)
	m.logger.Info("closing compile cache")

	return m.redis.Close()
}

// =============================================================================
// 🏥 健康检查
// =============================================================================

func (m *Manager) healthCheckLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := m.Ping(ctx); err != nil && !errors.Is(err, ErrClosed) {
				m.logger.Error("cache health check failed", zap.Error(err))
			}
			cancel()
		}
	}
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

var (
	// ErrCacheMiss 缓存未命中
	ErrCacheMiss = errors.New("cache miss")
	// ErrClosed 缓存已关闭
	ErrClosed = errors.New("cache manager is closed")
)

// IsCacheMiss 判断是否为缓存未命中错误
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}
