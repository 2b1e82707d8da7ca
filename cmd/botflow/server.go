package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/botflow/api/handlers"
	"github.com/BaSui01/botflow/compiler"
	"github.com/BaSui01/botflow/config"
	"github.com/BaSui01/botflow/internal/cache"
	"github.com/BaSui01/botflow/internal/metrics"
	"github.com/BaSui01/botflow/internal/server"
	"github.com/BaSui01/botflow/internal/service"
	"github.com/BaSui01/botflow/internal/telemetry"
	"github.com/BaSui01/botflow/nodetype"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server botflow 主服务器：API 端口与 metrics 端口
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	registry  *nodetype.Registry
	collector *metrics.Collector
	cache     *cache.Manager
	service   *service.BlueprintService
	telemetry *telemetry.Providers

	httpManager    *server.Manager
	metricsManager *server.Manager

	rateLimiterCancel context.CancelFunc
}

// cacheHealthInterval 缓存后台健康检查间隔
const cacheHealthInterval = 30 * time.Second

// NewServer 按配置装配注册表、编译器、缓存与服务。
// namespace 为 Prometheus 指标命名空间。
func NewServer(cfg *config.Config, logger *zap.Logger, namespace string) (*Server, error) {
	reg, err := nodetype.NewRegistryFromFile(cfg.Compiler.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load node types: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		registry:  reg,
		collector: metrics.NewCollector(namespace, logger),
	}

	c := compiler.New(reg,
		compiler.WithLogger(logger),
		compiler.WithObserver(s.collector),
		compiler.WithStrictCycles(cfg.Compiler.StrictCycles),
		compiler.WithLayout(compiler.LayoutConfig{
			StartX:   cfg.Compiler.Layout.StartX,
			SpacingX: cfg.Compiler.Layout.SpacingX,
			StartY:   cfg.Compiler.Layout.StartY,
		}),
		compiler.WithOptimizers(compiler.PruneEmptyCredentials),
	)

	opts := []service.Option{service.WithDefaultAutoLayout(cfg.Compiler.AutoLayout)}
	if cfg.Cache.Enabled {
		m, err := cache.NewManager(cfg.Cache, logger,
			cache.WithRecorder(s.collector),
			cache.WithHealthCheck(cacheHealthInterval),
		)
		if err != nil {
			// 缓存不可用时降级为直接编译
			logger.Warn("compile cache unavailable, continuing without cache", zap.Error(err))
		} else {
			s.cache = m
			opts = append(opts, service.WithCache(m))
		}
	}
	s.service = service.NewBlueprintService(c, logger, opts...)

	logger.Info("node types loaded",
		zap.Int("count", reg.Len()),
		zap.String("fingerprint", reg.Fingerprint()),
		zap.Bool("cache_enabled", s.cache != nil),
	)
	return s, nil
}

// =============================================================================
// 🌐 路由
// =============================================================================

// Handler 构建带中间件链的 API 路由
func (s *Server) Handler(ctx context.Context) http.Handler {
	health := handlers.NewHealthHandler(s.logger)
	if s.cache != nil {
		health.RegisterCheck(handlers.NewFuncCheck("compile_cache", s.cache.Ping))
	}
	blueprints := handlers.NewBlueprintHandler(s.service, s.logger)
	nodeTypes := handlers.NewNodeTypeHandler(s.registry, s.logger)
	live := handlers.NewLiveHandler(s.service, s.logger,
		handlers.WithLiveRecorder(s.collector),
		handlers.WithOriginPatterns(originHosts(s.cfg.Server.CORSAllowedOrigins)...),
		handlers.WithReadLimit(s.cfg.Server.MaxBodyBytes),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health.HandleHealth)
	mux.HandleFunc("GET /healthz", health.HandleHealth)
	mux.HandleFunc("GET /ready", health.HandleReady)
	mux.HandleFunc("GET /version", health.HandleVersion(Version, BuildTime, GitCommit))

	mux.HandleFunc("POST /api/v1/blueprints/compile", blueprints.HandleCompile)
	mux.HandleFunc("POST /api/v1/blueprints/validate", blueprints.HandleValidate)
	mux.HandleFunc("POST /api/v1/blueprints/export", blueprints.HandleExport)
	mux.HandleFunc("GET /api/v1/blueprints/live", live.HandleLive)
	mux.HandleFunc("GET /api/v1/node-types", nodeTypes.HandleList)
	mux.HandleFunc("GET /api/v1/node-types/{type}", nodeTypes.HandleGet)

	return Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		OTelTracing(),
		Metrics(s.collector),
		CORS(s.cfg.Server.CORSAllowedOrigins),
		RateLimiter(ctx, float64(s.cfg.Server.RateLimitRPS), s.cfg.Server.RateLimitBurst, s.logger),
		BodyLimit(s.cfg.Server.MaxBodyBytes),
	)
}

// originHosts 将 CORS 来源转换为 WebSocket 升级使用的 host 模式
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			hosts = append(hosts, "*")
			continue
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			hosts = append(hosts, u.Host)
		}
	}
	return hosts
}

// =============================================================================
// 🚀 启动与关闭
// =============================================================================

// Start 启动 API 与 metrics 服务器（非阻塞）
func (s *Server) Start() error {
	limiterCtx, cancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = cancel

	s.httpManager = server.NewManager("api", s.Handler(limiterCtx),
		server.FromServerConfig(s.cfg.Server, s.cfg.Server.HTTPPort), s.logger)
	if err := s.httpManager.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	s.metricsManager = server.NewManager("metrics", metricsMux,
		server.FromServerConfig(s.cfg.Server, s.cfg.Server.MetricsPort), s.logger)
	if err := s.metricsManager.Start(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("all servers started",
		zap.String("http_addr", s.httpManager.Addr()),
		zap.String("metrics_addr", s.metricsManager.Addr()),
	)
	return nil
}

// Run 阻塞直到 ctx 取消或任一服务器异常退出，然后优雅关闭
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.httpManager.Wait(gctx) })
	g.Go(func() error { return s.metricsManager.Wait(gctx) })
	err := g.Wait()

	s.Shutdown()
	return err
}

// Shutdown 释放限流器、缓存与遥测资源
func (s *Server) Shutdown() {
	s.logger.Info("starting graceful shutdown")
	ctx := context.Background()

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}
	for _, m := range []*server.Manager{s.httpManager, s.metricsManager} {
		if m == nil {
			continue
		}
		if err := m.Shutdown(ctx); err != nil {
			s.logger.Error("server shutdown error", zap.Error(err))
		}
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Error("cache close error", zap.Error(err))
		}
	}
	if err := s.telemetry.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("telemetry shutdown error", zap.Error(err))
	}

	s.logger.Info("graceful shutdown completed")
}
