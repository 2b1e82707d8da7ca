// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/BaSui01/botflow/compiler"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器，同时实现 compiler.Observer
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRequestSize     *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// 编译指标
	compilesTotal    *prometheus.CounterVec
	compileDuration  *prometheus.HistogramVec
	compiledNodes    prometheus.Histogram
	validationIssues *prometheus.CounterVec

	// 缓存指标
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// 实时校验会话指标
	liveSessions prometheus.Gauge
	liveMessages *prometheus.CounterVec

	logger *zap.Logger
}

var _ compiler.Observer = (*Collector)(nil)

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// HTTP 指标
	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.httpRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_size_bytes",
			Help:      "HTTP request size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	c.httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// 编译指标
	c.compilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compiles_total",
			Help:      "Total number of blueprint compilations",
		},
		[]string{"status"}, // status: success, invalid, fault
	)

	c.compileDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compile_duration_seconds",
			Help:      "Blueprint compilation duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
		[]string{"status"},
	)

	c.compiledNodes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compiled_nodes",
			Help:      "Number of nodes per compiled workflow",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	c.validationIssues = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_issues_total",
			Help:      "Total number of validation errors and warnings by code",
		},
		[]string{"severity", "code"},
	)

	// 缓存指标
	c.cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	c.cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// 实时校验会话指标
	c.liveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_sessions",
			Help:      "Number of open live validation sessions",
		},
	)

	c.liveMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_messages_total",
			Help:      "Total number of live validation messages",
		},
		[]string{"result"}, // result: valid, invalid, malformed
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 HTTP 指标记录
// =============================================================================

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration, requestSize, responseSize int64) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	c.httpRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	c.httpResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// =============================================================================
// 🛠️ 编译指标记录
// =============================================================================

// ObserveCompile 记录一次编译，实现 compiler.Observer
func (c *Collector) ObserveCompile(status string, elapsed time.Duration, result *compiler.Result) {
	c.compilesTotal.WithLabelValues(status).Inc()
	c.compileDuration.WithLabelValues(status).Observe(elapsed.Seconds())

	if result == nil {
		return
	}
	if result.Workflow != nil {
		c.compiledNodes.Observe(float64(len(result.Workflow.Nodes)))
	}
	for _, e := range result.Validation.Errors {
		c.validationIssues.WithLabelValues("error", e.Code).Inc()
	}
	for _, w := range result.Validation.Warnings {
		c.validationIssues.WithLabelValues("warning", w.Code).Inc()
	}

	if status == compiler.StatusFault {
		c.logger.Warn("compilation fault recorded", zap.Duration("elapsed", elapsed))
	}
}

// =============================================================================
// 💾 缓存指标记录
// =============================================================================

// RecordCacheHit 记录缓存命中
func (c *Collector) RecordCacheHit(cacheType string) {
	c.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (c *Collector) RecordCacheMiss(cacheType string) {
	c.cacheMisses.WithLabelValues(cacheType).Inc()
}

// =============================================================================
// 🔌 实时校验指标记录
// =============================================================================

// LiveSessionOpened 记录实时校验会话打开
func (c *Collector) LiveSessionOpened() {
	c.liveSessions.Inc()
}

// LiveSessionClosed 记录实时校验会话关闭
func (c *Collector) LiveSessionClosed() {
	c.liveSessions.Dec()
}

// RecordLiveMessage 记录一条实时校验消息
func (c *Collector) RecordLiveMessage(result string) {
	c.liveMessages.WithLabelValues(result).Inc()
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码转换为字符串
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
