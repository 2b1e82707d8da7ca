package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/botflow/internal/metrics"
	"github.com/BaSui01/botflow/types"
)

var middlewareNamespaceSeq uint64

func nextTestNamespace() string {
	return fmt.Sprintf("mw_test_%d", atomic.AddUint64(&middlewareNamespaceSeq, 1))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SecurityHeaders()(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.Equal(t, "default-src 'none'", w.Header().Get("Content-Security-Policy"))
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(okHandler(), mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestRequestID(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = types.RequestID(r.Context())
	})

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		RequestID()(inner).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		assert.Equal(t, w.Header().Get("X-Request-ID"), seen)
	})

	t.Run("preserved", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Request-ID", "req-42")
		w := httptest.NewRecorder()
		RequestID()(inner).ServeHTTP(w, r)
		assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
		assert.Equal(t, "req-42", seen)
	})

	t.Run("oversized replaced", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Request-ID", strings.Repeat("x", 200))
		w := httptest.NewRecorder()
		RequestID()(inner).ServeHTTP(w, r)
		assert.Len(t, w.Header().Get("X-Request-ID"), 36)
	})
}

func TestRecovery(t *testing.T) {
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	Recovery(zap.NewNop())(panicking).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), string(types.ErrInternalError))
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		origin     string
		preflight  bool
		wantStatus int
		wantHeader string
	}{
		{name: "no config", allowed: nil, origin: "https://a.example", wantStatus: http.StatusOK},
		{name: "allowed origin", allowed: []string{"https://a.example"}, origin: "https://a.example", wantStatus: http.StatusOK, wantHeader: "https://a.example"},
		{name: "wildcard", allowed: []string{"*"}, origin: "https://b.example", wantStatus: http.StatusOK, wantHeader: "https://b.example"},
		{name: "disallowed origin", allowed: []string{"https://a.example"}, origin: "https://evil.example", wantStatus: http.StatusOK},
		{name: "allowed preflight", allowed: []string{"https://a.example"}, origin: "https://a.example", preflight: true, wantStatus: http.StatusNoContent, wantHeader: "https://a.example"},
		{name: "disallowed preflight", allowed: []string{"https://a.example"}, origin: "https://evil.example", preflight: true, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := http.MethodGet
			if tt.preflight {
				method = http.MethodOptions
			}
			r := httptest.NewRequest(method, "/api/v1/node-types", nil)
			r.Header.Set("Origin", tt.origin)
			if tt.preflight {
				r.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			w := httptest.NewRecorder()
			CORS(tt.allowed)(okHandler()).ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantHeader, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestBodyLimit(t *testing.T) {
	var readErr error
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	})

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("a", 64)))
	BodyLimit(16)(inner).ServeHTTP(httptest.NewRecorder(), r)
	var maxErr *http.MaxBytesError
	assert.ErrorAs(t, readErr, &maxErr)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small"))
	BodyLimit(16)(inner).ServeHTTP(httptest.NewRecorder(), r)
	assert.NoError(t, readErr)
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := RateLimiter(ctx, 0.5, 2, zap.NewNop())(okHandler())

	do := func(remote string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = remote
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1001").Code)

	limited := do("10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "2", limited.Header().Get("Retry-After"))
	assert.Contains(t, limited.Body.String(), string(types.ErrRateLimited))

	// 其他 IP 不受影响
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1000").Code)
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 1, retryAfter(0))
	assert.Equal(t, 1, retryAfter(10))
	assert.Equal(t, 4, retryAfter(0.25))
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/health", normalizePath("/health"))
	assert.Equal(t, "/api/v1/blueprints/compile", normalizePath("/api/v1/blueprints/compile"))
	assert.Equal(t, "/api/v1/node-types/:type", normalizePath("/api/v1/node-types/reply.text"))
	assert.Equal(t, "other", normalizePath("/wp-admin/config.php"))
}

func TestMetricsMiddleware(t *testing.T) {
	ns := nextTestNamespace()
	collector := metrics.NewCollector(ns, zap.NewNop())
	h := Metrics(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	expected := fmt.Sprintf(`
# HELP %[1]s_http_requests_total Total number of HTTP requests
# TYPE %[1]s_http_requests_total counter
%[1]s_http_requests_total{method="GET",path="/health",status="2xx"} 2
%[1]s_http_requests_total{method="GET",path="other",status="4xx"} 1
`, ns)
	require.NoError(t, testutil.GatherAndCompare(prometheus.DefaultGatherer, strings.NewReader(expected), ns+"_http_requests_total"))
}
