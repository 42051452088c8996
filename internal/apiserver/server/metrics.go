// Prometheus 指标导出
package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 包含所有 API Server 指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// 业务指标
	RecipesActive      prometheus.Gauge
	AuditEventsTotal   *prometheus.CounterVec
	AuditFailuresTotal prometheus.Counter
	RateLimitHitsTotal prometheus.Counter

	// WebSocket 指标
	WSConnectionsActive prometheus.Gauge
	WSBroadcastsTotal   prometheus.Counter
}

// NewMetrics 创建指标实例
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		RecipesActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "recipes_active",
				Help:      "Number of active (non-trashed) recipes",
			},
		),
		AuditEventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audit_events_total",
				Help:      "Total audit events recorded",
			},
			[]string{"action"},
		),
		AuditFailuresTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audit_failures_total",
				Help:      "Audit records that failed to persist",
			},
		),
		RateLimitHitsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_hits_total",
				Help:      "Requests rejected by the auth rate limiter",
			},
		),
		WSConnectionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "websocket_connections_active",
				Help:      "Active WebSocket connections",
			},
		),
		WSBroadcastsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "websocket_broadcasts_total",
				Help:      "Total activity broadcasts sent over WebSocket",
			},
		),
	}
}

// MetricsMiddleware 创建 HTTP 指标中间件
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		// 包装 ResponseWriter 以捕获状态码
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)
		status := strconv.Itoa(wrapped.statusCode)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)

		if wrapped.statusCode == http.StatusTooManyRequests {
			m.RateLimitHitsTotal.Inc()
		}
	})
}

// responseWriter 包装 http.ResponseWriter 以捕获状态码
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// 固定路径集合（含 /mine、/trash 等字面量子路由），不做 ID 归一化
var staticRecipePaths = map[string]bool{
	"/api/v1/recipes":              true,
	"/api/v1/recipes/mine":         true,
	"/api/v1/recipes/admin/all":    true,
	"/api/v1/recipes/trash":        true,
	"/api/v1/recipes/bulk-delete":  true,
	"/api/v1/recipes/bulk-restore": true,
}

// normalizePath 规范化路径，将 ID 替换为占位符，避免高基数标签
// 例如 /api/v1/recipes/rcp-a1b2c3 -> /api/v1/recipes/{id}
func normalizePath(path string) string {
	switch {
	case staticRecipePaths[path]:
		return path
	case strings.HasPrefix(path, "/api/v1/admin/recipes/"):
		return "/api/v1/admin/recipes/{id}"
	case strings.HasPrefix(path, "/api/v1/recipes/"):
		rest := strings.TrimPrefix(path, "/api/v1/recipes/")
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			return "/api/v1/recipes/{id}/" + rest[i+1:]
		}
		return "/api/v1/recipes/{id}"
	case strings.HasPrefix(path, "/api/v1/users/") && strings.HasSuffix(path, "/public"):
		return "/api/v1/users/{id}/public"
	default:
		return path
	}
}

// MetricsHandler 返回 Prometheus HTTP Handler
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
