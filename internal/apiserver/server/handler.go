// Package server 路由配置与核心基础设施
//
// 本文件组装各领域独立包（auth/recipe/activity/user），并依次套上
// 指标、认证、CORS 中间件。WebSocket 路由绕过 metrics 中间件
// （避免 http.Hijacker 问题）。
package server

import (
	"context"
	"net/http"
	"time"

	"recipe-admin/internal/apiserver/activity"
	"recipe-admin/internal/apiserver/auth"
	"recipe-admin/internal/apiserver/recipe"
	"recipe-admin/internal/apiserver/user"
	"recipe-admin/internal/config"
	"recipe-admin/internal/shared/apierr"
	"recipe-admin/internal/shared/ratelimit"
	"recipe-admin/internal/shared/storage"
	"recipe-admin/pkg/logging"
)

// Handler API 处理器
//
// Handler 是所有 HTTP API 的入口，负责：
//   - 路由请求到各领域包的处理函数
//   - 持有存储层连接和速率限制器
//   - 协调审计记录器与 WebSocket 广播中心
type Handler struct {
	store   storage.PersistentStore
	cfg     *config.Config
	limiter ratelimit.Limiter

	hub      *activity.Hub
	recorder *activity.Recorder
	uploader recipe.ImageUploader
	metrics  *Metrics
	logger   *logging.Logger
}

// NewHandler 创建 Handler 实例
//
// limiter 为 nil 时认证接口不限流（测试环境）。
// uploader 为 nil 时图片仅支持外链 imageUrl。
func NewHandler(store storage.PersistentStore, cfg *config.Config, limiter ratelimit.Limiter, uploader recipe.ImageUploader) *Handler {
	return NewHandlerWithMetrics(store, cfg, limiter, uploader, NewMetrics("recipeadmin"))
}

// NewHandlerWithMetrics 使用外部指标实例创建 Handler
// promauto 注册到默认注册表且不允许重复，多实例场景（测试）需共享一套指标
func NewHandlerWithMetrics(store storage.PersistentStore, cfg *config.Config, limiter ratelimit.Limiter, uploader recipe.ImageUploader, metrics *Metrics) *Handler {
	h := &Handler{
		store:    store,
		cfg:      cfg,
		limiter:  limiter,
		uploader: uploader,
		metrics:  metrics,
		logger:   logging.Default("api-server"),
	}
	h.hub = activity.NewHub()
	h.recorder = activity.NewRecorder(store, h.hub)
	h.hub.SetMetrics(h.metrics.WSConnectionsActive, h.metrics.WSBroadcastsTotal)
	h.recorder.SetMetrics(h.metrics.AuditEventsTotal, h.metrics.AuditFailuresTotal)
	return h
}

// Hub 返回 WebSocket 广播中心（测试与运维用）
func (h *Handler) Hub() *activity.Hub {
	return h.hub
}

// GetMetrics 返回指标实例
func (h *Handler) GetMetrics() *Metrics {
	return h.metrics
}

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查:
//   - GET /health - 服务健康检查
//   - GET /metrics - Prometheus 指标
//
// 认证 (Auth):
//   - POST /api/v1/auth/register / login / request-otp / verify-otp（限流）
//   - GET  /api/v1/auth/me, /api/v1/auth/admin/me
//   - POST /api/v1/auth/logout
//
// 食谱 (Recipe):
//   - GET    /api/v1/recipes              - 公开列表
//   - GET    /api/v1/recipes/mine         - 我的食谱
//   - GET    /api/v1/recipes/admin/all    - 管理员全量列表
//   - GET    /api/v1/recipes/trash        - 回收站
//   - POST   /api/v1/recipes              - 创建
//   - GET/PUT/DELETE /api/v1/recipes/{id} - 读取/更新/软删除
//   - POST   /api/v1/recipes/{id}/restore - 恢复
//   - POST   /api/v1/recipes/bulk-delete / bulk-restore
//   - DELETE /api/v1/recipes/{id}/purge, /api/v1/admin/recipes/{id}
//   - POST   /api/v1/recipes/{id}/image   - 图片上传
//
// 用户 (User):
//   - PUT /api/v1/users/profile, /api/v1/users/password
//   - GET /api/v1/users/{id}/public
//   - GET /api/v1/admin/users             - 管理员用户列表
//
// 审计 (Activity):
//   - GET /api/v1/activities?limit=
//
// WebSocket:
//   - GET /ws/activity-feed - 实时审计广播
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)
	mux.Handle("GET /metrics", MetricsHandler())

	authCfg := auth.Config{
		JWTSecret: h.cfg.Auth.JWTSecret,
		TokenTTL:  h.cfg.Auth.TokenTTL,
		OTPTTL:    h.cfg.Auth.OTPTTL,
	}
	authHandler := auth.NewHandler(h.store, authCfg, h.limiter, h.cfg.IsDev())
	authHandler.RegisterRoutes(mux)

	recipeHandler := recipe.NewHandler(h.store, h.recorder, h.uploader, h.cfg.Limits.BulkMax)
	recipeHandler.SetMetrics(h.metrics.RecipesActive)
	recipeHandler.RefreshActiveCount(context.Background())
	recipeHandler.RegisterRoutes(mux)

	userHandler := user.NewHandler(h.store)
	userHandler.RegisterRoutes(mux)

	activityHandler := activity.NewHandler(h.store, h.cfg.Limits.ActivityLimitDefault, h.cfg.Limits.ListMax)
	activityHandler.RegisterRoutes(mux)

	// REST 链路：access log -> metrics -> auth -> CORS
	apiHandler := h.loggingMiddleware(h.metrics.MetricsMiddleware(mux))
	authedHandler := auth.Middleware(authCfg)(apiHandler)
	corsHandler := corsMiddleware(authedHandler)

	topMux := http.NewServeMux()
	h.hub.RegisterRoutes(topMux)
	topMux.Handle("/", corsHandler)
	return topMux
}

// Health 健康检查接口
//
// 路由: GET /health
//
// 用于负载均衡器和监控系统检查服务状态。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	apierr.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// loggingMiddleware 结构化访问日志
func (h *Handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		h.logger.HTTPRequestLog(r.Method, r.URL.Path, wrapped.statusCode, time.Since(start), r.RemoteAddr)
	})
}

// corsMiddleware 添加 CORS 头支持跨域请求
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
