package activity

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"recipe-admin/internal/shared/apierr"
	"recipe-admin/internal/shared/model"
)

// FeedStore 活动查询所需的最小存储接口
type FeedStore interface {
	ListRecentActivities(ctx context.Context, limit int) ([]*model.Activity, error)
}

// Handler 活动流 HTTP 处理器
type Handler struct {
	store        FeedStore
	defaultLimit int
	maxLimit     int
}

// NewHandler 创建活动流处理器
func NewHandler(store FeedStore, defaultLimit, maxLimit int) *Handler {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &Handler{store: store, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// RegisterRoutes 注册活动流路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/activities", h.Recent)
}

// Recent 返回最近的活动记录，按时间倒序
//
// limit 缺省 20，非法值回退缺省，范围钳制到 [1, 100]
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := h.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = h.defaultLimit
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}

	activities, err := h.store.ListRecentActivities(r.Context(), limit)
	if err != nil {
		log.Printf("[activity] list recent error: %v", err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "failed to load activities")
		return
	}

	apierr.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"activities": activities,
		"count":      len(activities),
	})
}
