package recipe

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"recipe-admin/internal/apiserver/activity"
	"recipe-admin/internal/apiserver/auth"
	"recipe-admin/internal/shared/apierr"
	"recipe-admin/internal/shared/model"
	"recipe-admin/internal/shared/storage"
)

// maxImageSize 图片上传大小上限
const maxImageSize = 10 << 20

// defaultBulkMax 单次批量操作的 id 数量上限
const defaultBulkMax = 100

// Store 食谱处理器所需的最小存储接口
type Store interface {
	CreateRecipe(ctx context.Context, recipe *model.Recipe) error
	GetRecipe(ctx context.Context, id string) (*model.Recipe, error)
	UpdateRecipe(ctx context.Context, recipe *model.Recipe) error
	ListActiveRecipes(ctx context.Context, ownerID string) ([]*model.Recipe, error)
	ListTrashedRecipes(ctx context.Context, ownerID string) ([]*model.Recipe, error)
	FindActiveByTitle(ctx context.Context, ownerID, titleLC string) (*model.Recipe, error)
	SetRecipeDeleted(ctx context.Context, id string, deletedAt *time.Time) error
	DeleteRecipe(ctx context.Context, id string) error
	CountActiveRecipes(ctx context.Context) (int, error)
}

// ImageUploader 图片对象存储接口（可选，未配置时仅支持 imageUrl 字段）
type ImageUploader interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
}

// Handler 食谱 API 处理器
type Handler struct {
	store    Store
	recorder *activity.Recorder
	uploader ImageUploader
	bulkMax  int

	// 可选指标：活跃食谱数量
	activeGauge prometheus.Gauge
}

// NewHandler 创建食谱处理器。uploader 可为 nil。
func NewHandler(store Store, recorder *activity.Recorder, uploader ImageUploader, bulkMax int) *Handler {
	if bulkMax <= 0 {
		bulkMax = defaultBulkMax
	}
	return &Handler{store: store, recorder: recorder, uploader: uploader, bulkMax: bulkMax}
}

// SetMetrics 注入活跃食谱数量指标
func (h *Handler) SetMetrics(activeGauge prometheus.Gauge) {
	h.activeGauge = activeGauge
}

// RefreshActiveCount 重算活跃食谱数量指标
//
// 启动时由组装层调用一次建立初值，此后每次改变活跃集合的变更后刷新。
func (h *Handler) RefreshActiveCount(ctx context.Context) {
	if h.activeGauge == nil {
		return
	}
	n, err := h.store.CountActiveRecipes(ctx)
	if err != nil {
		log.Printf("[recipe] count for metrics failed: %v", err)
		return
	}
	h.activeGauge.Set(float64(n))
}

// RegisterRoutes 注册食谱路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/recipes", h.ListPublic)
	mux.HandleFunc("GET /api/v1/recipes/mine", h.ListMine)
	mux.HandleFunc("GET /api/v1/recipes/admin/all", auth.AdminOnly(h.AdminListAll))
	mux.HandleFunc("GET /api/v1/recipes/trash", h.ListTrash)
	mux.HandleFunc("GET /api/v1/recipes/{id}", h.Get)
	mux.HandleFunc("POST /api/v1/recipes", h.Create)
	mux.HandleFunc("PUT /api/v1/recipes/{id}", h.Update)
	mux.HandleFunc("DELETE /api/v1/recipes/{id}", h.SoftDelete)
	mux.HandleFunc("POST /api/v1/recipes/{id}/restore", h.Restore)
	mux.HandleFunc("POST /api/v1/recipes/bulk-delete", h.BulkDelete)
	mux.HandleFunc("POST /api/v1/recipes/bulk-restore", h.BulkRestore)
	mux.HandleFunc("DELETE /api/v1/recipes/{id}/purge", h.Purge)
	mux.HandleFunc("DELETE /api/v1/admin/recipes/{id}", auth.AdminOnly(h.AdminDelete))
	mux.HandleFunc("POST /api/v1/recipes/{id}/image", h.UploadImage)
}

// ============================================================================
// 列表
// ============================================================================

// ListPublic GET /api/v1/recipes（公开，所有用户的活跃食谱）
func (h *Handler) ListPublic(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.store.ListActiveRecipes(r.Context(), "")
	if err != nil {
		log.Printf("[recipe] list public failed: %v", err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "Failed to list recipes")
		return
	}
	writeRecipeList(w, recipes)
}

// ListMine GET /api/v1/recipes/mine（当前用户的活跃食谱）
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		apierr.Write(w, http.StatusUnauthorized, apierr.CodeUnauthorized, "Authentication required")
		return
	}
	recipes, err := h.store.ListActiveRecipes(r.Context(), user.ID)
	if err != nil {
		log.Printf("[recipe] list mine for %s failed: %v", user.ID, err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "Failed to list recipes")
		return
	}
	writeRecipeList(w, recipes)
}

// AdminListAll GET /api/v1/recipes/admin/all（管理员，所有活跃食谱及总数）
func (h *Handler) AdminListAll(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.store.ListActiveRecipes(r.Context(), "")
	if err != nil {
		log.Printf("[recipe] admin list failed: %v", err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "Failed to list recipes")
		return
	}
	total, err := h.store.CountActiveRecipes(r.Context())
	if err != nil {
		log.Printf("[recipe] count failed: %v", err)
		total = len(recipes)
	}
	apierr.WriteJSON(w, http.StatusOK, map[string]any{
		"recipes": recipes,
		"count":   total,
	})
}

// ListTrash GET /api/v1/recipes/trash（普通用户看自己的，管理员看全部）
func (h *Handler) ListTrash(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		apierr.Write(w, http.StatusUnauthorized, apierr.CodeUnauthorized, "Authentication required")
		return
	}
	ownerID := user.ID
	if user.IsAdmin() {
		ownerID = ""
	}
	recipes, err := h.store.ListTrashedRecipes(r.Context(), ownerID)
	if err != nil {
		log.Printf("[recipe] list trash for %s failed: %v", user.ID, err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "Failed to list trash")
		return
	}
	writeRecipeList(w, recipes)
}

// Get GET /api/v1/recipes/{id}（活跃记录，所有者或管理员）
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		apierr.Write(w, http.StatusUnauthorized, apierr.CodeUnauthorized, "Authentication required")
		return
	}
	rec, ok := h.loadActive(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	if !h.canAccess(user, rec) {
		apierr.Write(w, http.StatusForbidden, apierr.CodeForbidden, "Not allowed to access this recipe")
		return
	}
	apierr.WriteJSON(w, http.StatusOK, rec)
}

// ============================================================================
// 创建与更新
// ============================================================================

// Create POST /api/v1/recipes
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		apierr.Write(w, http.StatusUnauthorized, apierr.CodeUnauthorized, "Authentication required")
		return
	}

	var req recipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, http.StatusBadRequest, apierr.CodeValidation, "Invalid request body")
		return
	}

	now := time.Now().UTC()
	rec := &model.Recipe{
		ID:        generateID("rcp"),
		UserID:    user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyRequest(rec, &req)

	if rec.Title == "" || rec.Description == "" {
		apierr.Write(w, http.StatusBadRequest, apierr.CodeValidation, "Title and description are required")
		return
	}

	if conflict := h.findCollision(r.Context(), user.ID, rec.TitleLC, ""); conflict != nil {
		writeDuplicate(w, conflict)
		return
	}

	if err := h.store.CreateRecipe(r.Context(), rec); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeDuplicate(w, rec)
			return
		}
		log.Printf("[recipe] create failed: %v", err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "Failed to create recipe")
		return
	}

	h.recorder.RecordBestEffort(r.Context(), user.ID, model.ActionCreated, rec)
	h.RefreshActiveCount(r.Context())
	apierr.WriteJSON(w, http.StatusCreated, rec)
}

// Update PUT /api/v1/recipes/{id}
//
// 重复检测排除自身 id，作用域是食谱所有者而不是发起请求的用户
// （管理员编辑他人食谱时不能撞上该所有者名下的其他标题）。
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		apierr.Write(w, http.StatusUnauthorized, apierr.CodeUnauthorized, "Authentication required")
		return
	}
	rec, ok := h.loadActive(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	if !h.canAccess(user, rec) {
		apierr.Write(w, http.StatusForbidden, apierr.CodeForbidden, "Not allowed to modify this recipe")
		return
	}

	var req recipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, http.StatusBadRequest, apierr.CodeValidation, "Invalid request body")
		return
	}

	applyRequest(rec, &req)
	if rec.Title == "" || rec.Description == "" {
		apierr.Write(w, http.StatusBadRequest, apierr.CodeValidation, "Title and description are required")
		return
	}

	if conflict := h.findCollision(r.Context(), rec.UserID, rec.TitleLC, rec.ID); conflict != nil {
		writeDuplicate(w, conflict)
		return
	}

	rec.UpdatedAt = time.Now().UTC()
	if err := h.store.UpdateRecipe(r.Context(), rec); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeDuplicate(w, rec)
			return
		}
		if errors.Is(err, storage.ErrNotFound) {
			apierr.Write(w, http.StatusNotFound, apierr.CodeNotFound, "Recipe not found")
			return
		}
		log.Printf("[recipe] update %s failed: %v", rec.ID, err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "Failed to update recipe")
		return
	}

	h.recorder.RecordBestEffort(r.Context(), user.ID, model.ActionUpdated, rec)
	apierr.WriteJSON(w, http.StatusOK, rec)
}

// ============================================================================
// 回收站
// ============================================================================

// SoftDelete DELETE /api/v1/recipes/{id}（移入回收站）
func (h *Handler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		apierr.Write(w, http.StatusUnauthorized, apierr.CodeUnauthorized, "Authentication required")
		return
	}
	rec, ok := h.loadActive(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	if !h.canAccess(user, rec) {
		apierr.Write(w, http.StatusForbidden, apierr.CodeForbidden, "Not allowed to delete this recipe")
		return
	}

	now := time.Now().UTC()
	if err := h.store.SetRecipeDeleted(r.Context(), rec.ID, &now); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			apierr.Write(w, http.StatusNotFound, apierr.CodeNotFound, "Recipe not found")
			return
		}
		log.Printf("[recipe] soft delete %s failed: %v", rec.ID, err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "Failed to delete recipe")
		return
	}

	h.recorder.RecordBestEffort(r.Context(), user.ID, model.ActionDeleted, rec)
	h.RefreshActiveCount(r.Context())
	apierr.WriteJSON(w, http.StatusOK, map[string]any{"message": "Recipe moved to trash", "id": rec.ID})
}

// Restore POST /api/v1/recipes/{id}/restore（从回收站恢复，不产生审计记录）
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		apierr.Write(w, http.StatusUnauthorized, apierr.CodeUnauthorized, "Authentication required")
		return
	}

	rec, err := h.store.GetRecipe(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[recipe] load %s failed: %v", r.PathValue("id"), err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "Failed to load recipe")
		return
	}
	// 不在回收站的记录对恢复操作视同不存在
	if rec == nil || !rec.IsTrashed() {
		apierr.Write(w, http.StatusNotFound, apierr.CodeNotFound, "Recipe not found in trash")
		return
	}
	if !h.canAccess(user, rec) {
		apierr.Write(w, http.StatusForbidden, apierr.CodeForbidden, "Not allowed to restore this recipe")
		return
	}

	// 回收站期间标题可能已被复用，恢复前先做重复检测，唯一索引兜底竞争
	if conflict := h.findCollision(r.Context(), rec.UserID, rec.TitleLC, rec.ID); conflict != nil {
		writeDuplicate(w, conflict)
		return
	}

	if err := h.store.SetRecipeDeleted(r.Context(), rec.ID, nil); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeDuplicate(w, rec)
			return
		}
		if errors.Is(err, storage.ErrNotFound) {
			apierr.Write(w, http.StatusNotFound, apierr.CodeNotFound, "Recipe not found in trash")
			return
		}
		log.Printf("[recipe] restore %s failed: %v", rec.ID, err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "Failed to restore recipe")
		return
	}

	rec.DeletedAt = nil
	h.RefreshActiveCount(r.Context())
	apierr.WriteJSON(w, http.StatusOK, rec)
}

// ============================================================================
// 批量操作
// ============================================================================

type bulkRequest struct {
	IDs []string `json:"ids"`
}

// BulkDelete POST /api/v1/recipes/bulk-delete
//
// 逐条处理，单条失败（不存在、无权限、已在回收站）静默跳过，
// 响应只报告成功的 id。每条成功的删除单独产生审计记录。
func (h *Handler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	user, ids, ok := h.decodeBulk(w, r)
	if !ok {
		return
	}

	now := time.Now().UTC()
	succeeded := make([]string, 0, len(ids))
	for _, id := range ids {
		rec, err := h.store.GetRecipe(r.Context(), id)
		if err != nil || rec == nil || rec.IsTrashed() || !h.canAccess(user, rec) {
			continue
		}
		if err := h.store.SetRecipeDeleted(r.Context(), id, &now); err != nil {
			log.Printf("[recipe] bulk delete %s failed: %v", id, err)
			continue
		}
		h.recorder.RecordBestEffort(r.Context(), user.ID, model.ActionDeleted, rec)
		succeeded = append(succeeded, id)
	}
	h.RefreshActiveCount(r.Context())

	apierr.WriteJSON(w, http.StatusOK, map[string]any{
		"succeeded": succeeded,
		"count":     len(succeeded),
	})
}

// BulkRestore POST /api/v1/recipes/bulk-restore（与恢复一致，不产生审计记录）
func (h *Handler) BulkRestore(w http.ResponseWriter, r *http.Request) {
	user, ids, ok := h.decodeBulk(w, r)
	if !ok {
		return
	}

	succeeded := make([]string, 0, len(ids))
	for _, id := range ids {
		rec, err := h.store.GetRecipe(r.Context(), id)
		if err != nil || rec == nil || !rec.IsTrashed() || !h.canAccess(user, rec) {
			continue
		}
		if conflict := h.findCollision(r.Context(), rec.UserID, rec.TitleLC, rec.ID); conflict != nil {
			continue
		}
		if err := h.store.SetRecipeDeleted(r.Context(), id, nil); err != nil {
			log.Printf("[recipe] bulk restore %s failed: %v", id, err)
			continue
		}
		succeeded = append(succeeded, id)
	}
	h.RefreshActiveCount(r.Context())

	apierr.WriteJSON(w, http.StatusOK, map[string]any{
		"succeeded": succeeded,
		"count":     len(succeeded),
	})
}

func (h *Handler) decodeBulk(w http.ResponseWriter, r *http.Request) (*auth.AuthUser, []string, bool) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		apierr.Write(w, http.StatusUnauthorized, apierr.CodeUnauthorized, "Authentication required")
		return nil, nil, false
	}
	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, http.StatusBadRequest, apierr.CodeValidation, "Invalid request body")
		return nil, nil, false
	}
	if len(req.IDs) == 0 {
		apierr.Write(w, http.StatusBadRequest, apierr.CodeValidation, "ids is required")
		return nil, nil, false
	}
	if len(req.IDs) > h.bulkMax {
		apierr.WriteDetails(w, http.StatusBadRequest, apierr.CodeValidation,
			fmt.Sprintf("Too many ids, maximum is %d", h.bulkMax),
			map[string]any{"max": h.bulkMax, "got": len(req.IDs)})
		return nil, nil, false
	}
	return user, req.IDs, true
}

// ============================================================================
// 硬删除
// ============================================================================

// Purge DELETE /api/v1/recipes/{id}/purge（永久删除，审计记录保留）
func (h *Handler) Purge(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		apierr.Write(w, http.StatusUnauthorized, apierr.CodeUnauthorized, "Authentication required")
		return
	}

	rec, err := h.store.GetRecipe(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[recipe] load %s failed: %v", r.PathValue("id"), err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "Failed to load recipe")
		return
	}
	if rec == nil {
		apierr.Write(w, http.StatusNotFound, apierr.CodeNotFound, "Recipe not found")
		return
	}
	if !h.canAccess(user, rec) {
		apierr.Write(w, http.StatusForbidden, apierr.CodeForbidden, "Not allowed to purge this recipe")
		return
	}
	h.hardDelete(w, r, user, rec)
}

// AdminDelete DELETE /api/v1/admin/recipes/{id}（管理员硬删除任意食谱）
func (h *Handler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())
	rec, err := h.store.GetRecipe(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[recipe] load %s failed: %v", r.PathValue("id"), err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "Failed to load recipe")
		return
	}
	if rec == nil {
		apierr.Write(w, http.StatusNotFound, apierr.CodeNotFound, "Recipe not found")
		return
	}
	h.hardDelete(w, r, user, rec)
}

func (h *Handler) hardDelete(w http.ResponseWriter, r *http.Request, user *auth.AuthUser, rec *model.Recipe) {
	if err := h.store.DeleteRecipe(r.Context(), rec.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			apierr.Write(w, http.StatusNotFound, apierr.CodeNotFound, "Recipe not found")
			return
		}
		log.Printf("[recipe] purge %s failed: %v", rec.ID, err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "Failed to delete recipe")
		return
	}
	h.recorder.RecordBestEffort(r.Context(), user.ID, model.ActionDeleted, rec)
	h.RefreshActiveCount(r.Context())
	apierr.WriteJSON(w, http.StatusOK, map[string]any{"message": "Recipe permanently deleted", "id": rec.ID})
}

// ============================================================================
// 图片上传
// ============================================================================

// UploadImage POST /api/v1/recipes/{id}/image（multipart，字段名 image）
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		apierr.Write(w, http.StatusUnauthorized, apierr.CodeUnauthorized, "Authentication required")
		return
	}
	if h.uploader == nil {
		apierr.Write(w, http.StatusServiceUnavailable, apierr.CodeServer, "Image storage is not configured")
		return
	}
	rec, ok := h.loadActive(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	if !h.canAccess(user, rec) {
		apierr.Write(w, http.StatusForbidden, apierr.CodeForbidden, "Not allowed to modify this recipe")
		return
	}

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		apierr.Write(w, http.StatusBadRequest, apierr.CodeValidation, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		apierr.Write(w, http.StatusBadRequest, apierr.CodeValidation, "image file is required")
		return
	}
	defer file.Close()

	key := fmt.Sprintf("recipes/%s/%s%s", rec.ID, generateID("img"), path.Ext(header.Filename))
	url, err := h.uploader.Upload(r.Context(), key, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		log.Printf("[recipe] upload image for %s failed: %v", rec.ID, err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "Failed to store image")
		return
	}

	rec.ImageURL = url
	rec.UpdatedAt = time.Now().UTC()
	if err := h.store.UpdateRecipe(r.Context(), rec); err != nil {
		log.Printf("[recipe] save image url for %s failed: %v", rec.ID, err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "Failed to update recipe")
		return
	}

	h.recorder.RecordBestEffort(r.Context(), user.ID, model.ActionUpdated, rec)
	apierr.WriteJSON(w, http.StatusOK, map[string]any{"image_url": url, "id": rec.ID})
}

// ============================================================================
// 辅助
// ============================================================================

// loadActive 加载活跃食谱；不存在或已在回收站时写 404 并返回 false
func (h *Handler) loadActive(w http.ResponseWriter, r *http.Request, id string) (*model.Recipe, bool) {
	rec, err := h.store.GetRecipe(r.Context(), id)
	if err != nil {
		log.Printf("[recipe] load %s failed: %v", id, err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "Failed to load recipe")
		return nil, false
	}
	if rec == nil || rec.IsTrashed() {
		apierr.Write(w, http.StatusNotFound, apierr.CodeNotFound, "Recipe not found")
		return nil, false
	}
	return rec, true
}

func (h *Handler) canAccess(user *auth.AuthUser, rec *model.Recipe) bool {
	return user.IsAdmin() || rec.OwnedBy(user.ID)
}

// findCollision 查找同一所有者名下占用该标题的另一条活跃食谱
func (h *Handler) findCollision(ctx context.Context, ownerID, titleLC, excludeID string) *model.Recipe {
	if titleLC == "" {
		return nil
	}
	existing, err := h.store.FindActiveByTitle(ctx, ownerID, titleLC)
	if err != nil {
		log.Printf("[recipe] duplicate lookup failed: %v", err)
		return nil
	}
	if existing == nil || existing.ID == excludeID {
		return nil
	}
	return existing
}

func writeDuplicate(w http.ResponseWriter, existing *model.Recipe) {
	apierr.WriteDetails(w, http.StatusConflict, apierr.CodeDuplicate,
		"You already have a recipe with this title",
		map[string]any{"existing_title": existing.Title})
}

func writeRecipeList(w http.ResponseWriter, recipes []*model.Recipe) {
	apierr.WriteJSON(w, http.StatusOK, map[string]any{
		"recipes": recipes,
		"count":   len(recipes),
	})
}

func generateID(prefix string) string {
	b := make([]byte, 6)
	rand.Read(b)
	return prefix + "-" + hex.EncodeToString(b)
}
