// Package user 用户档案：资料修改、改密、公开档案
package user

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"recipe-admin/internal/apiserver/auth"
	"recipe-admin/internal/shared/apierr"
	"recipe-admin/internal/shared/model"
)

const maxNameLen = 50

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Store 用户处理器所需的最小存储接口
type Store interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUserProfile(ctx context.Context, user *model.User) error
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
	ListUsers(ctx context.Context) ([]*model.User, error)
}

// Handler 用户 API 处理器
type Handler struct {
	store Store
}

// NewHandler 创建用户处理器
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册用户路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("PUT /api/v1/users/profile", h.UpdateProfile)
	mux.HandleFunc("PUT /api/v1/users/password", h.ChangePassword)
	mux.HandleFunc("GET /api/v1/users/{id}/public", h.PublicProfile)
	mux.HandleFunc("GET /api/v1/admin/users", auth.AdminOnly(h.AdminList))
}

// AdminList GET /api/v1/admin/users（管理员，全部用户，按创建时间倒序）
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		log.Printf("[user] admin list failed: %v", err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "Failed to list users")
		return
	}
	apierr.WriteJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"count": len(users),
	})
}

type profileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl"`
}

// UpdateProfile PUT /api/v1/users/profile
//
// 邮箱改动时检查是否已被其他账号占用。Role/Active 不在此接口的可写范围内。
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if authUser == nil {
		apierr.Write(w, http.StatusUnauthorized, apierr.CodeUnauthorized, "Authentication required")
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, http.StatusBadRequest, apierr.CodeValidation, "Invalid request body")
		return
	}

	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	email := model.NormalizeEmail(req.Email)
	switch {
	case firstName == "" || utf8.RuneCountInString(firstName) > maxNameLen:
		apierr.Write(w, http.StatusBadRequest, apierr.CodeValidation, "First name must be between 1 and 50 characters")
		return
	case lastName == "" || utf8.RuneCountInString(lastName) > maxNameLen:
		apierr.Write(w, http.StatusBadRequest, apierr.CodeValidation, "Last name must be between 1 and 50 characters")
		return
	case !emailRegex.MatchString(email):
		apierr.Write(w, http.StatusBadRequest, apierr.CodeValidation, "Invalid email address")
		return
	}

	current, err := h.store.GetUserByID(r.Context(), authUser.ID)
	if err != nil {
		log.Printf("[user] load %s failed: %v", authUser.ID, err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "Failed to load profile")
		return
	}
	if current == nil {
		apierr.Write(w, http.StatusNotFound, apierr.CodeNotFound, "User not found")
		return
	}

	if email != current.Email {
		existing, err := h.store.GetUserByEmail(r.Context(), email)
		if err != nil {
			log.Printf("[user] email lookup failed: %v", err)
			apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "Failed to update profile")
			return
		}
		if existing != nil {
			apierr.Write(w, http.StatusBadRequest, apierr.CodeValidation, "Email already exists")
			return
		}
	}

	current.FirstName = firstName
	current.LastName = lastName
	current.Email = email
	current.AvatarURL = strings.TrimSpace(req.AvatarURL)
	if err := h.store.UpdateUserProfile(r.Context(), current); err != nil {
		log.Printf("[user] update profile %s failed: %v", authUser.ID, err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "Failed to update profile")
		return
	}

	apierr.WriteJSON(w, http.StatusOK, current)
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword PUT /api/v1/users/password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if authUser == nil {
		apierr.Write(w, http.StatusUnauthorized, apierr.CodeUnauthorized, "Authentication required")
		return
	}

	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, http.StatusBadRequest, apierr.CodeValidation, "Invalid request body")
		return
	}

	current, err := h.store.GetUserByID(r.Context(), authUser.ID)
	if err != nil {
		log.Printf("[user] load %s failed: %v", authUser.ID, err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "Failed to load profile")
		return
	}
	if current == nil {
		apierr.Write(w, http.StatusNotFound, apierr.CodeNotFound, "User not found")
		return
	}

	if !auth.CheckPassword(req.CurrentPassword, current.PasswordHash) {
		apierr.Write(w, http.StatusUnauthorized, apierr.CodeAuth, "Current password is incorrect")
		return
	}
	if err := auth.ValidatePasswordPolicy(req.NewPassword); err != nil {
		apierr.Write(w, http.StatusBadRequest, apierr.CodeValidation, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		log.Printf("[user] hash password failed: %v", err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "Failed to change password")
		return
	}
	if err := h.store.UpdateUserPassword(r.Context(), authUser.ID, hash); err != nil {
		log.Printf("[user] update password %s failed: %v", authUser.ID, err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "Failed to change password")
		return
	}

	apierr.WriteJSON(w, http.StatusOK, map[string]any{"message": "Password updated"})
}

// PublicProfile GET /api/v1/users/{id}/public（无需认证的窄视图）
func (h *Handler) PublicProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.store.GetUserByID(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[user] load %s failed: %v", r.PathValue("id"), err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "Failed to load profile")
		return
	}
	if u == nil || !u.Active {
		apierr.Write(w, http.StatusNotFound, apierr.CodeNotFound, "User not found")
		return
	}
	apierr.WriteJSON(w, http.StatusOK, u.Public())
}
