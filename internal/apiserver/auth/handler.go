package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"recipe-admin/internal/shared/apierr"
	"recipe-admin/internal/shared/model"
	"recipe-admin/internal/shared/ratelimit"
	"recipe-admin/internal/shared/storage"
)

// maxAuthPayload 认证请求体上限，超限在解码前拒绝
const maxAuthPayload = 10 << 10 // 10KB

// UserStore 用户存储接口
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
	SetUserOTP(ctx context.Context, id string, otp *string, expiresAt *time.Time) error
}

// Handler 认证 HTTP 处理器
type Handler struct {
	store   UserStore
	cfg     Config
	limiter ratelimit.Limiter
	devMode bool // dev 环境下 OTP 打到日志，方便联调
}

// NewHandler 创建认证处理器
func NewHandler(store UserStore, cfg Config, limiter ratelimit.Limiter, devMode bool) *Handler {
	if limiter == nil {
		limiter = ratelimit.NoopLimiter{}
	}
	return &Handler{store: store, cfg: cfg, limiter: limiter, devMode: devMode}
}

// RegisterRoutes 注册认证相关路由
// 写操作全部套限流，读自身信息不限
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/register", h.withRateLimit(h.Register))
	mux.HandleFunc("POST /api/v1/auth/login", h.withRateLimit(h.Login))
	mux.HandleFunc("POST /api/v1/auth/request-otp", h.withRateLimit(h.RequestOTP))
	mux.HandleFunc("POST /api/v1/auth/verify-otp", h.withRateLimit(h.VerifyOTP))
	mux.HandleFunc("GET /api/v1/auth/me", h.Me)
	mux.HandleFunc("GET /api/v1/auth/admin/me", AdminOnly(h.AdminMe))
	mux.HandleFunc("POST /api/v1/auth/logout", h.Logout)
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type registerRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type otpRequest struct {
	Email string `json:"email"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type authResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// ============================================================================
// 限流
// ============================================================================

// withRateLimit 对认证写操作按客户端 IP 限流
func (h *Handler) withRateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, retryAfter, err := h.limiter.Allow(r.Context(), clientIP(r))
		if err != nil {
			// 限流器故障不应阻断登录，记录后放行
			log.Printf("[auth] rate limiter error: %v", err)
			next(w, r)
			return
		}
		if !ok {
			seconds := int(retryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			apierr.Write(w, http.StatusTooManyRequests, apierr.CodeRateLimited,
				"too many requests, please try again later")
			return
		}
		next(w, r)
	}
}

// clientIP 提取客户端 IP：优先 X-Forwarded-For 首个条目
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			fwd = fwd[:idx]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// decodeAuthBody 解码认证请求体，超过 10KB 返回 413
func decodeAuthBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxAuthPayload)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apierr.Write(w, http.StatusRequestEntityTooLarge, apierr.CodePayloadLarge,
				"request payload too large")
			return false
		}
		apierr.Write(w, http.StatusBadRequest, apierr.CodeValidation, "invalid request body")
		return false
	}
	return true
}

// ============================================================================
// Handlers
// ============================================================================

// Register 用户注册
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeAuthBody(w, r, &req) {
		return
	}

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = model.NormalizeEmail(req.Email)

	if n := len(req.FirstName); n < 1 || n > 50 {
		apierr.Write(w, http.StatusBadRequest, apierr.CodeValidation, "firstName must be 1-50 characters")
		return
	}
	if n := len(req.LastName); n < 1 || n > 50 {
		apierr.Write(w, http.StatusBadRequest, apierr.CodeValidation, "lastName must be 1-50 characters")
		return
	}
	if !isValidEmail(req.Email) {
		apierr.Write(w, http.StatusBadRequest, apierr.CodeValidation, "invalid email format")
		return
	}
	if err := ValidatePasswordPolicy(req.Password); err != nil {
		apierr.Write(w, http.StatusBadRequest, apierr.CodeValidation, err.Error())
		return
	}
	if req.Password != req.ConfirmPassword {
		apierr.Write(w, http.StatusBadRequest, apierr.CodeValidation, "passwords do not match")
		return
	}

	// 检查邮箱是否已注册
	existing, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("[auth.register] GetUserByEmail error: %v", err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "internal error")
		return
	}
	if existing != nil {
		apierr.Write(w, http.StatusBadRequest, apierr.CodeValidation, "Email already exists")
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		log.Printf("[auth.register] HashPassword error: %v", err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "internal error")
		return
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           generateID("usr"),
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		Role:         model.UserRoleUser,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		// 预检查与写入之间的并发注册，唯一索引兜底
		if errors.Is(err, storage.ErrDuplicate) {
			apierr.Write(w, http.StatusBadRequest, apierr.CodeValidation, "Email already exists")
			return
		}
		log.Printf("[auth.register] CreateUser error: %v", err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "failed to create user")
		return
	}

	token, err := GenerateToken(h.cfg, user.ID, string(user.Role))
	if err != nil {
		log.Printf("[auth.register] GenerateToken error: %v", err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "internal error")
		return
	}

	log.Printf("[auth] User registered: %s (%s)", user.Email, user.ID)
	apierr.WriteJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

// Login 用户登录
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAuthBody(w, r, &req) {
		return
	}

	req.Email = model.NormalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		apierr.Write(w, http.StatusBadRequest, apierr.CodeValidation, "email and password are required")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("[auth.login] GetUserByEmail error: %v", err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "internal error")
		return
	}
	if user == nil || !CheckPassword(req.Password, user.PasswordHash) {
		apierr.Write(w, http.StatusUnauthorized, apierr.CodeAuth, "invalid email or password")
		return
	}
	if !user.Active {
		apierr.Write(w, http.StatusForbidden, apierr.CodeForbidden, "account is disabled")
		return
	}

	token, err := GenerateToken(h.cfg, user.ID, string(user.Role))
	if err != nil {
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "internal error")
		return
	}

	log.Printf("[auth] User logged in: %s", user.Email)
	apierr.WriteJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

// RequestOTP 发起一次性验证码挑战，同一用户只保留最新一个
func (h *Handler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if !decodeAuthBody(w, r, &req) {
		return
	}

	req.Email = model.NormalizeEmail(req.Email)
	if req.Email == "" {
		apierr.Write(w, http.StatusBadRequest, apierr.CodeValidation, "email is required")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("[auth.otp] GetUserByEmail error: %v", err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "internal error")
		return
	}
	if user == nil {
		apierr.Write(w, http.StatusNotFound, apierr.CodeNotFound, "user not found")
		return
	}
	if !user.Active {
		apierr.Write(w, http.StatusForbidden, apierr.CodeForbidden, "account is disabled")
		return
	}

	code, err := GenerateOTP()
	if err != nil {
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "internal error")
		return
	}
	expiresAt := time.Now().UTC().Add(h.cfg.OTPTTL)
	if err := h.store.SetUserOTP(r.Context(), user.ID, &code, &expiresAt); err != nil {
		log.Printf("[auth.otp] SetUserOTP error: %v", err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "internal error")
		return
	}

	if h.devMode {
		log.Printf("[auth] OTP for %s: %s", user.Email, code)
	}
	apierr.WriteJSON(w, http.StatusOK, map[string]string{"message": "verification code sent"})
}

// VerifyOTP 校验一次性验证码，成功即签发令牌并清除挑战
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !decodeAuthBody(w, r, &req) {
		return
	}

	req.Email = model.NormalizeEmail(req.Email)
	if req.Email == "" || req.Code == "" {
		apierr.Write(w, http.StatusBadRequest, apierr.CodeValidation, "email and code are required")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("[auth.otp] GetUserByEmail error: %v", err)
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "internal error")
		return
	}
	if user == nil || !user.OTPValid(req.Code, time.Now().UTC()) {
		apierr.Write(w, http.StatusUnauthorized, apierr.CodeAuth, "invalid or expired verification code")
		return
	}
	if !user.Active {
		apierr.Write(w, http.StatusForbidden, apierr.CodeForbidden, "account is disabled")
		return
	}

	// 验证码一次性，用后即清
	if err := h.store.SetUserOTP(r.Context(), user.ID, nil, nil); err != nil {
		log.Printf("[auth.otp] clear OTP error: %v", err)
	}

	token, err := GenerateToken(h.cfg, user.ID, string(user.Role))
	if err != nil {
		apierr.Write(w, http.StatusInternalServerError, apierr.CodeServer, "internal error")
		return
	}

	log.Printf("[auth] OTP login: %s", user.Email)
	apierr.WriteJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

// Me 获取当前用户信息
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	authUser := GetAuthUser(r.Context())
	if authUser == nil {
		apierr.Write(w, http.StatusUnauthorized, apierr.CodeUnauthorized, "not authenticated")
		return
	}

	user, err := h.store.GetUserByID(r.Context(), authUser.ID)
	if err != nil || user == nil {
		apierr.Write(w, http.StatusNotFound, apierr.CodeNotFound, "user not found")
		return
	}

	apierr.WriteJSON(w, http.StatusOK, user)
}

// AdminMe 管理员身份复核
// 中间件已拦截非 admin，这里再查库复核角色，防止令牌与库内角色漂移
func (h *Handler) AdminMe(w http.ResponseWriter, r *http.Request) {
	authUser := GetAuthUser(r.Context())
	if authUser == nil {
		apierr.Write(w, http.StatusUnauthorized, apierr.CodeUnauthorized, "not authenticated")
		return
	}

	user, err := h.store.GetUserByID(r.Context(), authUser.ID)
	if err != nil || user == nil {
		apierr.Write(w, http.StatusNotFound, apierr.CodeNotFound, "user not found")
		return
	}
	if user.Role != model.UserRoleAdmin {
		apierr.Write(w, http.StatusForbidden, apierr.CodeForbidden, "admin access required")
		return
	}

	apierr.WriteJSON(w, http.StatusOK, user)
}

// Logout 登出（无服务端会话，客户端丢弃令牌即可）
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	apierr.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// ============================================================================
// Admin Bootstrap
// ============================================================================

// EnsureAdminUser 确保管理员用户存在（启动时调用）
// 如果配置了 adminEmail 且数据库中不存在该用户，则自动创建
func EnsureAdminUser(store UserStore, adminEmail, adminPassword string) error {
	if adminEmail == "" || adminPassword == "" {
		return nil
	}

	ctx := context.Background()
	adminEmail = model.NormalizeEmail(adminEmail)
	existing, err := store.GetUserByEmail(ctx, adminEmail)
	if err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if existing != nil {
		log.Printf("[auth] Admin user already exists: %s (%s)", adminEmail, existing.ID)
		return nil
	}

	hash, err := HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           generateID("usr"),
		Email:        adminEmail,
		FirstName:    "Admin",
		LastName:     "User",
		PasswordHash: hash,
		Role:         model.UserRoleAdmin,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	log.Printf("[auth] Created admin user: %s (%s)", adminEmail, user.ID)
	return nil
}

// ============================================================================
// 工具函数
// ============================================================================

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

func generateID(prefix string) string {
	b := make([]byte, 6)
	rand.Read(b)
	return prefix + "-" + hex.EncodeToString(b)
}
