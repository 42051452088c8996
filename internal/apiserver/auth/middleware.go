package auth

import (
	"log"
	"net/http"
	"strings"

	"recipe-admin/internal/shared/apierr"
)

// 免认证路由白名单（前缀匹配）
var publicPrefixes = []string{
	"/api/v1/auth/register",
	"/api/v1/auth/login",
	"/api/v1/auth/request-otp",
	"/api/v1/auth/verify-otp",
	"/health",
	"/metrics",
	"/ws/",
}

// 免认证路由精确匹配
var publicExact = map[string]bool{
	"GET /api/v1/recipes": true, // 公开浏览
}

func isPublicRoute(method, path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	if publicExact[method+" "+path] {
		return true
	}
	// 公开的用户名片：GET /api/v1/users/{id}/public
	if method == "GET" && strings.HasPrefix(path, "/api/v1/users/") && strings.HasSuffix(path, "/public") {
		return true
	}
	return false
}

// Middleware 创建 JWT 认证中间件
// 公开路由放行；其余路由要求有效 Bearer Token，失败统一 401，不做部分放行
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 公开路由：直接放行
			if isPublicRoute(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			// 提取 Bearer Token
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				apierr.Write(w, http.StatusUnauthorized, apierr.CodeUnauthorized, "missing authorization header")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				apierr.Write(w, http.StatusUnauthorized, apierr.CodeUnauthorized, "invalid authorization header")
				return
			}

			// 解析 JWT
			claims, err := ParseToken(cfg, parts[1])
			if err != nil {
				log.Printf("[auth] token parse error: %v", err)
				apierr.Write(w, http.StatusUnauthorized, apierr.CodeUnauthorized, "invalid or expired token")
				return
			}

			// 注入 auth user 到 context
			user := &AuthUser{
				ID:   claims.Subject,
				Role: claims.Role,
			}
			next.ServeHTTP(w, r.WithContext(WithAuthUser(r.Context(), user)))
		})
	}
}

// AdminOnly 管理员专属路由中间件
func AdminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := GetAuthUser(r.Context())
		if user == nil {
			apierr.Write(w, http.StatusUnauthorized, apierr.CodeUnauthorized, "not authenticated")
			return
		}
		if user.Role != UserRoleAdmin {
			apierr.Write(w, http.StatusForbidden, apierr.CodeForbidden, "admin access required")
			return
		}
		next(w, r)
	}
}

// UserRoleAdmin 管理员角色常量（避免 model 包循环引用）
const UserRoleAdmin = "admin"
