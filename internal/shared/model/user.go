package model

import (
	"strings"
	"time"
)

// UserRole 用户角色
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// User 用户
//
// Email 存储前统一 trim + 小写（唯一索引按规范化后的值比较）。
// OTP/OTPExpiresAt 同时为空或同时非空：同一时间最多一个有效挑战，
// 新挑战覆盖旧挑战，验证成功后清空。
type User struct {
	ID           string     `json:"id" bson:"_id" db:"id"`
	Email        string     `json:"email" bson:"email" db:"email"`
	FirstName    string     `json:"first_name" bson:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" bson:"last_name" db:"last_name"`
	PasswordHash string     `json:"-" bson:"password_hash" db:"password_hash"` // never expose in JSON
	Role         UserRole   `json:"role" bson:"role" db:"role"`
	Active       bool       `json:"active" bson:"active" db:"active"`
	AvatarURL    string     `json:"avatar_url,omitempty" bson:"avatar_url,omitempty" db:"avatar_url"`
	OTP          *string    `json:"-" bson:"otp,omitempty" db:"otp"`
	OTPExpiresAt *time.Time `json:"-" bson:"otp_expires_at,omitempty" db:"otp_expires_at"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" bson:"updated_at" db:"updated_at"`
}

// FullName 展示名（审计记录写入时反规范化用）
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// OTPValid 当前 OTP 挑战在 now 时刻是否有效
func (u *User) OTPValid(code string, now time.Time) bool {
	if u.OTP == nil || u.OTPExpiresAt == nil {
		return false
	}
	return *u.OTP == code && now.Before(*u.OTPExpiresAt)
}

// NormalizeEmail 邮箱规范化：trim + 小写
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PublicProfile 公开档案（跨模块的窄读接口，见 users handler）
type PublicProfile struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Role      UserRole `json:"role"`
	AvatarURL string   `json:"avatar_url,omitempty"`
}

// Public 返回用户的公开档案视图
func (u *User) Public() *PublicProfile {
	return &PublicProfile{
		ID:        u.ID,
		Name:      u.FullName(),
		Role:      u.Role,
		AvatarURL: u.AvatarURL,
	}
}
