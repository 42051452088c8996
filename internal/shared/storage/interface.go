// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：mongostore/（文档存储，默认）、repository/（SQL，
//     通过 dbutil.Dialect 支持 postgres/sqlite）
//   - 初始化时通过依赖注入传入实现
//
// 查找类方法（GetXxx / FindXxx）在记录不存在时返回 (nil, nil)，
// 调用方据此区分"不存在"与存储错误。
package storage

import (
	"context"
	"time"

	"recipe-admin/internal/shared/model"
)

// UserStore 用户存储接口
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UpdateUserProfile(ctx context.Context, user *model.User) error
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
	// SetUserOTP 设置或清除 OTP 挑战（otp/expiresAt 同时为 nil 表示清除）
	SetUserOTP(ctx context.Context, id string, otp *string, expiresAt *time.Time) error
	ListUsers(ctx context.Context) ([]*model.User, error)
}

// RecipeStore 菜谱存储接口
type RecipeStore interface {
	CreateRecipe(ctx context.Context, recipe *model.Recipe) error
	GetRecipe(ctx context.Context, id string) (*model.Recipe, error)
	UpdateRecipe(ctx context.Context, recipe *model.Recipe) error
	// ListActiveRecipes 列出活跃（未软删除）菜谱；ownerID 为空表示全部
	ListActiveRecipes(ctx context.Context, ownerID string) ([]*model.Recipe, error)
	// ListTrashedRecipes 列出回收站中的菜谱；ownerID 为空表示全部（admin）
	ListTrashedRecipes(ctx context.Context, ownerID string) ([]*model.Recipe, error)
	// FindActiveByTitle 按规范化标题查找同一所有者的活跃菜谱（重复检测）
	FindActiveByTitle(ctx context.Context, ownerID, titleLC string) (*model.Recipe, error)
	// SetRecipeDeleted 设置（软删除）或清除（恢复）回收站时间戳
	SetRecipeDeleted(ctx context.Context, id string, deletedAt *time.Time) error
	// DeleteRecipe 硬删除，记录永久移除（审计记录不受影响）
	DeleteRecipe(ctx context.Context, id string) error
	CountActiveRecipes(ctx context.Context) (int, error)
}

// ActivityStore 审计记录存储接口（只追加）
type ActivityStore interface {
	CreateActivity(ctx context.Context, activity *model.Activity) error
	// ListRecentActivities 按创建时间倒序返回最近 limit 条
	ListRecentActivities(ctx context.Context, limit int) ([]*model.Activity, error)
}

// PersistentStore 持久化存储组合接口
type PersistentStore interface {
	UserStore
	RecipeStore
	ActivityStore
	Close() error
}
