package model

import "time"

// ActivityAction 审计动作枚举
type ActivityAction string

const (
	ActionCreated ActivityAction = "created"
	ActionUpdated ActivityAction = "updated"
	ActionDeleted ActivityAction = "deleted"
)

// Activity 审计记录（只追加，永不修改或删除）
//
// UserName 和 RecipeTitle 在写入时反规范化（快照当时的值，不做实时 join），
// 因此菜谱被硬删除后审计记录依然完整可读。
type Activity struct {
	ID          string         `json:"id" bson:"_id" db:"id"`
	UserID      string         `json:"user_id" bson:"user_id" db:"user_id"`
	UserName    string         `json:"user_name" bson:"user_name" db:"user_name"`
	Action      ActivityAction `json:"action" bson:"action" db:"action"`
	RecipeID    string         `json:"recipe_id" bson:"recipe_id" db:"recipe_id"`
	RecipeTitle string         `json:"recipe_title" bson:"recipe_title" db:"recipe_title"`
	CreatedAt   time.Time      `json:"created_at" bson:"created_at" db:"created_at"`
}
