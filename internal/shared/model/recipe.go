// Package model 定义核心数据模型
package model

import (
	"strings"
	"time"
)

// Difficulty 菜谱难度枚举
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// DefaultCategory 未指定分类时的默认值
const DefaultCategory = "Uncategorised"

// Recipe 菜谱
//
// UserID 创建后不可变。TitleLC 是 trim + 小写后的标题，
// 用于同一所有者下活跃记录的重复检测（部分唯一索引兜底并发竞争）。
// DeletedAt 非空表示已进回收站（软删除），记录本身保留。
type Recipe struct {
	ID                  string     `json:"id" bson:"_id" db:"id"`
	UserID              string     `json:"user_id" bson:"user_id" db:"user_id"`
	Title               string     `json:"title" bson:"title" db:"title"`
	TitleLC             string     `json:"-" bson:"title_lc" db:"title_lc"`
	Description         string     `json:"description" bson:"description" db:"description"`
	Category            string     `json:"category" bson:"category" db:"category"`
	Difficulty          Difficulty `json:"difficulty" bson:"difficulty" db:"difficulty"`
	Rating              float64    `json:"rating" bson:"rating" db:"rating"`
	CookingTime         int        `json:"cooking_time" bson:"cooking_time" db:"cooking_time"`
	PrepTime            int        `json:"prep_time" bson:"prep_time" db:"prep_time"`
	Servings            int        `json:"servings" bson:"servings" db:"servings"`
	Ingredients         []string   `json:"ingredients" bson:"ingredients" db:"ingredients"`
	Instructions        []string   `json:"instructions" bson:"instructions" db:"instructions"`
	Tags                []string   `json:"tags" bson:"tags" db:"tags"`
	DietaryRestrictions []string   `json:"dietary_restrictions" bson:"dietary_restrictions" db:"dietary_restrictions"`
	Notes               string     `json:"notes,omitempty" bson:"notes,omitempty" db:"notes"`
	ImageURL            string     `json:"image_url,omitempty" bson:"image_url,omitempty" db:"image_url"`
	// DeletedAt 显式存为 null（非 omitempty），部分唯一索引按 $type null 过滤
	DeletedAt *time.Time `json:"deleted_at,omitempty" bson:"deleted_at" db:"deleted_at"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at" db:"updated_at"`
}

// IsTrashed 是否已软删除
func (r *Recipe) IsTrashed() bool {
	return r.DeletedAt != nil
}

// OwnedBy 是否属于指定用户
func (r *Recipe) OwnedBy(userID string) bool {
	return r.UserID == userID
}

// NormalizeTitle 标题规范化：trim + 小写（重复检测的比较键）
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// ValidDifficulty difficulty 是否为合法枚举值
func ValidDifficulty(d string) bool {
	switch Difficulty(d) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}
