package repository

import (
	"context"

	"recipe-admin/internal/shared/model"
)

// CreateActivity 追加一条活动记录（只追加，不更新不删除）
func (r *Store) CreateActivity(ctx context.Context, activity *model.Activity) error {
	_, err := r.db.ExecContext(ctx, r.rebind(
		`INSERT INTO activities (id, user_id, user_name, action, recipe_id, recipe_title, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`),
		activity.ID, activity.UserID, activity.UserName, activity.Action,
		activity.RecipeID, activity.RecipeTitle, activity.CreatedAt,
	)
	return err
}

// ListRecentActivities 按时间倒序返回最近的活动记录
func (r *Store) ListRecentActivities(ctx context.Context, limit int) ([]*model.Activity, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(
		`SELECT id, user_id, user_name, action, recipe_id, recipe_title, created_at
		 FROM activities ORDER BY created_at DESC LIMIT $1`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := []*model.Activity{}
	for rows.Next() {
		a := &model.Activity{}
		if err := rows.Scan(&a.ID, &a.UserID, &a.UserName, &a.Action,
			&a.RecipeID, &a.RecipeTitle, &a.CreatedAt); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
