package repository

import (
	"context"
	"database/sql"
	"time"

	"recipe-admin/internal/shared/model"
	"recipe-admin/internal/shared/storage"
)

const recipeColumns = `id, user_id, title, title_lc, description, category, difficulty, rating,
	cooking_time, prep_time, servings, ingredients, instructions, tags, dietary_restrictions,
	notes, image_url, deleted_at, created_at, updated_at`

func scanRecipe(row interface{ Scan(...any) error }) (*model.Recipe, error) {
	rec := &model.Recipe{}
	var ingredients, instructions, tags, dietary []byte
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.TitleLC, &rec.Description,
		&rec.Category, &rec.Difficulty, &rec.Rating, &rec.CookingTime, &rec.PrepTime,
		&rec.Servings, &ingredients, &instructions, &tags, &dietary,
		&rec.Notes, &rec.ImageURL, &rec.DeletedAt, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.Ingredients = unmarshalList(ingredients)
	rec.Instructions = unmarshalList(instructions)
	rec.Tags = unmarshalList(tags)
	rec.DietaryRestrictions = unmarshalList(dietary)
	return rec, nil
}

// CreateRecipe 创建食谱
// 活跃记录的 (user_id, title_lc) 命中部分唯一索引时返回 storage.ErrDuplicate
func (r *Store) CreateRecipe(ctx context.Context, recipe *model.Recipe) error {
	_, err := r.db.ExecContext(ctx, r.rebind(
		`INSERT INTO recipes (id, user_id, title, title_lc, description, category, difficulty, rating,
		 cooking_time, prep_time, servings, ingredients, instructions, tags, dietary_restrictions,
		 notes, image_url, deleted_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`),
		recipe.ID, recipe.UserID, recipe.Title, recipe.TitleLC, recipe.Description,
		recipe.Category, recipe.Difficulty, recipe.Rating, recipe.CookingTime, recipe.PrepTime,
		recipe.Servings, marshalList(recipe.Ingredients), marshalList(recipe.Instructions),
		marshalList(recipe.Tags), marshalList(recipe.DietaryRestrictions),
		recipe.Notes, recipe.ImageURL, recipe.DeletedAt, recipe.CreatedAt, recipe.UpdatedAt,
	)
	return r.wrapWriteErr(err)
}

// GetRecipe 通过 ID 查找食谱，不存在返回 (nil, nil)
func (r *Store) GetRecipe(ctx context.Context, id string) (*model.Recipe, error) {
	return scanRecipe(r.db.QueryRowContext(ctx, r.rebind(
		`SELECT `+recipeColumns+` FROM recipes WHERE id = $1`), id))
}

// UpdateRecipe 整体更新食谱，记录不存在返回 storage.ErrNotFound
func (r *Store) UpdateRecipe(ctx context.Context, recipe *model.Recipe) error {
	res, err := r.db.ExecContext(ctx, r.rebind(
		`UPDATE recipes SET title = $1, title_lc = $2, description = $3, category = $4,
		 difficulty = $5, rating = $6, cooking_time = $7, prep_time = $8, servings = $9,
		 ingredients = $10, instructions = $11, tags = $12, dietary_restrictions = $13,
		 notes = $14, image_url = $15, updated_at = $16
		 WHERE id = $17`),
		recipe.Title, recipe.TitleLC, recipe.Description, recipe.Category,
		recipe.Difficulty, recipe.Rating, recipe.CookingTime, recipe.PrepTime, recipe.Servings,
		marshalList(recipe.Ingredients), marshalList(recipe.Instructions),
		marshalList(recipe.Tags), marshalList(recipe.DietaryRestrictions),
		recipe.Notes, recipe.ImageURL, recipe.UpdatedAt, recipe.ID,
	)
	if err != nil {
		return r.wrapWriteErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListActiveRecipes 列出活跃食谱（未软删除），ownerID 为空时列出全部
func (r *Store) ListActiveRecipes(ctx context.Context, ownerID string) ([]*model.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE deleted_at IS NULL`
	var args []any
	if ownerID != "" {
		query += ` AND user_id = $1`
		args = append(args, ownerID)
	}
	query += ` ORDER BY created_at DESC`
	return r.queryRecipes(ctx, query, args...)
}

// ListTrashedRecipes 列出回收站中的食谱，ownerID 为空时列出全部
func (r *Store) ListTrashedRecipes(ctx context.Context, ownerID string) ([]*model.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE deleted_at IS NOT NULL`
	var args []any
	if ownerID != "" {
		query += ` AND user_id = $1`
		args = append(args, ownerID)
	}
	query += ` ORDER BY deleted_at DESC`
	return r.queryRecipes(ctx, query, args...)
}

func (r *Store) queryRecipes(ctx context.Context, query string, args ...any) ([]*model.Recipe, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipes := []*model.Recipe{}
	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, rec)
	}
	return recipes, rows.Err()
}

// FindActiveByTitle 在指定所有者的活跃食谱中按规范化标题查找，不存在返回 (nil, nil)
func (r *Store) FindActiveByTitle(ctx context.Context, ownerID, titleLC string) (*model.Recipe, error) {
	return scanRecipe(r.db.QueryRowContext(ctx, r.rebind(
		`SELECT `+recipeColumns+` FROM recipes
		 WHERE user_id = $1 AND title_lc = $2 AND deleted_at IS NULL`), ownerID, titleLC))
}

// SetRecipeDeleted 设置或清除软删除标记，记录不存在返回 storage.ErrNotFound
func (r *Store) SetRecipeDeleted(ctx context.Context, id string, deletedAt *time.Time) error {
	res, err := r.db.ExecContext(ctx, r.rebind(
		`UPDATE recipes SET deleted_at = $1, updated_at = $2 WHERE id = $3`),
		deletedAt, time.Now().UTC(), id,
	)
	if err != nil {
		return r.wrapWriteErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteRecipe 物理删除食谱，记录不存在返回 storage.ErrNotFound
func (r *Store) DeleteRecipe(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.rebind(
		`DELETE FROM recipes WHERE id = $1`), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CountActiveRecipes 统计活跃食谱总数
func (r *Store) CountActiveRecipes(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recipes WHERE deleted_at IS NULL`).Scan(&count)
	return count, err
}
