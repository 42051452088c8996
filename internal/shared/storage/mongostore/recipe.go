package mongostore

import (
	"context"
	"time"

	"recipe-admin/internal/shared/model"
	"recipe-admin/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// RecipeStore
// ============================================================================

func (s *Store) CreateRecipe(ctx context.Context, recipe *model.Recipe) error {
	return insertOne(ctx, s.col(ColRecipes), recipe)
}

func (s *Store) GetRecipe(ctx context.Context, id string) (*model.Recipe, error) {
	return findOne[model.Recipe](ctx, s.col(ColRecipes), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) UpdateRecipe(ctx context.Context, recipe *model.Recipe) error {
	res, err := s.col(ColRecipes).ReplaceOne(ctx, bson.D{{Key: "_id", Value: recipe.ID}}, recipe)
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ListActiveRecipes(ctx context.Context, ownerID string) ([]*model.Recipe, error) {
	filter := bson.D{activeFilter()}
	if ownerID != "" {
		filter = append(filter, bson.E{Key: "user_id", Value: ownerID})
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.Recipe](ctx, s.col(ColRecipes), filter, opts)
}

func (s *Store) ListTrashedRecipes(ctx context.Context, ownerID string) ([]*model.Recipe, error) {
	filter := bson.D{trashedFilter()}
	if ownerID != "" {
		filter = append(filter, bson.E{Key: "user_id", Value: ownerID})
	}
	opts := options.Find().SetSort(bson.D{{Key: "deleted_at", Value: -1}})
	return findMany[model.Recipe](ctx, s.col(ColRecipes), filter, opts)
}

func (s *Store) FindActiveByTitle(ctx context.Context, ownerID, titleLC string) (*model.Recipe, error) {
	return findOne[model.Recipe](ctx, s.col(ColRecipes), bson.D{
		{Key: "user_id", Value: ownerID},
		{Key: "title_lc", Value: titleLC},
		activeFilter(),
	})
}

func (s *Store) SetRecipeDeleted(ctx context.Context, id string, deletedAt *time.Time) error {
	return updateFields(ctx, s.col(ColRecipes), id, bson.D{
		{Key: "deleted_at", Value: deletedAt},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) DeleteRecipe(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColRecipes), id)
}

func (s *Store) CountActiveRecipes(ctx context.Context) (int, error) {
	count, err := s.col(ColRecipes).CountDocuments(ctx, bson.D{activeFilter()})
	return int(count), err
}
