package mongostore

import (
	"context"

	"recipe-admin/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// ActivityStore
// ============================================================================

func (s *Store) CreateActivity(ctx context.Context, activity *model.Activity) error {
	return insertOne(ctx, s.col(ColActivities), activity)
}

func (s *Store) ListRecentActivities(ctx context.Context, limit int) ([]*model.Activity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return findMany[model.Activity](ctx, s.col(ColActivities), bson.D{}, opts)
}
