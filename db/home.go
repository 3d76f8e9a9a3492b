package db

import (
	"context"

	"kioskcms/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// HomeRepository keeps the single home document.
type HomeRepository struct {
	coll *mongo.Collection
}

func NewHomeRepository(database *mongo.Database) *HomeRepository {
	return &HomeRepository{coll: database.Collection(HomeCollection)}
}

func (r *HomeRepository) Get(ctx context.Context) (*models.Home, error) {
	var h models.Home
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	if err := r.coll.FindOne(ctx, bson.M{}, opts).Decode(&h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *HomeRepository) Upsert(ctx context.Context, h *models.Home) error {
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": h.ID}, h, options.Replace().SetUpsert(true))
	return err
}
