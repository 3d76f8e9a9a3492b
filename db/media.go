package db

import (
	"context"
	"regexp"

	"kioskcms/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MediaRepository struct {
	coll *mongo.Collection
}

func NewMediaRepository(database *mongo.Database) *MediaRepository {
	return &MediaRepository{coll: database.Collection(MediaCollection)}
}

func (r *MediaRepository) Insert(ctx context.Context, m *models.Media) error {
	_, err := r.coll.InsertOne(ctx, m)
	return err
}

func (r *MediaRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Media, error) {
	var m models.Media
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MediaRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Media, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

// FindByTitle matches the whole title case-insensitively. The newest match
// wins when titles collide.
func (r *MediaRepository) FindByTitle(ctx context.Context, title string, websiteOnly bool) (*models.Media, error) {
	filter := bson.M{
		"title": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(title) + "$", Options: "i"},
	}
	if websiteOnly {
		filter["websiteUrl"] = bson.M{"$exists": true, "$ne": ""}
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var m models.Media
	if err := r.coll.FindOne(ctx, filter, opts).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns all media, newest first.
func (r *MediaRepository) List(ctx context.Context) ([]models.Media, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	return r.find(ctx, bson.M{}, opts)
}

func (r *MediaRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Media, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	media := []models.Media{}
	if err := cursor.All(ctx, &media); err != nil {
		return nil, err
	}
	return media, nil
}

func (r *MediaRepository) Update(ctx context.Context, m *models.Media) error {
	result, err := r.coll.ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MediaRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return deleteByID(ctx, r.coll, id)
}
