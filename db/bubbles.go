package db

import (
	"context"

	"kioskcms/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BubbleRepository stores bubbles in the bubbles collection.
type BubbleRepository struct {
	coll *mongo.Collection
}

func NewBubbleRepository(database *mongo.Database) *BubbleRepository {
	return &BubbleRepository{coll: database.Collection(BubblesCollection)}
}

func (r *BubbleRepository) Insert(ctx context.Context, b *models.Bubble) error {
	_, err := r.coll.InsertOne(ctx, b)
	return err
}

func (r *BubbleRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Bubble, error) {
	var b models.Bubble
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Find returns bubbles in creation order. An unset parent matches all
// bubbles, a null parent matches roots only.
func (r *BubbleRepository) Find(ctx context.Context, parent models.NullableID) ([]models.Bubble, error) {
	filter := bson.M{}
	switch {
	case parent.Set && parent.Valid:
		filter["parentBubbleId"] = parent.ID
	case parent.Set:
		filter["parentBubbleId"] = nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	bubbles := []models.Bubble{}
	if err := cursor.All(ctx, &bubbles); err != nil {
		return nil, err
	}
	return bubbles, nil
}

// ChildIDs returns the ids of every bubble whose parent is in parentIDs.
func (r *BubbleRepository) ChildIDs(ctx context.Context, parentIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.coll.Find(ctx, bson.M{"parentBubbleId": bson.M{"$in": parentIDs}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

func (r *BubbleRepository) Update(ctx context.Context, b *models.Bubble) error {
	result, err := r.coll.ReplaceOne(ctx, bson.M{"_id": b.ID}, b)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *BubbleRepository) DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *BubbleRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return deleteByID(ctx, r.coll, id)
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID) (bool, error) {
	result, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}
