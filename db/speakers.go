package db

import (
	"context"

	"kioskcms/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SpeakerRepository struct {
	coll *mongo.Collection
}

func NewSpeakerRepository(database *mongo.Database) *SpeakerRepository {
	return &SpeakerRepository{coll: database.Collection(SpeakersCollection)}
}

func (r *SpeakerRepository) Insert(ctx context.Context, s *models.Speaker) error {
	_, err := r.coll.InsertOne(ctx, s)
	return err
}

func (r *SpeakerRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Speaker, error) {
	var s models.Speaker
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns speakers by display order, then start time. Stored times are
// zero-padded so the string sort is chronological.
func (r *SpeakerRepository) List(ctx context.Context) ([]models.Speaker, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "startTime", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	speakers := []models.Speaker{}
	if err := cursor.All(ctx, &speakers); err != nil {
		return nil, err
	}
	return speakers, nil
}

func (r *SpeakerRepository) Update(ctx context.Context, s *models.Speaker) error {
	result, err := r.coll.ReplaceOne(ctx, bson.M{"_id": s.ID}, s)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *SpeakerRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return deleteByID(ctx, r.coll, id)
}
