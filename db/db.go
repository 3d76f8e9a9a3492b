package db

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"kioskcms/internal/logger"
	"kioskcms/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	BubblesCollection  = "bubbles"
	MediaCollection    = "media"
	SpeakersCollection = "speakers"
	HomeCollection     = "home"
)

// extractDBName parses the database name from the URI, falling back to the
// given default.
func extractDBName(uri, fallback string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return fallback
	}
	if u.Path != "" && u.Path != "/" {
		return u.Path[1:] // Trim leading '/'
	}
	return fallback
}

// Connect establishes a connection to MongoDB and returns the database the
// repositories operate on. An explicit name wins over the one in the URI.
func Connect(ctx context.Context, uri, name string, log *logger.Logger) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Verify connection with a ping
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	if name == "" {
		name = extractDBName(uri, "kiosk")
	}
	log.Info("Connected to MongoDB", "database", name)
	return client, client.Database(name), nil
}

// EnsureIndexes creates the indexes the repositories query by.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		BubblesCollection: {
			{Keys: bson.D{{Key: "parentBubbleId", Value: 1}}},
		},
		MediaCollection: {
			{Keys: bson.D{{Key: "title", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		SpeakersCollection: {
			{Keys: bson.D{{Key: "order", Value: 1}, {Key: "startTime", Value: 1}}},
		},
	}
	for name, models := range indexes {
		if _, err := database.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

var (
	_ services.BubbleRepository  = (*BubbleRepository)(nil)
	_ services.MediaRepository   = (*MediaRepository)(nil)
	_ services.SpeakerRepository = (*SpeakerRepository)(nil)
	_ services.HomeRepository    = (*HomeRepository)(nil)
)
