package services

import (
	"context"
	"time"

	"kioskcms/models"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Repositories return mongo.ErrNoDocuments when a single-document lookup
// misses.

type BubbleRepository interface {
	Insert(ctx context.Context, bubble *models.Bubble) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Bubble, error)
	// Find returns bubbles in creation order. An unset parent returns every
	// bubble, an explicit null returns roots, a value returns its children.
	Find(ctx context.Context, parent models.NullableID) ([]models.Bubble, error)
	// ChildIDs returns the ids of every bubble whose parent is in parentIDs.
	ChildIDs(ctx context.Context, parentIDs []primitive.ObjectID) ([]primitive.ObjectID, error)
	Update(ctx context.Context, bubble *models.Bubble) error
	DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type MediaRepository interface {
	Insert(ctx context.Context, media *models.Media) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Media, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Media, error)
	// FindByTitle matches the whole title case-insensitively. With
	// websiteOnly set, only records carrying a website URL match.
	FindByTitle(ctx context.Context, title string, websiteOnly bool) (*models.Media, error)
	// List returns every record, newest first.
	List(ctx context.Context) ([]models.Media, error)
	Update(ctx context.Context, media *models.Media) error
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type SpeakerRepository interface {
	Insert(ctx context.Context, speaker *models.Speaker) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Speaker, error)
	// List returns speakers sorted by order, then start time.
	List(ctx context.Context) ([]models.Speaker, error)
	Update(ctx context.Context, speaker *models.Speaker) error
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type HomeRepository interface {
	Get(ctx context.Context) (*models.Home, error)
	Upsert(ctx context.Context, home *models.Home) error
}

// Notifier receives an event after every successful mutation.
type Notifier interface {
	Publish(event models.ChangeEvent)
}

type nopNotifier struct{}

func (nopNotifier) Publish(models.ChangeEvent) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

func publish(n Notifier, at time.Time, eventType, resource string, id primitive.ObjectID) {
	event := models.ChangeEvent{Type: eventType, Resource: resource, Timestamp: at}
	if !id.IsZero() {
		event.ID = id.Hex()
	}
	n.Publish(event)
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
