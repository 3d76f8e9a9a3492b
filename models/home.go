package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Home is the singleton holding the kiosk hero video.
type Home struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VideoURL  string             `bson:"videoUrl" json:"videoUrl"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// KioskSnapshot is everything the public screen needs in one payload.
type KioskSnapshot struct {
	Home          Home                `json:"home"`
	Bubbles       []BubbleView        `json:"bubbles"`
	Speakers      []SpeakerView       `json:"speakers"`
	LiveSpeakerID *primitive.ObjectID `json:"liveSpeakerId"`
	GeneratedAt   time.Time           `json:"generatedAt"`
}

// ChangeEvent is pushed to kiosk screens after a CMS mutation.
type ChangeEvent struct {
	Type      string    `json:"type"`
	Resource  string    `json:"resource"`
	ID        string    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
