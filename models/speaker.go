package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Speaker is a scheduled session shown in the kiosk carousel. StartTime and
// EndTime are venue-local "HH:MM" strings.
type Speaker struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Designation   string             `bson:"designation" json:"designation"`
	ImageURL      string             `bson:"imageUrl" json:"imageUrl"`
	PopupImageURL string             `bson:"popupImageUrl" json:"popupImageUrl"`
	StartTime     string             `bson:"startTime" json:"startTime"`
	EndTime       string             `bson:"endTime" json:"endTime"`
	Order         int                `bson:"order" json:"order"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SpeakerView decorates a speaker with its live flag for the kiosk.
type SpeakerView struct {
	Speaker `bson:",inline"`
	IsLive  bool `json:"isLive"`
}
