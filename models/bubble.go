package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bubble is a node in the kiosk navigation forest. A bubble with a media
// reference is presented as a leaf, one with children as a branch.
type Bubble struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title          string              `bson:"title" json:"title"`
	ParentBubbleID *primitive.ObjectID `bson:"parentBubbleId" json:"parentBubbleId"`
	MediaID        *primitive.ObjectID `bson:"media" json:"mediaId"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// IsRoot reports whether the bubble sits at the top level.
func (b Bubble) IsRoot() bool {
	return b.ParentBubbleID == nil
}

// BubbleView is a bubble with its media reference resolved. Children is only
// populated when the caller asked for a nested tree.
type BubbleView struct {
	Bubble   `bson:",inline"`
	Media    *Media       `json:"media"`
	Children []BubbleView `json:"children,omitempty"`
}

// BubbleDeleteResult reports how many bubbles a cascading delete removed.
type BubbleDeleteResult struct {
	DeletedCount int `json:"deletedCount"`
}
