package services

import (
	"context"
	"time"

	"kioskcms/models"
)

// Kiosk assembles the public screen state from the other services.
type Kiosk struct {
	tree     *BubbleTree
	speakers *SpeakerSchedule
	home     *HomeScreen
}

func NewKiosk(tree *BubbleTree, speakers *SpeakerSchedule, home *HomeScreen) *Kiosk {
	return &Kiosk{tree: tree, speakers: speakers, home: home}
}

func (k *Kiosk) Snapshot(ctx context.Context, at time.Time) (*models.KioskSnapshot, error) {
	home, err := k.home.Get(ctx)
	if err != nil {
		return nil, err
	}
	bubbles, err := k.tree.Tree(ctx)
	if err != nil {
		return nil, err
	}
	speakers, liveID, err := k.speakers.Views(ctx, at)
	if err != nil {
		return nil, err
	}
	if bubbles == nil {
		bubbles = []models.BubbleView{}
	}
	return &models.KioskSnapshot{
		Home:          *home,
		Bubbles:       bubbles,
		Speakers:      speakers,
		LiveSpeakerID: liveID,
		GeneratedAt:   at,
	}, nil
}
