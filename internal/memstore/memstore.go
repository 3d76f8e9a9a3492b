// Package memstore holds in-memory repositories for local development
// without MongoDB. They return mongo.ErrNoDocuments on misses like the
// collection-backed ones.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"kioskcms/models"
	"kioskcms/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Bubbles struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]models.Bubble
}

func NewBubbles() *Bubbles {
	return &Bubbles{items: map[primitive.ObjectID]models.Bubble{}}
}

func (r *Bubbles) Insert(_ context.Context, b *models.Bubble) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[b.ID] = *b
	return nil
}

func (r *Bubbles) FindByID(_ context.Context, id primitive.ObjectID) (*models.Bubble, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &b, nil
}

func (r *Bubbles) Find(_ context.Context, parent models.NullableID) ([]models.Bubble, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Bubble{}
	for _, b := range r.items {
		switch {
		case !parent.Set:
		case !parent.Valid && b.ParentBubbleID != nil:
			continue
		case parent.Valid && (b.ParentBubbleID == nil || *b.ParentBubbleID != parent.ID):
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out, nil
}

func (r *Bubbles) ChildIDs(_ context.Context, parentIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	parents := make(map[primitive.ObjectID]bool, len(parentIDs))
	for _, id := range parentIDs {
		parents[id] = true
	}
	var ids []primitive.ObjectID
	for id, b := range r.items {
		if b.ParentBubbleID != nil && parents[*b.ParentBubbleID] {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *Bubbles) Update(_ context.Context, b *models.Bubble) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[b.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	r.items[b.ID] = *b
	return nil
}

func (r *Bubbles) DeleteMany(_ context.Context, ids []primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := r.items[id]; ok {
			delete(r.items, id)
			n++
		}
	}
	return n, nil
}

func (r *Bubbles) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	n, err := r.DeleteMany(context.Background(), []primitive.ObjectID{id})
	return n > 0, err
}

type Media struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]models.Media
}

func NewMedia() *Media {
	return &Media{items: map[primitive.ObjectID]models.Media{}}
}

func (r *Media) Insert(_ context.Context, m *models.Media) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[m.ID] = *m
	return nil
}

func (r *Media) FindByID(_ context.Context, id primitive.ObjectID) (*models.Media, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.items[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &m, nil
}

func (r *Media) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Media, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Media
	for _, id := range ids {
		if m, ok := r.items[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *Media) FindByTitle(ctx context.Context, title string, websiteOnly bool) (*models.Media, error) {
	all, _ := r.List(ctx)
	for _, m := range all {
		if !strings.EqualFold(m.Title, title) || (websiteOnly && m.WebsiteURL == "") {
			continue
		}
		return &m, nil
	}
	return nil, mongo.ErrNoDocuments
}

// List returns all media, newest first.
func (r *Media) List(_ context.Context) ([]models.Media, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Media, 0, len(r.items))
	for _, m := range r.items {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out, nil
}

func (r *Media) Update(_ context.Context, m *models.Media) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[m.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	r.items[m.ID] = *m
	return nil
}

func (r *Media) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return false, nil
	}
	delete(r.items, id)
	return true, nil
}

type Speakers struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]models.Speaker
}

func NewSpeakers() *Speakers {
	return &Speakers{items: map[primitive.ObjectID]models.Speaker{}}
}

func (r *Speakers) Insert(_ context.Context, s *models.Speaker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[s.ID] = *s
	return nil
}

func (r *Speakers) FindByID(_ context.Context, id primitive.ObjectID) (*models.Speaker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.items[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &s, nil
}

// List returns speakers by order, then start time.
func (r *Speakers) List(_ context.Context) ([]models.Speaker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Speaker, 0, len(r.items))
	for _, s := range r.items {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (r *Speakers) Update(_ context.Context, s *models.Speaker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[s.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	r.items[s.ID] = *s
	return nil
}

func (r *Speakers) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return false, nil
	}
	delete(r.items, id)
	return true, nil
}

type Home struct {
	mu   sync.RWMutex
	home *models.Home
}

func NewHome() *Home { return &Home{} }

func (r *Home) Get(_ context.Context) (*models.Home, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.home == nil {
		return nil, mongo.ErrNoDocuments
	}
	h := *r.home
	return &h, nil
}

func (r *Home) Upsert(_ context.Context, h *models.Home) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *h
	r.home = &c
	return nil
}

var (
	_ services.BubbleRepository  = (*Bubbles)(nil)
	_ services.MediaRepository   = (*Media)(nil)
	_ services.SpeakerRepository = (*Speakers)(nil)
	_ services.HomeRepository    = (*Home)(nil)
)
