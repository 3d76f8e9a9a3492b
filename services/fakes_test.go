package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"kioskcms/internal/assets"
	"kioskcms/internal/logger"
	"kioskcms/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// --- bubbles ---

type fakeBubbleRepo struct {
	mu            sync.Mutex
	items         map[primitive.ObjectID]models.Bubble
	order         []primitive.ObjectID
	childQueries  int
	deleteManyErr error
}

func newFakeBubbleRepo() *fakeBubbleRepo {
	return &fakeBubbleRepo{items: map[primitive.ObjectID]models.Bubble{}}
}

func (r *fakeBubbleRepo) Insert(_ context.Context, b *models.Bubble) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[b.ID] = *b
	r.order = append(r.order, b.ID)
	return nil
}

func (r *fakeBubbleRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Bubble, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.items[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &b, nil
}

func (r *fakeBubbleRepo) Find(_ context.Context, parent models.NullableID) ([]models.Bubble, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Bubble
	for _, id := range r.order {
		b, ok := r.items[id]
		if !ok {
			continue
		}
		switch {
		case !parent.Set:
		case !parent.Valid && b.ParentBubbleID != nil:
			continue
		case parent.Valid && (b.ParentBubbleID == nil || *b.ParentBubbleID != parent.ID):
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *fakeBubbleRepo) ChildIDs(_ context.Context, parentIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.childQueries++
	want := map[primitive.ObjectID]bool{}
	for _, id := range parentIDs {
		want[id] = true
	}
	var out []primitive.ObjectID
	for _, id := range r.order {
		b, ok := r.items[id]
		if ok && b.ParentBubbleID != nil && want[*b.ParentBubbleID] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *fakeBubbleRepo) Update(_ context.Context, b *models.Bubble) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[b.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	r.items[b.ID] = *b
	return nil
}

func (r *fakeBubbleRepo) DeleteMany(_ context.Context, ids []primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteManyErr != nil {
		return 0, r.deleteManyErr
	}
	var n int64
	for _, id := range ids {
		if _, ok := r.items[id]; ok {
			delete(r.items, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeBubbleRepo) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return false, nil
	}
	delete(r.items, id)
	return true, nil
}

func (r *fakeBubbleRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// --- media ---

type fakeMediaRepo struct {
	mu          sync.Mutex
	items       map[primitive.ObjectID]models.Media
	order       []primitive.ObjectID
	titleLookup int
}

func newFakeMediaRepo() *fakeMediaRepo {
	return &fakeMediaRepo{items: map[primitive.ObjectID]models.Media{}}
}

func (r *fakeMediaRepo) Insert(_ context.Context, m *models.Media) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[m.ID] = *m
	r.order = append(r.order, m.ID)
	return nil
}

func (r *fakeMediaRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &m, nil
}

func (r *fakeMediaRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Media
	for _, id := range ids {
		if m, ok := r.items[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMediaRepo) FindByTitle(_ context.Context, title string, websiteOnly bool) (*models.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titleLookup++
	for _, id := range r.order {
		m, ok := r.items[id]
		if !ok || !strings.EqualFold(m.Title, title) {
			continue
		}
		if websiteOnly && m.WebsiteURL == "" {
			continue
		}
		return &m, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeMediaRepo) List(_ context.Context) ([]models.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Media
	for i := len(r.order) - 1; i >= 0; i-- {
		if m, ok := r.items[r.order[i]]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMediaRepo) Update(_ context.Context, m *models.Media) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[m.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	r.items[m.ID] = *m
	return nil
}

func (r *fakeMediaRepo) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return false, nil
	}
	delete(r.items, id)
	return true, nil
}

// --- speakers ---

type fakeSpeakerRepo struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Speaker
	// listDelay widens the read-then-write gap to exercise the schedule lock.
	listDelay time.Duration
}

func newFakeSpeakerRepo() *fakeSpeakerRepo {
	return &fakeSpeakerRepo{items: map[primitive.ObjectID]models.Speaker{}}
}

func (r *fakeSpeakerRepo) Insert(_ context.Context, s *models.Speaker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[s.ID] = *s
	return nil
}

func (r *fakeSpeakerRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Speaker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &s, nil
}

func (r *fakeSpeakerRepo) List(_ context.Context) ([]models.Speaker, error) {
	if r.listDelay > 0 {
		time.Sleep(r.listDelay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
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

func (r *fakeSpeakerRepo) Update(_ context.Context, s *models.Speaker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[s.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	r.items[s.ID] = *s
	return nil
}

func (r *fakeSpeakerRepo) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return false, nil
	}
	delete(r.items, id)
	return true, nil
}

// --- home ---

type fakeHomeRepo struct {
	mu   sync.Mutex
	home *models.Home
}

func (r *fakeHomeRepo) Get(_ context.Context) (*models.Home, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.home == nil {
		return nil, mongo.ErrNoDocuments
	}
	h := *r.home
	return &h, nil
}

func (r *fakeHomeRepo) Upsert(_ context.Context, h *models.Home) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *h
	r.home = &c
	return nil
}

// --- asset host ---

var errUploadDown = errors.New("asset host unavailable")

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	calls   int
	err     error
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: map[string][]byte{}}
}

func (u *fakeUploader) Upload(_ context.Context, data []byte, contentType string) (assets.Object, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return assets.Object{}, u.err
	}
	u.calls++
	key := fmt.Sprintf("obj-%d%s", u.calls, assets.ExtensionFor(contentType))
	u.objects[key] = append([]byte(nil), data...)
	return assets.Object{
		Key:         key,
		URL:         "https://assets.test/" + key,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

func (u *fakeUploader) Open(_ context.Context, key string) (io.ReadCloser, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	data, ok := u.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// --- notifier ---

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.ChangeEvent
}

func (n *recordingNotifier) Publish(e models.ChangeEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

// --- helpers ---

func pngUpload() *Upload {
	data := []byte("\x89PNG\r\n\x1a\nfake")
	return &Upload{Filename: "a.png", ContentType: "image/png", Size: int64(len(data)), Data: data}
}

func strPtr(s string) *string { return &s }

func testLogger() *logger.Logger { return logger.Nop() }
