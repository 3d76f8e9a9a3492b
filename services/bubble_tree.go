package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"kioskcms/internal/logger"
	"kioskcms/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateBubbleInput carries a new bubble. Unset or null references create a
// root bubble without media.
type CreateBubbleInput struct {
	Title          string
	ParentBubbleID models.NullableID
	MediaID        models.NullableID
}

// UpdateBubbleInput carries a partial update. A nil Title or an unset
// reference leaves that field unchanged; an explicit null reference clears it.
type UpdateBubbleInput struct {
	Title          *string
	ParentBubbleID models.NullableID
	MediaID        models.NullableID
}

// BubbleTree owns the navigation forest and its referential rules.
type BubbleTree struct {
	bubbles BubbleRepository
	media   MediaRepository
	notify  Notifier
	log     *logger.Logger
	now     func() time.Time
}

func NewBubbleTree(bubbles BubbleRepository, media MediaRepository, notify Notifier, log *logger.Logger) *BubbleTree {
	return &BubbleTree{
		bubbles: bubbles,
		media:   media,
		notify:  notifierOrNop(notify),
		log:     log.With("service", "BubbleTree"),
		now:     time.Now,
	}
}

func (t *BubbleTree) Create(ctx context.Context, in CreateBubbleInput) (*models.BubbleView, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ValidationError("Title is required")
	}
	if in.ParentBubbleID.Valid {
		if _, err := t.findBubble(ctx, in.ParentBubbleID.ID, "Parent bubble not found"); err != nil {
			return nil, err
		}
	}
	if in.MediaID.Valid {
		if err := t.requireMedia(ctx, in.MediaID.ID); err != nil {
			return nil, err
		}
	}

	now := t.now()
	bubble := &models.Bubble{
		ID:             primitive.NewObjectID(),
		Title:          title,
		ParentBubbleID: in.ParentBubbleID.Ptr(),
		MediaID:        in.MediaID.Ptr(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := t.bubbles.Insert(ctx, bubble); err != nil {
		return nil, StorageError(err, "Failed to create bubble")
	}

	t.log.Info("Bubble created", "bubbleId", bubble.ID.Hex(), "parentBubbleId", idString(bubble.ParentBubbleID))
	publish(t.notify, now, "bubble.created", "bubble", bubble.ID)
	return t.view(ctx, *bubble)
}

func (t *BubbleTree) Get(ctx context.Context, id primitive.ObjectID) (*models.BubbleView, error) {
	bubble, err := t.findBubble(ctx, id, "Bubble not found")
	if err != nil {
		return nil, err
	}
	return t.view(ctx, *bubble)
}

// List returns bubbles with media resolved. An unset parent lists every
// bubble, an explicit null lists roots, a value lists that bubble's children.
func (t *BubbleTree) List(ctx context.Context, parent models.NullableID) ([]models.BubbleView, error) {
	bubbles, err := t.bubbles.Find(ctx, parent)
	if err != nil {
		return nil, StorageError(err, "Failed to fetch bubbles")
	}
	return t.views(ctx, bubbles)
}

func (t *BubbleTree) Update(ctx context.Context, id primitive.ObjectID, in UpdateBubbleInput) (*models.BubbleView, error) {
	bubble, err := t.findBubble(ctx, id, "Bubble not found")
	if err != nil {
		return nil, err
	}

	if in.ParentBubbleID.Valid {
		if in.ParentBubbleID.ID == id {
			return nil, ValidationError("A bubble cannot be its own parent")
		}
		if !sameID(bubble.ParentBubbleID, in.ParentBubbleID.ID) {
			parent, err := t.findBubble(ctx, in.ParentBubbleID.ID, "Parent bubble not found")
			if err != nil {
				return nil, err
			}
			if err := t.rejectCycle(ctx, id, parent); err != nil {
				return nil, err
			}
		}
	}

	if in.MediaID.Valid && !sameID(bubble.MediaID, in.MediaID.ID) {
		if err := t.requireMedia(ctx, in.MediaID.ID); err != nil {
			return nil, err
		}
		if bubble.MediaID == nil {
			t.warnIfBranch(ctx, id)
		}
	}

	if in.Title != nil {
		if title := strings.TrimSpace(*in.Title); title != "" {
			bubble.Title = title
		}
	}
	if in.ParentBubbleID.Set {
		bubble.ParentBubbleID = in.ParentBubbleID.Ptr()
	}
	if in.MediaID.Set {
		bubble.MediaID = in.MediaID.Ptr()
	}
	bubble.UpdatedAt = t.now()

	if err := t.bubbles.Update(ctx, bubble); err != nil {
		return nil, StorageError(err, "Failed to update bubble")
	}

	publish(t.notify, bubble.UpdatedAt, "bubble.updated", "bubble", bubble.ID)
	return t.view(ctx, *bubble)
}

// Delete removes the bubble and every transitive descendant. Descendants go
// first in one batch, then the bubble itself. There is no compensation if the
// second step fails.
func (t *BubbleTree) Delete(ctx context.Context, id primitive.ObjectID) (*models.BubbleDeleteResult, error) {
	if _, err := t.findBubble(ctx, id, "Bubble not found"); err != nil {
		return nil, err
	}

	descendants, err := t.Descendants(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(descendants) > 0 {
		if _, err := t.bubbles.DeleteMany(ctx, descendants); err != nil {
			return nil, StorageError(err, "Failed to delete child bubbles")
		}
	}
	if _, err := t.bubbles.Delete(ctx, id); err != nil {
		return nil, StorageError(err, "Failed to delete bubble")
	}

	t.log.Info("Bubble deleted", "bubbleId", id.Hex(), "descendants", len(descendants))
	publish(t.notify, t.now(), "bubble.deleted", "bubble", id)
	return &models.BubbleDeleteResult{DeletedCount: len(descendants) + 1}, nil
}

// Descendants collects every transitive child of id, one query per tree
// level. Ids already seen are skipped so corrupt data with a cycle still
// terminates.
func (t *BubbleTree) Descendants(ctx context.Context, id primitive.ObjectID) ([]primitive.ObjectID, error) {
	seen := map[primitive.ObjectID]bool{id: true}
	var out []primitive.ObjectID

	frontier := []primitive.ObjectID{id}
	for len(frontier) > 0 {
		children, err := t.bubbles.ChildIDs(ctx, frontier)
		if err != nil {
			return nil, StorageError(err, "Failed to collect child bubbles")
		}
		next := make([]primitive.ObjectID, 0, len(children))
		for _, child := range children {
			if seen[child] {
				continue
			}
			seen[child] = true
			out = append(out, child)
			next = append(next, child)
		}
		frontier = next
	}
	return out, nil
}

// Tree returns the whole forest nested under its roots. Bubbles whose parent
// no longer exists are not reachable from a root and are left out.
func (t *BubbleTree) Tree(ctx context.Context) ([]models.BubbleView, error) {
	all, err := t.List(ctx, models.NullableID{})
	if err != nil {
		return nil, err
	}

	children := make(map[primitive.ObjectID][]models.BubbleView)
	var roots []models.BubbleView
	for _, v := range all {
		if v.ParentBubbleID == nil {
			roots = append(roots, v)
			continue
		}
		children[*v.ParentBubbleID] = append(children[*v.ParentBubbleID], v)
	}

	// A node reachable from a root cannot sit on a cycle, so the recursion
	// terminates.
	var attach func(nodes []models.BubbleView) []models.BubbleView
	attach = func(nodes []models.BubbleView) []models.BubbleView {
		sortViews(nodes)
		for i := range nodes {
			nodes[i].Children = attach(children[nodes[i].ID])
		}
		return nodes
	}
	return attach(roots), nil
}

// rejectCycle walks up from the proposed parent; meeting id on the way means
// the move would put the bubble under its own descendant.
func (t *BubbleTree) rejectCycle(ctx context.Context, id primitive.ObjectID, parent *models.Bubble) error {
	seen := map[primitive.ObjectID]bool{}
	cur := parent
	for cur != nil && cur.ParentBubbleID != nil {
		next := *cur.ParentBubbleID
		if next == id {
			return ValidationError("A bubble cannot be moved under one of its own descendants")
		}
		if seen[next] {
			return nil
		}
		seen[next] = true

		ancestor, err := t.bubbles.FindByID(ctx, next)
		if err != nil {
			if isNoDocuments(err) {
				return nil
			}
			return StorageError(err, "Failed to fetch bubble")
		}
		cur = ancestor
	}
	return nil
}

func (t *BubbleTree) warnIfBranch(ctx context.Context, id primitive.ObjectID) {
	children, err := t.bubbles.ChildIDs(ctx, []primitive.ObjectID{id})
	if err != nil {
		t.log.Warn("Could not count children", "bubbleId", id.Hex(), "error", err)
		return
	}
	if len(children) > 0 {
		t.log.Warn("Adding media to parent bubble", "bubbleId", id.Hex(), "children", len(children))
	}
}

func (t *BubbleTree) findBubble(ctx context.Context, id primitive.ObjectID, missing string) (*models.Bubble, error) {
	bubble, err := t.bubbles.FindByID(ctx, id)
	if err != nil {
		if isNoDocuments(err) {
			return nil, NotFoundError("%s", missing)
		}
		return nil, StorageError(err, "Failed to fetch bubble")
	}
	return bubble, nil
}

func (t *BubbleTree) requireMedia(ctx context.Context, id primitive.ObjectID) error {
	if _, err := t.media.FindByID(ctx, id); err != nil {
		if isNoDocuments(err) {
			return NotFoundError("Media not found")
		}
		return StorageError(err, "Failed to fetch media")
	}
	return nil
}

func (t *BubbleTree) view(ctx context.Context, bubble models.Bubble) (*models.BubbleView, error) {
	views, err := t.views(ctx, []models.Bubble{bubble})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// views resolves media references with a single batch lookup. A dangling
// reference resolves to nil media.
func (t *BubbleTree) views(ctx context.Context, bubbles []models.Bubble) ([]models.BubbleView, error) {
	var mediaIDs []primitive.ObjectID
	for _, b := range bubbles {
		if b.MediaID != nil {
			mediaIDs = append(mediaIDs, *b.MediaID)
		}
	}

	byID := map[primitive.ObjectID]models.Media{}
	if len(mediaIDs) > 0 {
		media, err := t.media.FindByIDs(ctx, mediaIDs)
		if err != nil {
			return nil, StorageError(err, "Failed to resolve media")
		}
		for _, m := range media {
			byID[m.ID] = m
		}
	}

	out := make([]models.BubbleView, 0, len(bubbles))
	for _, b := range bubbles {
		v := models.BubbleView{Bubble: b}
		if b.MediaID != nil {
			if m, ok := byID[*b.MediaID]; ok {
				m := m
				v.Media = &m
			}
		}
		out = append(out, v)
	}
	return out, nil
}

func sortViews(views []models.BubbleView) {
	sort.SliceStable(views, func(i, j int) bool {
		if views[i].CreatedAt.Equal(views[j].CreatedAt) {
			return views[i].ID.Hex() < views[j].ID.Hex()
		}
		return views[i].CreatedAt.Before(views[j].CreatedAt)
	})
}

func sameID(current *primitive.ObjectID, id primitive.ObjectID) bool {
	return current != nil && *current == id
}

func idString(id *primitive.ObjectID) string {
	if id == nil {
		return "null"
	}
	return id.Hex()
}
