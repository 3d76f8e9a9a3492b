package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"kioskcms/internal/assets"
	"kioskcms/internal/locks"
	"kioskcms/internal/logger"
	"kioskcms/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const scheduleLockKey = "speakers:schedule"

type CreateSpeakerInput struct {
	Name        string
	Designation string
	Thumbnail   *Upload
	// Popup defaults to the thumbnail when nil.
	Popup     *Upload
	StartTime string
	EndTime   string
	Order     int
}

// UpdateSpeakerInput leaves nil fields unchanged. A new image upload wins over
// a URL; a non-empty URL replaces the stored one.
type UpdateSpeakerInput struct {
	Name          *string
	Designation   *string
	Thumbnail     *Upload
	Popup         *Upload
	ImageURL      *string
	PopupImageURL *string
	StartTime     *string
	EndTime       *string
	Order         *int
}

// SpeakerSchedule owns speaker records and keeps their time windows from
// overlapping, so at most one window is open for any instant.
type SpeakerSchedule struct {
	speakers SpeakerRepository
	uploader assets.Uploader
	locker   locks.Locker
	notify   Notifier
	loc      *time.Location
	log      *logger.Logger
	now      func() time.Time
}

func NewSpeakerSchedule(speakers SpeakerRepository, uploader assets.Uploader, locker locks.Locker, notify Notifier, loc *time.Location, log *logger.Logger) *SpeakerSchedule {
	if locker == nil {
		locker = locks.NewLocalLocker()
	}
	if loc == nil {
		loc = time.Local
	}
	return &SpeakerSchedule{
		speakers: speakers,
		uploader: uploader,
		locker:   locker,
		notify:   notifierOrNop(notify),
		loc:      loc,
		log:      log.With("service", "SpeakerSchedule"),
		now:      time.Now,
	}
}

func (s *SpeakerSchedule) Create(ctx context.Context, in CreateSpeakerInput) (*models.Speaker, error) {
	name := strings.TrimSpace(in.Name)
	designation := strings.TrimSpace(in.Designation)
	if name == "" {
		return nil, ValidationError("Name is required")
	}
	if designation == "" {
		return nil, ValidationError("Designation is required")
	}
	if in.Thumbnail == nil {
		return nil, ValidationError("No file provided")
	}
	if err := ValidateUpload(models.MediaImage, in.Thumbnail); err != nil {
		return nil, err
	}
	if in.Popup != nil {
		if err := ValidateUpload(models.MediaImage, in.Popup); err != nil {
			return nil, err
		}
	}
	window, err := ParseWindow(in.StartTime, in.EndTime)
	if err != nil {
		return nil, ValidationError("%s", err.Error())
	}

	// Unlocked pre-check so an obvious conflict stores no images.
	if err := s.checkConflict(ctx, window, primitive.NilObjectID); err != nil {
		return nil, err
	}

	imageURL, err := s.upload(ctx, in.Thumbnail)
	if err != nil {
		return nil, err
	}
	popupURL := imageURL
	if in.Popup != nil {
		if popupURL, err = s.upload(ctx, in.Popup); err != nil {
			return nil, err
		}
	}

	// The lock only covers check-then-insert, which stays well inside the
	// lock TTL. Images uploaded by a writer that loses here are orphaned.
	release, err := s.locker.Lock(ctx, scheduleLockKey)
	if err != nil {
		return nil, StorageError(err, "Failed to lock speaker schedule")
	}
	defer release()

	if err := s.checkConflict(ctx, window, primitive.NilObjectID); err != nil {
		return nil, err
	}

	now := s.now()
	speaker := &models.Speaker{
		ID:            primitive.NewObjectID(),
		Name:          name,
		Designation:   designation,
		ImageURL:      imageURL,
		PopupImageURL: popupURL,
		StartTime:     FormatClock(window.Start),
		EndTime:       FormatClock(window.End),
		Order:         in.Order,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.speakers.Insert(ctx, speaker); err != nil {
		return nil, StorageError(err, "Failed to create speaker")
	}

	s.log.Info("Speaker created", "speakerId", speaker.ID.Hex(), "window", window.String())
	publish(s.notify, now, "speaker.created", "speaker", speaker.ID)
	return speaker, nil
}

func (s *SpeakerSchedule) Update(ctx context.Context, id primitive.ObjectID, in UpdateSpeakerInput) (*models.Speaker, error) {
	for _, img := range []*Upload{in.Thumbnail, in.Popup} {
		if img != nil {
			if err := ValidateUpload(models.MediaImage, img); err != nil {
				return nil, err
			}
		}
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.applyFields(ctx, current, in); err != nil {
		return nil, err
	}

	var imageURL, popupURL string
	if in.Thumbnail != nil {
		if imageURL, err = s.upload(ctx, in.Thumbnail); err != nil {
			return nil, err
		}
	}
	if in.Popup != nil {
		if popupURL, err = s.upload(ctx, in.Popup); err != nil {
			return nil, err
		}
	}

	release, err := s.locker.Lock(ctx, scheduleLockKey)
	if err != nil {
		return nil, StorageError(err, "Failed to lock speaker schedule")
	}
	defer release()

	// Re-read under the lock; another writer may have changed the record.
	speaker, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	window, err := s.applyFields(ctx, speaker, in)
	if err != nil {
		return nil, err
	}

	if in.ImageURL != nil && strings.TrimSpace(*in.ImageURL) != "" {
		speaker.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if in.PopupImageURL != nil && strings.TrimSpace(*in.PopupImageURL) != "" {
		speaker.PopupImageURL = strings.TrimSpace(*in.PopupImageURL)
	}
	if imageURL != "" {
		speaker.ImageURL = imageURL
	}
	if popupURL != "" {
		speaker.PopupImageURL = popupURL
	}
	if speaker.PopupImageURL == "" {
		speaker.PopupImageURL = speaker.ImageURL
	}

	speaker.StartTime = FormatClock(window.Start)
	speaker.EndTime = FormatClock(window.End)
	if in.Order != nil {
		speaker.Order = *in.Order
	}
	speaker.UpdatedAt = s.now()

	if err := s.speakers.Update(ctx, speaker); err != nil {
		return nil, StorageError(err, "Failed to update speaker")
	}

	publish(s.notify, speaker.UpdatedAt, "speaker.updated", "speaker", speaker.ID)
	return speaker, nil
}

// applyFields sets the text fields of in on speaker and returns the resulting
// window once it is known not to overlap another speaker.
func (s *SpeakerSchedule) applyFields(ctx context.Context, speaker *models.Speaker, in UpdateSpeakerInput) (Window, error) {
	if in.Name != nil {
		if speaker.Name = strings.TrimSpace(*in.Name); speaker.Name == "" {
			return Window{}, ValidationError("Name is required")
		}
	}
	if in.Designation != nil {
		if speaker.Designation = strings.TrimSpace(*in.Designation); speaker.Designation == "" {
			return Window{}, ValidationError("Designation is required")
		}
	}
	start, end := speaker.StartTime, speaker.EndTime
	if in.StartTime != nil {
		start = *in.StartTime
	}
	if in.EndTime != nil {
		end = *in.EndTime
	}
	window, err := ParseWindow(start, end)
	if err != nil {
		return Window{}, ValidationError("%s", err.Error())
	}
	if err := s.checkConflict(ctx, window, speaker.ID); err != nil {
		return Window{}, err
	}
	return window, nil
}

func (s *SpeakerSchedule) Delete(ctx context.Context, id primitive.ObjectID) error {
	deleted, err := s.speakers.Delete(ctx, id)
	if err != nil {
		return StorageError(err, "Failed to delete speaker")
	}
	if !deleted {
		return NotFoundError("Speaker not found")
	}
	s.log.Info("Speaker deleted", "speakerId", id.Hex())
	publish(s.notify, s.now(), "speaker.deleted", "speaker", id)
	return nil
}

func (s *SpeakerSchedule) Get(ctx context.Context, id primitive.ObjectID) (*models.Speaker, error) {
	speaker, err := s.speakers.FindByID(ctx, id)
	if err != nil {
		if isNoDocuments(err) {
			return nil, NotFoundError("Speaker not found")
		}
		return nil, StorageError(err, "Failed to fetch speaker")
	}
	return speaker, nil
}

// List returns speakers by display order.
func (s *SpeakerSchedule) List(ctx context.Context) ([]models.Speaker, error) {
	speakers, err := s.speakers.List(ctx)
	if err != nil {
		return nil, StorageError(err, "Failed to fetch speakers")
	}
	return speakers, nil
}

// IsLive reports whether at, read as venue wall-clock time, falls inside the
// speaker's window with both ends inclusive. Records with unparsable times
// are never live.
func (s *SpeakerSchedule) IsLive(speaker models.Speaker, at time.Time) bool {
	window, err := ParseWindow(speaker.StartTime, speaker.EndTime)
	if err != nil {
		return false
	}
	return window.ContainsMinute(MinuteOfDay(at, s.loc))
}

// LiveAt returns the live speaker at the instant, or nil. On the shared
// boundary minute of two touching windows both are live; the one starting
// later wins.
func (s *SpeakerSchedule) LiveAt(ctx context.Context, at time.Time) (*models.Speaker, error) {
	speakers, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.pickLive(speakers, at), nil
}

// Views returns every speaker with its live flag set, plus the live id.
func (s *SpeakerSchedule) Views(ctx context.Context, at time.Time) ([]models.SpeakerView, *primitive.ObjectID, error) {
	speakers, err := s.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	live := s.pickLive(speakers, at)

	views := make([]models.SpeakerView, 0, len(speakers))
	var liveID *primitive.ObjectID
	for _, sp := range speakers {
		isLive := live != nil && sp.ID == live.ID
		if isLive {
			id := sp.ID
			liveID = &id
		}
		views = append(views, models.SpeakerView{Speaker: sp, IsLive: isLive})
	}
	return views, liveID, nil
}

func (s *SpeakerSchedule) pickLive(speakers []models.Speaker, at time.Time) *models.Speaker {
	var live []models.Speaker
	for _, sp := range speakers {
		if s.IsLive(sp, at) {
			live = append(live, sp)
		}
	}
	if len(live) == 0 {
		return nil
	}
	sort.SliceStable(live, func(i, j int) bool {
		si, _ := ParseClock(live[i].StartTime)
		sj, _ := ParseClock(live[j].StartTime)
		if si != sj {
			return si > sj
		}
		return live[i].Order < live[j].Order
	})
	return &live[0]
}

// checkConflict runs the overlap predicate against every other speaker. It
// must be called with the schedule lock held.
func (s *SpeakerSchedule) checkConflict(ctx context.Context, window Window, exclude primitive.ObjectID) error {
	speakers, err := s.speakers.List(ctx)
	if err != nil {
		return StorageError(err, "Failed to check speaker schedule")
	}
	for _, other := range speakers {
		if other.ID == exclude {
			continue
		}
		otherWindow, err := ParseWindow(other.StartTime, other.EndTime)
		if err != nil {
			s.log.Warn("Skipping speaker with invalid window", "speakerId", other.ID.Hex(), "error", err)
			continue
		}
		if window.Overlaps(otherWindow) {
			return ConflictError("Time slot overlaps with %s (%s - %s). Only one speaker can be live at a time.",
				other.Name, other.StartTime, other.EndTime)
		}
	}
	return nil
}

func (s *SpeakerSchedule) upload(ctx context.Context, img *Upload) (string, error) {
	obj, err := s.uploader.Upload(ctx, img.Data, strings.ToLower(img.ContentType))
	if err != nil {
		return "", UploadError(err, "Failed to upload image")
	}
	return obj.URL, nil
}
