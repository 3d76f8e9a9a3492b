package services

import (
	"context"
	"strings"
	"time"

	"kioskcms/internal/assets"
	"kioskcms/internal/logger"
	"kioskcms/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HomeScreen manages the hero video singleton.
type HomeScreen struct {
	home         HomeRepository
	uploader     assets.Uploader
	notify       Notifier
	defaultVideo string
	log          *logger.Logger
	now          func() time.Time
}

func NewHomeScreen(home HomeRepository, uploader assets.Uploader, notify Notifier, defaultVideo string, log *logger.Logger) *HomeScreen {
	return &HomeScreen{
		home:         home,
		uploader:     uploader,
		notify:       notifierOrNop(notify),
		defaultVideo: defaultVideo,
		log:          log.With("service", "HomeScreen"),
		now:          time.Now,
	}
}

// Get returns the home document, creating it with the default video the
// first time.
func (h *HomeScreen) Get(ctx context.Context) (*models.Home, error) {
	home, err := h.home.Get(ctx)
	if err == nil {
		return home, nil
	}
	if !isNoDocuments(err) {
		return nil, StorageError(err, "Failed to fetch home configuration")
	}

	now := h.now()
	home = &models.Home{
		ID:        primitive.NewObjectID(),
		VideoURL:  h.defaultVideo,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.home.Upsert(ctx, home); err != nil {
		return nil, StorageError(err, "Failed to create home configuration")
	}
	h.log.Info("Home configuration created with default video")
	return home, nil
}

func (h *HomeScreen) SetVideoURL(ctx context.Context, videoURL string) (*models.Home, error) {
	videoURL = strings.TrimSpace(videoURL)
	if videoURL == "" {
		return nil, ValidationError("Video URL is required")
	}
	return h.save(ctx, videoURL)
}

func (h *HomeScreen) UploadVideo(ctx context.Context, video *Upload) (*models.Home, error) {
	if video == nil {
		return nil, ValidationError("No video file provided")
	}
	if err := ValidateUpload(models.MediaVideo, video); err != nil {
		return nil, err
	}
	obj, err := h.uploader.Upload(ctx, video.Data, strings.ToLower(video.ContentType))
	if err != nil {
		return nil, UploadError(err, "Failed to upload video")
	}
	return h.save(ctx, obj.URL)
}

func (h *HomeScreen) save(ctx context.Context, videoURL string) (*models.Home, error) {
	home, err := h.Get(ctx)
	if err != nil {
		return nil, err
	}
	home.VideoURL = videoURL
	home.UpdatedAt = h.now()
	if err := h.home.Upsert(ctx, home); err != nil {
		return nil, StorageError(err, "Failed to update video")
	}
	publish(h.notify, home.UpdatedAt, "home.updated", "home", home.ID)
	return home, nil
}
