package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"kioskcms/internal/assets"
	"kioskcms/internal/logger"
	"kioskcms/models"

	"github.com/patrickmn/go-cache"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxUploadBytes is the size ceiling for every uploaded file.
const MaxUploadBytes = 25 * 1024 * 1024

var allowedContentTypes = map[models.MediaKind][]string{
	models.MediaImage: {"image/jpeg", "image/png", "image/webp", "image/gif"},
	models.MediaVideo: {"video/mp4", "video/mpeg", "video/quicktime"},
	models.MediaPDF:   {"application/pdf"},
	models.MediaQR:    {"image/png", "image/webp", "image/jpeg", "application/pdf"},
}

// Upload is a file received from the CMS.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// ValidateUpload checks the declared content type against the kind's
// allow-list and the size ceiling.
func ValidateUpload(kind models.MediaKind, u *Upload) error {
	if u == nil {
		return ValidationError("No file uploaded")
	}
	allowed, ok := allowedContentTypes[kind]
	if !ok {
		return ValidationError("Files cannot be uploaded for type %s", kind)
	}
	contentType := strings.ToLower(strings.TrimSpace(u.ContentType))
	found := false
	for _, a := range allowed {
		if a == contentType {
			found = true
			break
		}
	}
	if !found {
		return ValidationError("Invalid file type. Expected %s for type %s, got %s",
			strings.Join(allowed, ", "), kind, u.ContentType)
	}
	size := u.Size
	if int64(len(u.Data)) > size {
		size = int64(len(u.Data))
	}
	if size > MaxUploadBytes {
		return ValidationError("File too large (max 25MB)")
	}
	if len(u.Data) == 0 {
		return ValidationError("Uploaded file is empty")
	}
	return nil
}

// DecodeDataURL turns a "data:<type>;base64,<payload>" string into an Upload.
// fallbackType is used when the data URL carries no media type.
func DecodeDataURL(dataURL, fallbackType string) (*Upload, error) {
	header, payload, ok := strings.Cut(strings.TrimSpace(dataURL), ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, ValidationError("Image must be a base64 data URL")
	}
	contentType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	if contentType == "" {
		contentType = fallbackType
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ValidationError("Image data is not valid base64")
	}
	return &Upload{ContentType: contentType, Size: int64(len(data)), Data: data}, nil
}

// NormalizeWebsiteURL trims the input, prefixes https:// when no scheme is
// given and requires an absolute URL with a host.
func NormalizeWebsiteURL(raw string) (string, error) {
	normalized := strings.TrimSpace(raw)
	if normalized == "" {
		return "", ValidationError("Website URL is required")
	}
	if !strings.HasPrefix(normalized, "http://") && !strings.HasPrefix(normalized, "https://") {
		normalized = "https://" + normalized
	}
	u, err := url.Parse(normalized)
	if err != nil || u.Host == "" {
		return "", ValidationError("Invalid URL format. Please enter a valid website URL")
	}
	return normalized, nil
}

type CreateMediaInput struct {
	Title      string
	Kind       string
	File       *Upload
	WebsiteURL string
}

type UpdateMediaInput struct {
	Title      *string
	Kind       *string
	File       *Upload
	WebsiteURL *string
}

// MediaStore owns uploaded asset records. Title lookups from the kiosk are
// served from a short-lived cache that every mutation flushes, locally and
// through Invalidate for mutations on other instances.
type MediaStore struct {
	media    MediaRepository
	uploader assets.Uploader
	notify   Notifier
	cache    *cache.Cache
	log      *logger.Logger
	now      func() time.Time
}

func NewMediaStore(media MediaRepository, uploader assets.Uploader, notify Notifier, log *logger.Logger) *MediaStore {
	return &MediaStore{
		media:    media,
		uploader: uploader,
		notify:   notifierOrNop(notify),
		cache:    cache.New(5*time.Minute, 10*time.Minute),
		log:      log.With("service", "MediaStore"),
		now:      time.Now,
	}
}

func parseKind(raw string) (models.MediaKind, error) {
	kind := models.MediaKind(strings.ToLower(strings.TrimSpace(raw)))
	if kind == "" {
		return "", ValidationError("Type is required")
	}
	if !kind.Valid() {
		names := make([]string, 0, len(models.MediaKinds))
		for _, k := range models.MediaKinds {
			names = append(names, string(k))
		}
		return "", ValidationError("Invalid type: %s. Allowed types: %s", raw, strings.Join(names, ", "))
	}
	return kind, nil
}

func (s *MediaStore) Create(ctx context.Context, in CreateMediaInput) (*models.Media, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ValidationError("Title is required")
	}
	kind, err := parseKind(in.Kind)
	if err != nil {
		return nil, err
	}
	if kind == models.MediaWebsite {
		return s.CreateWebsite(ctx, title, in.WebsiteURL)
	}
	if err := ValidateUpload(kind, in.File); err != nil {
		return nil, err
	}

	obj, err := s.uploader.Upload(ctx, in.File.Data, strings.ToLower(in.File.ContentType))
	if err != nil {
		return nil, UploadError(err, "Failed to upload file")
	}

	now := s.now()
	media := &models.Media{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Kind:        kind,
		URL:         obj.URL,
		ContentType: obj.ContentType,
		AssetKey:    obj.Key,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.media.Insert(ctx, media); err != nil {
		return nil, StorageError(err, "Failed to save media")
	}

	s.log.Info("Media created", "mediaId", media.ID.Hex(), "type", kind, "key", obj.Key)
	s.changed(now, "media.created", media.ID)
	return media, nil
}

// CreateWebsite stores a link-only media record.
func (s *MediaStore) CreateWebsite(ctx context.Context, title, websiteURL string) (*models.Media, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ValidationError("Title is required")
	}
	normalized, err := NormalizeWebsiteURL(websiteURL)
	if err != nil {
		return nil, err
	}

	now := s.now()
	media := &models.Media{
		ID:         primitive.NewObjectID(),
		Title:      title,
		Kind:       models.MediaWebsite,
		WebsiteURL: normalized,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.media.Insert(ctx, media); err != nil {
		return nil, StorageError(err, "Failed to save website")
	}

	s.log.Info("Website created", "mediaId", media.ID.Hex(), "websiteUrl", normalized)
	s.changed(now, "media.created", media.ID)
	return media, nil
}

// FindByTitle matches the full title case-insensitively.
func (s *MediaStore) FindByTitle(ctx context.Context, title string) (*models.Media, error) {
	return s.findByTitle(ctx, title, false, "Media not found")
}

// FindWebsiteByTitle is FindByTitle restricted to records with a website URL.
func (s *MediaStore) FindWebsiteByTitle(ctx context.Context, title string) (*models.Media, error) {
	return s.findByTitle(ctx, title, true, "Website not found")
}

func (s *MediaStore) findByTitle(ctx context.Context, title string, websiteOnly bool, missing string) (*models.Media, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ValidationError("Title parameter is required")
	}

	key := fmt.Sprintf("%t:%s", websiteOnly, strings.ToLower(title))
	if cached, ok := s.cache.Get(key); ok {
		m := cached.(models.Media)
		return &m, nil
	}

	media, err := s.media.FindByTitle(ctx, title, websiteOnly)
	if err != nil {
		if isNoDocuments(err) {
			return nil, NotFoundError("%s", missing)
		}
		return nil, StorageError(err, "Failed to fetch media")
	}
	s.cache.Set(key, *media, cache.DefaultExpiration)
	return media, nil
}

func (s *MediaStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Media, error) {
	media, err := s.media.FindByID(ctx, id)
	if err != nil {
		if isNoDocuments(err) {
			return nil, NotFoundError("Media not found")
		}
		return nil, StorageError(err, "Failed to fetch media")
	}
	return media, nil
}

func (s *MediaStore) List(ctx context.Context) ([]models.Media, error) {
	media, err := s.media.List(ctx)
	if err != nil {
		return nil, StorageError(err, "Failed to fetch media")
	}
	return media, nil
}

func (s *MediaStore) Update(ctx context.Context, id primitive.ObjectID, in UpdateMediaInput) (*models.Media, error) {
	media, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	kind := media.Kind
	if in.Kind != nil && strings.TrimSpace(*in.Kind) != "" {
		if kind, err = parseKind(*in.Kind); err != nil {
			return nil, err
		}
	}

	if in.File != nil {
		if !kind.IsUpload() {
			return nil, ValidationError("Files cannot be uploaded for type %s", kind)
		}
		if err := ValidateUpload(kind, in.File); err != nil {
			return nil, err
		}
		obj, err := s.uploader.Upload(ctx, in.File.Data, strings.ToLower(in.File.ContentType))
		if err != nil {
			return nil, UploadError(err, "Failed to upload file")
		}
		media.URL = obj.URL
		media.AssetKey = obj.Key
		media.ContentType = obj.ContentType
	}

	if in.WebsiteURL != nil {
		if kind != models.MediaWebsite {
			return nil, ValidationError("Website URL only applies to type website")
		}
		normalized, err := NormalizeWebsiteURL(*in.WebsiteURL)
		if err != nil {
			return nil, err
		}
		media.WebsiteURL = normalized
	}

	if kind == models.MediaWebsite && media.WebsiteURL == "" {
		return nil, ValidationError("Website URL is required")
	}
	if kind.IsUpload() && media.URL == "" {
		return nil, ValidationError("No file uploaded")
	}

	if in.Title != nil {
		if title := strings.TrimSpace(*in.Title); title != "" {
			media.Title = title
		}
	}
	media.Kind = kind
	media.UpdatedAt = s.now()

	if err := s.media.Update(ctx, media); err != nil {
		return nil, StorageError(err, "Failed to update media")
	}

	s.changed(media.UpdatedAt, "media.updated", media.ID)
	return media, nil
}

// Delete removes the record only. Bubbles referencing it keep a dangling
// reference and the stored file stays on the asset host.
func (s *MediaStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if _, err := s.media.Delete(ctx, id); err != nil {
		return StorageError(err, "Failed to delete media")
	}
	s.log.Info("Media deleted", "mediaId", id.Hex())
	s.changed(s.now(), "media.deleted", id)
	return nil
}

// Open streams the stored file for download. The caller closes the reader.
func (s *MediaStore) Open(ctx context.Context, id primitive.ObjectID) (*models.Media, io.ReadCloser, error) {
	media, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if media.AssetKey == "" {
		return nil, nil, NotFoundError("No file URL available")
	}
	rc, err := s.uploader.Open(ctx, media.AssetKey)
	if err != nil {
		return nil, nil, UploadError(err, "Failed to fetch file")
	}
	return media, rc, nil
}

// Invalidate drops cached title lookups when a media event arrives from the
// change feed, including events committed by other server instances.
func (s *MediaStore) Invalidate(event models.ChangeEvent) {
	if event.Resource != "media" {
		return
	}
	s.cache.Flush()
}

func (s *MediaStore) changed(at time.Time, eventType string, id primitive.ObjectID) {
	s.cache.Flush()
	publish(s.notify, at, eventType, "media", id)
}
