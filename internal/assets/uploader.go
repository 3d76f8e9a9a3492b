package assets

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"kioskcms/internal/logger"
)

// Object is a stored asset. Key addresses it in the bucket, URL is what the
// kiosk loads.
type Object struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

// Uploader is the asset host used by the media, speaker and home services.
type Uploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

type GCSConfig struct {
	Bucket          string
	CDNDomain       string
	CredentialsFile string
	Prefix          string
}

type GCSUploader struct {
	log       *logger.Logger
	client    *storage.Client
	bucket    string
	cdnDomain string
	prefix    string
	now       func() time.Time
}

func NewGCSUploader(ctx context.Context, cfg GCSConfig, log *logger.Logger) (*GCSUploader, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("missing storage bucket")
	}
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if creds := strings.TrimSpace(cfg.CredentialsFile); creds != "" {
		if strings.HasPrefix(creds, "{") {
			opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
		} else {
			opts = append(opts, option.WithCredentialsFile(creds))
		}
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSUploader{
		log:       log.With("service", "GCSUploader"),
		client:    client,
		bucket:    cfg.Bucket,
		cdnDomain: strings.TrimSpace(cfg.CDNDomain),
		prefix:    strings.Trim(cfg.Prefix, "/"),
		now:       time.Now,
	}, nil
}

func (u *GCSUploader) Upload(ctx context.Context, data []byte, contentType string) (Object, error) {
	key := u.objectKey(contentType)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := u.client.Bucket(u.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return Object{}, fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return Object{}, fmt.Errorf("failed to close GCS writer: %w", err)
	}

	u.log.Debug("Asset uploaded", "key", key, "contentType", contentType, "size", len(data))
	return Object{Key: key, URL: u.PublicURL(key), ContentType: contentType, Size: int64(len(data))}, nil
}

// readCloserWithCancel keeps the read context alive until the caller closes
// the reader.
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

func (u *GCSUploader) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)
	r, err := u.client.Bucket(u.bucket).Object(key).NewReader(ctx2)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open GCS reader: %w", err)
	}
	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

func (u *GCSUploader) Close() error {
	return u.client.Close()
}

func (u *GCSUploader) PublicURL(key string) string {
	if u.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", u.cdnDomain, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, key)
}

func (u *GCSUploader) objectKey(contentType string) string {
	name := uuid.NewString() + ExtensionFor(contentType)
	return path.Join(u.prefix, u.now().UTC().Format("2006/01"), name)
}

// ExtensionFor maps the content types the CMS accepts to a file extension.
func ExtensionFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "video/mp4":
		return ".mp4"
	case "video/mpeg":
		return ".mpeg"
	case "video/quicktime":
		return ".mov"
	case "application/pdf":
		return ".pdf"
	default:
		return ""
	}
}
