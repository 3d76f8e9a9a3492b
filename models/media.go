package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MediaKind string

const (
	MediaImage   MediaKind = "image"
	MediaVideo   MediaKind = "video"
	MediaPDF     MediaKind = "pdf"
	MediaQR      MediaKind = "qr"
	MediaWebsite MediaKind = "website"
)

// MediaKinds lists every accepted kind in display order.
var MediaKinds = []MediaKind{MediaImage, MediaVideo, MediaPDF, MediaQR, MediaWebsite}

// Valid reports whether k is one of the known kinds.
func (k MediaKind) Valid() bool {
	for _, known := range MediaKinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsUpload reports whether the kind is backed by an uploaded file rather than
// an external website link.
func (k MediaKind) IsUpload() bool {
	return k.Valid() && k != MediaWebsite
}

// Media is an asset shown from a leaf bubble. URL is authoritative for
// uploaded kinds, WebsiteURL for kind website.
type Media struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Kind        MediaKind          `bson:"type" json:"type"`
	URL         string             `bson:"url,omitempty" json:"url,omitempty"`
	WebsiteURL  string             `bson:"websiteUrl,omitempty" json:"websiteUrl,omitempty"`
	ContentType string             `bson:"contentType,omitempty" json:"contentType,omitempty"`
	AssetKey    string             `bson:"assetKey,omitempty" json:"-"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Location returns the URL the kiosk should open for this asset.
func (m Media) Location() string {
	if m.Kind == MediaWebsite {
		return m.WebsiteURL
	}
	return m.URL
}
