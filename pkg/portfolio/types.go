package portfolio

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AssetOrigin tells whether an asset ref is owned by the BlobStore.
type AssetOrigin string

// Asset origin constants (typed).
const (
	AssetOriginNone     AssetOrigin = ""
	AssetOriginLocal    AssetOrigin = "local"
	AssetOriginExternal AssetOrigin = "external"
)

// IsValid reports whether o is a known origin.
func (o AssetOrigin) IsValid() bool {
	switch o {
	case AssetOriginNone, AssetOriginLocal, AssetOriginExternal:
		return true
	}
	return false
}

// AssetKind partitions the BlobStore.
type AssetKind string

// Asset kind constants (typed).
const (
	AssetKindAudio AssetKind = "audio"
	AssetKindImage AssetKind = "images"
	AssetKindVideo AssetKind = "video"
)

// AssetRef is a single asset field of a record.
//
// For local refs, Ref is the BlobStore key. For external refs, Ref is a URL
// or platform identifier.
type AssetRef struct {
	Origin AssetOrigin `json:"origin,omitempty"`
	Ref    string      `json:"ref,omitempty"`
}

// LocalAsset returns a ref owned by the BlobStore.
func LocalAsset(key string) AssetRef {
	return AssetRef{Origin: AssetOriginLocal, Ref: key}
}

// ExternalAsset returns a ref to third-party media.
func ExternalAsset(ref string) AssetRef {
	return AssetRef{Origin: AssetOriginExternal, Ref: ref}
}

// IsZero reports whether the field is absent.
func (a AssetRef) IsZero() bool {
	return a.Ref == ""
}

// IsLocal reports whether the ref is a BlobStore key.
func (a AssetRef) IsLocal() bool {
	return a.Origin == AssetOriginLocal && a.Ref != ""
}

// IsExternal reports whether the ref points at third-party media.
func (a AssetRef) IsExternal() bool {
	return a.Origin == AssetOriginExternal && a.Ref != ""
}

// InferOrigin classifies a ref stored without an origin. It only exists for
// rows written before origins were recorded; new writes always set Origin.
func InferOrigin(ref string) AssetOrigin {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return AssetOriginNone
	}
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "//") {
		return AssetOriginExternal
	}
	return AssetOriginLocal
}

// Track represents a music track.
type Track struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	Audio       AssetRef  `json:"audio"`
	Cover       AssetRef  `json:"cover"`
	FileSize    string    `json:"file_size,omitempty"`
	Published   bool      `json:"published"`
	Featured    bool      `json:"featured"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LocalKeys returns the BlobStore keys owned by the track.
func (t *Track) LocalKeys() []string {
	return localKeys(t.Audio, t.Cover)
}

// Video represents a video, either embedded from a platform or self-hosted.
//
// VideoID and VideoFile may coexist; which one drives playback is decided by
// the presentation layer.
type Video struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	VideoID     string    `json:"video_id,omitempty"`
	VideoFile   AssetRef  `json:"video_file"`
	Thumbnail   AssetRef  `json:"thumbnail"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	ViewCount   string    `json:"view_count,omitempty"`
	Published   bool      `json:"published"`
	Featured    bool      `json:"featured"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LocalKeys returns the BlobStore keys owned by the video.
func (v *Video) LocalKeys() []string {
	return localKeys(v.VideoFile, v.Thumbnail)
}

func localKeys(refs ...AssetRef) []string {
	var keys []string
	for _, r := range refs {
		if r.IsLocal() {
			keys = append(keys, r.Ref)
		}
	}
	return keys
}

// VideoMetadata is what the video platform reports for a video id.
type VideoMetadata struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url"`
	ViewCount    string `json:"view_count"`
}

// PublishedFilter selects records by publication state.
type PublishedFilter string

// Published filter constants (typed).
const (
	PublishedOnly   PublishedFilter = "true"
	UnpublishedOnly PublishedFilter = "false"
	PublishedAll    PublishedFilter = "all"
)

// ListFilter restricts a listing. The zero value lists everything.
type ListFilter struct {
	Published PublishedFilter
	Featured  *bool
}
