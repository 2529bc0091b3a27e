package portfolio

import "io"

// Request DTOs

// Upload is a binary payload for one asset field.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// AssetChangeKind selects what an update does to an asset field.
type AssetChangeKind int

const (
	// AssetChangeUpload stores a new binary and points the field at it
	AssetChangeUpload AssetChangeKind = iota + 1
	// AssetChangeReference points the field at an external reference
	AssetChangeReference
	// AssetChangeClear removes the field
	AssetChangeClear
)

// AssetChange is a requested change to one asset field. A nil *AssetChange
// in an update request leaves the field untouched.
type AssetChange struct {
	Kind      AssetChangeKind
	Upload    *Upload
	Reference string
}

// ReplaceWithUpload returns a change storing u.
func ReplaceWithUpload(u *Upload) *AssetChange {
	return &AssetChange{Kind: AssetChangeUpload, Upload: u}
}

// ReplaceWithReference returns a change pointing at ref.
func ReplaceWithReference(ref string) *AssetChange {
	return &AssetChange{Kind: AssetChangeReference, Reference: ref}
}

// ClearAsset returns a change removing the field.
func ClearAsset() *AssetChange {
	return &AssetChange{Kind: AssetChangeClear}
}

// CreateTrackRequest contains parameters for creating a track.
// Exactly one of AudioUpload and AudioURL is required; the cover is optional.
type CreateTrackRequest struct {
	Title       string
	Category    string
	Description string
	FileSize    string
	Published   bool
	Featured    bool

	AudioUpload *Upload
	AudioURL    string

	CoverUpload *Upload
	CoverURL    string
}

// UpdateTrackRequest contains parameters for a partial track update.
// Nil fields are preserved; non-nil fields are written as given.
type UpdateTrackRequest struct {
	Title       *string
	Category    *string
	Description *string
	FileSize    *string
	Published   *bool
	Featured    *bool

	Audio *AssetChange
	Cover *AssetChange
}

// CreateVideoRequest contains parameters for creating a video.
// At least one of VideoID and VideoUpload is required.
type CreateVideoRequest struct {
	Title       string
	Category    string
	Description string
	ViewCount   string
	Published   bool
	Featured    bool

	// VideoID is a platform video id or a watch/share URL
	VideoID     string
	VideoUpload *Upload

	ThumbnailUpload *Upload
	ThumbnailURL    string
}

// UpdateVideoRequest contains parameters for a partial video update.
type UpdateVideoRequest struct {
	Title       *string
	Category    *string
	Description *string
	ViewCount   *string
	Published   *bool
	Featured    *bool

	// VideoID set to "" removes the platform id
	VideoID *string

	// VideoFile accepts AssetChangeUpload and AssetChangeClear
	VideoFile *AssetChange
	Thumbnail *AssetChange
}
