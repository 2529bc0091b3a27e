package portfolio

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// BlobStore defines the interface for storage backends holding locally-owned assets
type BlobStore interface {
	// Upload uploads content directly
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// UploadWithParams uploads content with additional parameters
	UploadWithParams(ctx context.Context, reader io.Reader, params UploadParams) error

	// Download downloads content directly. Returns ErrBlobNotFound when absent.
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete deletes content. Returns ErrBlobNotFound when the backend can
	// tell the key was already absent.
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta retrieves metadata for an object. Returns ErrBlobNotFound when absent.
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)

	// List returns metadata for every object whose key starts with prefix
	List(ctx context.Context, prefix string) ([]*ObjectMeta, error)
}

// Repository defines the interface for track and video persistence
type Repository interface {
	// Track operations
	CreateTrack(ctx context.Context, track *Track) error
	GetTrack(ctx context.Context, id uuid.UUID) (*Track, error)
	// UpdateTrack commits track only if the stored updated_at still equals
	// prevUpdatedAt, otherwise it returns ErrConcurrentUpdate.
	UpdateTrack(ctx context.Context, track *Track, prevUpdatedAt time.Time) error
	DeleteTrack(ctx context.Context, id uuid.UUID) error
	ListTracks(ctx context.Context, filter ListFilter) ([]*Track, error)

	// Video operations
	CreateVideo(ctx context.Context, video *Video) error
	GetVideo(ctx context.Context, id uuid.UUID) (*Video, error)
	UpdateVideo(ctx context.Context, video *Video, prevUpdatedAt time.Time) error
	DeleteVideo(ctx context.Context, id uuid.UUID) error
	ListVideos(ctx context.Context, filter ListFilter) ([]*Video, error)

	// ListLocalAssetKeys returns every blob key referenced by any record
	ListLocalAssetKeys(ctx context.Context) ([]string, error)
}

// MetadataResolver looks up third-party metadata for external references
type MetadataResolver interface {
	// ResolveArtwork returns a cover image URL for an external audio URL.
	// Callers treat any error as "no artwork".
	ResolveArtwork(ctx context.Context, audioURL string) (string, error)

	// ResolveVideo returns platform metadata for a video id
	ResolveVideo(ctx context.Context, videoID string) (*VideoMetadata, error)
}

// EventSink defines the interface for event handling
type EventSink interface {
	// RecordCreated is fired when a track or video is created
	RecordCreated(ctx context.Context, kind string, id uuid.UUID) error

	// RecordUpdated is fired when a track or video is updated
	RecordUpdated(ctx context.Context, kind string, id uuid.UUID) error

	// RecordDeleted is fired when a track or video is deleted
	RecordDeleted(ctx context.Context, kind string, id uuid.UUID) error

	// BlobWritten is fired after an upload is stored
	BlobWritten(ctx context.Context, kind AssetKind, key string, size int64) error

	// BlobDeleted is fired after a locally-owned file is removed
	BlobDeleted(ctx context.Context, key string) error

	// BlobOrphaned is fired when a file could not be cleaned up and is left for the reconciler
	BlobOrphaned(ctx context.Context, key string, cause error) error

	// EnrichmentFailed is fired when an optional metadata lookup fails
	EnrichmentFailed(ctx context.Context, source string, cause error) error
}

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
	Metadata    map[string]string
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey string
	MimeType  string
}

// KeyGenerator produces fresh BlobStore keys for uploads of a given kind
type KeyGenerator interface {
	GenerateKey(kind, fileName string) string
}
