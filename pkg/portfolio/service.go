package portfolio

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Service defines the main interface for the portfolio content backend
type Service interface {
	// Track operations
	CreateTrack(ctx context.Context, req CreateTrackRequest) (*Track, error)
	GetTrack(ctx context.Context, id uuid.UUID) (*Track, error)
	UpdateTrack(ctx context.Context, id uuid.UUID, req UpdateTrackRequest) (*Track, error)
	DeleteTrack(ctx context.Context, id uuid.UUID) error
	ListTracks(ctx context.Context, filter ListFilter) ([]*Track, error)

	// Video operations
	CreateVideo(ctx context.Context, req CreateVideoRequest) (*Video, error)
	GetVideo(ctx context.Context, id uuid.UUID) (*Video, error)
	UpdateVideo(ctx context.Context, id uuid.UUID, req UpdateVideoRequest) (*Video, error)
	DeleteVideo(ctx context.Context, id uuid.UUID) error
	ListVideos(ctx context.Context, filter ListFilter) ([]*Video, error)

	// FetchVideoDetails looks up platform metadata for a video id or URL.
	// Unlike artwork enrichment, failures are returned to the caller.
	FetchVideoDetails(ctx context.Context, videoIDOrURL string) (*VideoMetadata, error)

	// OpenAsset streams a locally-owned blob
	OpenAsset(ctx context.Context, key string) (io.ReadCloser, *ObjectMeta, error)
}
