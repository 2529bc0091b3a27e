package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/portfolio-content/pkg/portfolio"
)

// Repository implements portfolio.Repository using in-memory storage
type Repository struct {
	mu     sync.RWMutex
	tracks map[uuid.UUID]*portfolio.Track
	videos map[uuid.UUID]*portfolio.Video
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		tracks: make(map[uuid.UUID]*portfolio.Track),
		videos: make(map[uuid.UUID]*portfolio.Video),
	}
}

// Track operations

func (r *Repository) CreateTrack(ctx context.Context, track *portfolio.Track) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tracks[track.ID]; exists {
		return fmt.Errorf("track %s already exists", track.ID)
	}

	// Store a copy so callers cannot mutate repository state
	trackCopy := *track
	r.tracks[track.ID] = &trackCopy
	return nil
}

func (r *Repository) GetTrack(ctx context.Context, id uuid.UUID) (*portfolio.Track, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	track, exists := r.tracks[id]
	if !exists {
		return nil, portfolio.ErrNotFound
	}
	trackCopy := *track
	return &trackCopy, nil
}

func (r *Repository) UpdateTrack(ctx context.Context, track *portfolio.Track, prevUpdatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.tracks[track.ID]
	if !exists {
		return portfolio.ErrNotFound
	}
	if !stored.UpdatedAt.Equal(prevUpdatedAt) {
		return portfolio.ErrConcurrentUpdate
	}

	trackCopy := *track
	trackCopy.CreatedAt = stored.CreatedAt
	r.tracks[track.ID] = &trackCopy
	return nil
}

func (r *Repository) DeleteTrack(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tracks[id]; !exists {
		return portfolio.ErrNotFound
	}
	delete(r.tracks, id)
	return nil
}

func (r *Repository) ListTracks(ctx context.Context, filter portfolio.ListFilter) ([]*portfolio.Track, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*portfolio.Track, 0, len(r.tracks))
	for _, track := range r.tracks {
		if filter.Match(track.Published, track.Featured) {
			trackCopy := *track
			result = append(result, &trackCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return newerFirst(result[i].CreatedAt, result[j].CreatedAt, result[i].ID, result[j].ID)
	})
	return result, nil
}

// Video operations

func (r *Repository) CreateVideo(ctx context.Context, video *portfolio.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.videos[video.ID]; exists {
		return fmt.Errorf("video %s already exists", video.ID)
	}

	videoCopy := *video
	r.videos[video.ID] = &videoCopy
	return nil
}

func (r *Repository) GetVideo(ctx context.Context, id uuid.UUID) (*portfolio.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	video, exists := r.videos[id]
	if !exists {
		return nil, portfolio.ErrNotFound
	}
	videoCopy := *video
	return &videoCopy, nil
}

func (r *Repository) UpdateVideo(ctx context.Context, video *portfolio.Video, prevUpdatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.videos[video.ID]
	if !exists {
		return portfolio.ErrNotFound
	}
	if !stored.UpdatedAt.Equal(prevUpdatedAt) {
		return portfolio.ErrConcurrentUpdate
	}

	videoCopy := *video
	videoCopy.CreatedAt = stored.CreatedAt
	r.videos[video.ID] = &videoCopy
	return nil
}

func (r *Repository) DeleteVideo(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.videos[id]; !exists {
		return portfolio.ErrNotFound
	}
	delete(r.videos, id)
	return nil
}

func (r *Repository) ListVideos(ctx context.Context, filter portfolio.ListFilter) ([]*portfolio.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*portfolio.Video, 0, len(r.videos))
	for _, video := range r.videos {
		if filter.Match(video.Published, video.Featured) {
			videoCopy := *video
			result = append(result, &videoCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return newerFirst(result[i].CreatedAt, result[j].CreatedAt, result[i].ID, result[j].ID)
	})
	return result, nil
}

// ListLocalAssetKeys returns every blob key referenced by any record
func (r *Repository) ListLocalAssetKeys(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var keys []string
	for _, track := range r.tracks {
		keys = append(keys, track.LocalKeys()...)
	}
	for _, video := range r.videos {
		keys = append(keys, video.LocalKeys()...)
	}
	sort.Strings(keys)
	return keys, nil
}

// newerFirst orders by creation time descending, breaking ties by id so
// listings are stable.
func newerFirst(a, b time.Time, aID, bID uuid.UUID) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return aID.String() < bID.String()
}

var _ portfolio.Repository = (*Repository)(nil)
