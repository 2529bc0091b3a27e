package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/portfolio-content/pkg/portfolio"
	"github.com/tendant/portfolio-content/pkg/portfolio/repo/memory"
)

func newTrack(title string, createdAt time.Time, published, featured bool) *portfolio.Track {
	return &portfolio.Track{
		ID:        uuid.New(),
		Title:     title,
		Audio:     portfolio.LocalAsset("audio/" + title + ".mp3"),
		Published: published,
		Featured:  featured,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestMemoryRepository_TrackOperations(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	now := time.Now().UTC()

	track := newTrack("first", now, true, false)
	require.NoError(t, repo.CreateTrack(ctx, track))

	t.Run("GetTrack", func(t *testing.T) {
		got, err := repo.GetTrack(ctx, track.ID)
		require.NoError(t, err)
		assert.Equal(t, track.Title, got.Title)
		assert.Equal(t, track.Audio, got.Audio)

		// Returned value is a copy
		got.Title = "mutated"
		again, err := repo.GetTrack(ctx, track.ID)
		require.NoError(t, err)
		assert.Equal(t, "first", again.Title)
	})

	t.Run("GetTrack_NotFound", func(t *testing.T) {
		_, err := repo.GetTrack(ctx, uuid.New())
		assert.ErrorIs(t, err, portfolio.ErrNotFound)
	})

	t.Run("CreateTrack_Duplicate", func(t *testing.T) {
		assert.Error(t, repo.CreateTrack(ctx, track))
	})

	t.Run("UpdateTrack_CompareAndSwap", func(t *testing.T) {
		updated := *track
		updated.Title = "renamed"
		updated.UpdatedAt = now.Add(time.Second)
		require.NoError(t, repo.UpdateTrack(ctx, &updated, track.UpdatedAt))

		stale := *track
		stale.Title = "stale"
		stale.UpdatedAt = now.Add(2 * time.Second)
		err := repo.UpdateTrack(ctx, &stale, track.UpdatedAt)
		assert.ErrorIs(t, err, portfolio.ErrConcurrentUpdate)

		got, err := repo.GetTrack(ctx, track.ID)
		require.NoError(t, err)
		assert.Equal(t, "renamed", got.Title)
	})

	t.Run("UpdateTrack_NotFound", func(t *testing.T) {
		missing := newTrack("missing", now, false, false)
		err := repo.UpdateTrack(ctx, missing, now)
		assert.ErrorIs(t, err, portfolio.ErrNotFound)
	})

	t.Run("DeleteTrack", func(t *testing.T) {
		require.NoError(t, repo.DeleteTrack(ctx, track.ID))
		assert.ErrorIs(t, repo.DeleteTrack(ctx, track.ID), portfolio.ErrNotFound)
	})
}

func TestMemoryRepository_ListTracks(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	oldest := newTrack("oldest", base, true, true)
	middle := newTrack("middle", base.Add(time.Hour), false, false)
	newest := newTrack("newest", base.Add(2*time.Hour), true, false)
	for _, tr := range []*portfolio.Track{middle, oldest, newest} {
		require.NoError(t, repo.CreateTrack(ctx, tr))
	}

	yes := true
	tests := []struct {
		name   string
		filter portfolio.ListFilter
		want   []string
	}{
		{"all", portfolio.ListFilter{}, []string{"newest", "middle", "oldest"}},
		{"explicit all", portfolio.ListFilter{Published: portfolio.PublishedAll}, []string{"newest", "middle", "oldest"}},
		{"published", portfolio.ListFilter{Published: portfolio.PublishedOnly}, []string{"newest", "oldest"}},
		{"unpublished", portfolio.ListFilter{Published: portfolio.UnpublishedOnly}, []string{"middle"}},
		{"featured", portfolio.ListFilter{Featured: &yes}, []string{"oldest"}},
		{"published and featured", portfolio.ListFilter{Published: portfolio.PublishedOnly, Featured: &yes}, []string{"oldest"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracks, err := repo.ListTracks(ctx, tt.filter)
			require.NoError(t, err)
			var titles []string
			for _, tr := range tracks {
				titles = append(titles, tr.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestMemoryRepository_Videos(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	now := time.Now().UTC()

	video := &portfolio.Video{
		ID:        uuid.New(),
		Title:     "clip",
		VideoID:   "abc123",
		VideoFile: portfolio.LocalAsset("video/clip.mp4"),
		Thumbnail: portfolio.ExternalAsset("https://img.example.com/t.jpg"),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.CreateVideo(ctx, video))

	got, err := repo.GetVideo(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, "abc123", got.VideoID)

	got.ViewCount = "1,000"
	got.UpdatedAt = now.Add(time.Second)
	require.NoError(t, repo.UpdateVideo(ctx, got, now))
	assert.ErrorIs(t, repo.UpdateVideo(ctx, got, now), portfolio.ErrConcurrentUpdate)

	videos, err := repo.ListVideos(ctx, portfolio.ListFilter{Published: portfolio.PublishedOnly})
	require.NoError(t, err)
	assert.Empty(t, videos)

	require.NoError(t, repo.DeleteVideo(ctx, video.ID))
	_, err = repo.GetVideo(ctx, video.ID)
	assert.ErrorIs(t, err, portfolio.ErrNotFound)
}

func TestMemoryRepository_ListLocalAssetKeys(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.CreateTrack(ctx, &portfolio.Track{
		ID:    uuid.New(),
		Title: "local",
		Audio: portfolio.LocalAsset("audio/a.mp3"),
		Cover: portfolio.LocalAsset("images/a.png"),
	}))
	require.NoError(t, repo.CreateTrack(ctx, &portfolio.Track{
		ID:    uuid.New(),
		Title: "external",
		Audio: portfolio.ExternalAsset("https://soundcloud.com/artist/song"),
		Cover: portfolio.ExternalAsset("https://i1.sndcdn.com/artworks-1.jpg"),
	}))
	require.NoError(t, repo.CreateVideo(ctx, &portfolio.Video{
		ID:        uuid.New(),
		Title:     "clip",
		VideoFile: portfolio.LocalAsset("video/b.mp4"),
		CreatedAt: now,
	}))

	keys, err := repo.ListLocalAssetKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"audio/a.mp3", "images/a.png", "video/b.mp4"}, keys)
}
