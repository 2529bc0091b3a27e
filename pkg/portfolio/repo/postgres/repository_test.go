package postgres

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/portfolio-content/pkg/portfolio"
)

func TestFilterClause(t *testing.T) {
	yes := true
	tests := []struct {
		name      string
		filter    portfolio.ListFilter
		wantWhere string
		wantArgs  []interface{}
	}{
		{"none", portfolio.ListFilter{}, "", nil},
		{"all", portfolio.ListFilter{Published: portfolio.PublishedAll}, "", nil},
		{"published", portfolio.ListFilter{Published: portfolio.PublishedOnly}, " WHERE published = $1", []interface{}{true}},
		{"unpublished", portfolio.ListFilter{Published: portfolio.UnpublishedOnly}, " WHERE published = $1", []interface{}{false}},
		{"featured", portfolio.ListFilter{Featured: &yes}, " WHERE featured = $1", []interface{}{true}},
		{"both", portfolio.ListFilter{Published: portfolio.PublishedOnly, Featured: &yes}, " WHERE published = $1 AND featured = $2", []interface{}{true, true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := filterClause(tt.filter)
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestAssetRef_LegacyRows(t *testing.T) {
	local := "local"
	external := "external"

	assert.Equal(t, portfolio.AssetRef{}, assetRef("", nil))
	assert.Equal(t, portfolio.LocalAsset("audio/a.mp3"), assetRef("audio/a.mp3", &local))
	assert.Equal(t, portfolio.ExternalAsset("https://soundcloud.com/a/b"), assetRef("https://soundcloud.com/a/b", &external))

	// No origin stored: classify by shape
	assert.Equal(t, portfolio.LocalAsset("/uploads/audio/a.mp3"), assetRef("/uploads/audio/a.mp3", nil))
	assert.Equal(t, portfolio.ExternalAsset("https://i1.sndcdn.com/x.jpg"), assetRef("https://i1.sndcdn.com/x.jpg", nil))
}

func TestOriginValue(t *testing.T) {
	assert.Nil(t, originValue(portfolio.AssetRef{}))
	assert.Equal(t, "local", originValue(portfolio.LocalAsset("audio/a.mp3")))
}

// newTestRepository connects to TEST_DATABASE_URL inside a throwaway schema.
func newTestRepository(t *testing.T) (*Repository, *pgxpool.Pool) {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	schemaName := "portfolio_test_" + strings.ReplaceAll(uuid.NewString()[:8], "-", "")

	admin, err := pgxpool.New(ctx, connString)
	require.NoError(t, err, "Failed to connect to test database")
	_, err = admin.Exec(ctx, fmt.Sprintf("CREATE SCHEMA %s", schemaName))
	require.NoError(t, err)

	cfg, err := pgxpool.ParseConfig(connString)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schemaName
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
		_, _ = admin.Exec(context.Background(), fmt.Sprintf("DROP SCHEMA %s CASCADE", schemaName))
		admin.Close()
	})

	require.NoError(t, Migrate(ctx, pool))
	return NewWithPool(pool), pool
}

func TestPostgresRepository_Tracks(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	track := &portfolio.Track{
		ID:        uuid.New(),
		Title:     "Night Drive",
		Audio:     portfolio.ExternalAsset("https://soundcloud.com/artist/night-drive"),
		Cover:     portfolio.ExternalAsset("https://i1.sndcdn.com/artworks-xyz.jpg"),
		FileSize:  "4.2 MB",
		Published: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.CreateTrack(ctx, track))

	got, err := repo.GetTrack(ctx, track.ID)
	require.NoError(t, err)
	assert.Equal(t, track, got)

	updated := *got
	updated.Audio = portfolio.LocalAsset("audio/1-abcdef12-night.mp3")
	updated.Cover = portfolio.AssetRef{}
	updated.UpdatedAt = now.Add(time.Second)
	require.NoError(t, repo.UpdateTrack(ctx, &updated, now))

	err = repo.UpdateTrack(ctx, &updated, now)
	assert.ErrorIs(t, err, portfolio.ErrConcurrentUpdate)

	err = repo.UpdateTrack(ctx, &portfolio.Track{ID: uuid.New(), Title: "x"}, now)
	assert.ErrorIs(t, err, portfolio.ErrNotFound)

	published, err := repo.ListTracks(ctx, portfolio.ListFilter{Published: portfolio.PublishedOnly})
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, updated.Audio, published[0].Audio)
	assert.True(t, published[0].Cover.IsZero())

	keys, err := repo.ListLocalAssetKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"audio/1-abcdef12-night.mp3"}, keys)

	require.NoError(t, repo.DeleteTrack(ctx, track.ID))
	_, err = repo.GetTrack(ctx, track.ID)
	assert.ErrorIs(t, err, portfolio.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteTrack(ctx, track.ID), portfolio.ErrNotFound)
}

func TestPostgresRepository_LegacyOrigin(t *testing.T) {
	repo, pool := newTestRepository(t)
	ctx := context.Background()

	id := uuid.New()
	_, err := pool.Exec(ctx, `INSERT INTO music_tracks (id, title, audio_ref, cover_ref) VALUES ($1, $2, $3, $4)`,
		id, "legacy", "https://soundcloud.com/a/b", "images/old-cover.png")
	require.NoError(t, err)

	track, err := repo.GetTrack(ctx, id)
	require.NoError(t, err)
	assert.True(t, track.Audio.IsExternal())
	assert.True(t, track.Cover.IsLocal())
}

func TestPostgresRepository_Videos(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)

	for i, title := range []string{"first", "second"} {
		require.NoError(t, repo.CreateVideo(ctx, &portfolio.Video{
			ID:        uuid.New(),
			Title:     title,
			VideoID:   "abc12" + fmt.Sprint(i),
			Thumbnail: portfolio.LocalAsset("images/thumb-" + title + ".jpg"),
			Featured:  i == 1,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base,
		}))
	}

	all, err := repo.ListVideos(ctx, portfolio.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "second", all[0].Title)

	yes := true
	featured, err := repo.ListVideos(ctx, portfolio.ListFilter{Featured: &yes})
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, "second", featured[0].Title)

	keys, err := repo.ListLocalAssetKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"images/thumb-first.jpg", "images/thumb-second.jpg"}, keys)
}
