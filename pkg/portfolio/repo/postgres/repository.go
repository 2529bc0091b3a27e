package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/portfolio-content/pkg/portfolio"
)

//go:embed schema.sql
var schema string

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements portfolio.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Migrate creates the tables and indexes if they do not exist
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return portfolio.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: duplicate entry (%s)", operation, pgErr.ConstraintName)
		case "23502": // not_null_violation
			return fmt.Errorf("%s: %w: required field %s is missing", operation, portfolio.ErrInvalidInput, pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("%s: table does not exist - database migration required", operation)
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// originValue stores the origin of a present ref, or NULL for an absent one
func originValue(a portfolio.AssetRef) interface{} {
	if a.IsZero() {
		return nil
	}
	return string(a.Origin)
}

// assetRef rebuilds a ref, classifying rows written before origins were stored
func assetRef(ref string, origin *string) portfolio.AssetRef {
	if ref == "" {
		return portfolio.AssetRef{}
	}
	if origin == nil || *origin == "" {
		return portfolio.AssetRef{Origin: portfolio.InferOrigin(ref), Ref: ref}
	}
	return portfolio.AssetRef{Origin: portfolio.AssetOrigin(*origin), Ref: ref}
}

// filterClause renders a ListFilter as a WHERE clause
func filterClause(filter portfolio.ListFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	if published := filter.PublishedValue(); published != nil {
		args = append(args, *published)
		conds = append(conds, fmt.Sprintf("published = $%d", len(args)))
	}
	if filter.Featured != nil {
		args = append(args, *filter.Featured)
		conds = append(conds, fmt.Sprintf("featured = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Track operations

const trackColumns = `id, title, category, description, audio_ref, audio_origin,
	cover_ref, cover_origin, file_size, published, featured, created_at, updated_at`

func scanTrack(row pgx.Row) (*portfolio.Track, error) {
	var (
		track                    portfolio.Track
		audioRef, coverRef       string
		audioOrigin, coverOrigin *string
	)
	err := row.Scan(
		&track.ID, &track.Title, &track.Category, &track.Description,
		&audioRef, &audioOrigin, &coverRef, &coverOrigin,
		&track.FileSize, &track.Published, &track.Featured,
		&track.CreatedAt, &track.UpdatedAt)
	if err != nil {
		return nil, err
	}
	track.Audio = assetRef(audioRef, audioOrigin)
	track.Cover = assetRef(coverRef, coverOrigin)
	track.CreatedAt = track.CreatedAt.UTC()
	track.UpdatedAt = track.UpdatedAt.UTC()
	return &track, nil
}

func (r *Repository) CreateTrack(ctx context.Context, track *portfolio.Track) error {
	query := `
		INSERT INTO music_tracks (` + trackColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Exec(ctx, query,
		track.ID, track.Title, track.Category, track.Description,
		track.Audio.Ref, originValue(track.Audio), track.Cover.Ref, originValue(track.Cover),
		track.FileSize, track.Published, track.Featured, track.CreatedAt, track.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create track", err)
	}
	return nil
}

func (r *Repository) GetTrack(ctx context.Context, id uuid.UUID) (*portfolio.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM music_tracks WHERE id = $1`

	track, err := scanTrack(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, r.handlePostgresError("get track", err)
	}
	return track, nil
}

func (r *Repository) UpdateTrack(ctx context.Context, track *portfolio.Track, prevUpdatedAt time.Time) error {
	query := `
		UPDATE music_tracks SET
			title = $2, category = $3, description = $4,
			audio_ref = $5, audio_origin = $6, cover_ref = $7, cover_origin = $8,
			file_size = $9, published = $10, featured = $11, updated_at = $12
		WHERE id = $1 AND updated_at = $13`

	tag, err := r.db.Exec(ctx, query,
		track.ID, track.Title, track.Category, track.Description,
		track.Audio.Ref, originValue(track.Audio), track.Cover.Ref, originValue(track.Cover),
		track.FileSize, track.Published, track.Featured, track.UpdatedAt, prevUpdatedAt)
	if err != nil {
		return r.handlePostgresError("update track", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrStale(ctx, "music_tracks", track.ID)
	}
	return nil
}

func (r *Repository) DeleteTrack(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM music_tracks WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete track", err)
	}
	if tag.RowsAffected() == 0 {
		return portfolio.ErrNotFound
	}
	return nil
}

func (r *Repository) ListTracks(ctx context.Context, filter portfolio.ListFilter) ([]*portfolio.Track, error) {
	where, args := filterClause(filter)
	query := `SELECT ` + trackColumns + ` FROM music_tracks` + where + ` ORDER BY created_at DESC, id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("list tracks", err)
	}
	defer rows.Close()

	tracks := make([]*portfolio.Track, 0)
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, r.handlePostgresError("scan track", err)
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list tracks", err)
	}
	return tracks, nil
}

// Video operations

const videoColumns = `id, title, video_id, video_file_ref, video_file_origin,
	thumbnail_ref, thumbnail_origin, category, description, view_count,
	published, featured, created_at, updated_at`

func scanVideo(row pgx.Row) (*portfolio.Video, error) {
	var (
		video                   portfolio.Video
		fileRef, thumbRef       string
		fileOrigin, thumbOrigin *string
	)
	err := row.Scan(
		&video.ID, &video.Title, &video.VideoID,
		&fileRef, &fileOrigin, &thumbRef, &thumbOrigin,
		&video.Category, &video.Description, &video.ViewCount,
		&video.Published, &video.Featured, &video.CreatedAt, &video.UpdatedAt)
	if err != nil {
		return nil, err
	}
	video.VideoFile = assetRef(fileRef, fileOrigin)
	video.Thumbnail = assetRef(thumbRef, thumbOrigin)
	video.CreatedAt = video.CreatedAt.UTC()
	video.UpdatedAt = video.UpdatedAt.UTC()
	return &video, nil
}

func (r *Repository) CreateVideo(ctx context.Context, video *portfolio.Video) error {
	query := `
		INSERT INTO videos (` + videoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.Exec(ctx, query,
		video.ID, video.Title, video.VideoID,
		video.VideoFile.Ref, originValue(video.VideoFile),
		video.Thumbnail.Ref, originValue(video.Thumbnail),
		video.Category, video.Description, video.ViewCount,
		video.Published, video.Featured, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create video", err)
	}
	return nil
}

func (r *Repository) GetVideo(ctx context.Context, id uuid.UUID) (*portfolio.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`

	video, err := scanVideo(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, r.handlePostgresError("get video", err)
	}
	return video, nil
}

func (r *Repository) UpdateVideo(ctx context.Context, video *portfolio.Video, prevUpdatedAt time.Time) error {
	query := `
		UPDATE videos SET
			title = $2, video_id = $3, video_file_ref = $4, video_file_origin = $5,
			thumbnail_ref = $6, thumbnail_origin = $7, category = $8, description = $9,
			view_count = $10, published = $11, featured = $12, updated_at = $13
		WHERE id = $1 AND updated_at = $14`

	tag, err := r.db.Exec(ctx, query,
		video.ID, video.Title, video.VideoID,
		video.VideoFile.Ref, originValue(video.VideoFile),
		video.Thumbnail.Ref, originValue(video.Thumbnail),
		video.Category, video.Description, video.ViewCount,
		video.Published, video.Featured, video.UpdatedAt, prevUpdatedAt)
	if err != nil {
		return r.handlePostgresError("update video", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrStale(ctx, "videos", video.ID)
	}
	return nil
}

func (r *Repository) DeleteVideo(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete video", err)
	}
	if tag.RowsAffected() == 0 {
		return portfolio.ErrNotFound
	}
	return nil
}

func (r *Repository) ListVideos(ctx context.Context, filter portfolio.ListFilter) ([]*portfolio.Video, error) {
	where, args := filterClause(filter)
	query := `SELECT ` + videoColumns + ` FROM videos` + where + ` ORDER BY created_at DESC, id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("list videos", err)
	}
	defer rows.Close()

	videos := make([]*portfolio.Video, 0)
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, r.handlePostgresError("scan video", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list videos", err)
	}
	return videos, nil
}

// ListLocalAssetKeys returns every blob key referenced by any record
func (r *Repository) ListLocalAssetKeys(ctx context.Context) ([]string, error) {
	query := `
		SELECT audio_ref, audio_origin FROM music_tracks WHERE audio_ref <> ''
		UNION ALL
		SELECT cover_ref, cover_origin FROM music_tracks WHERE cover_ref <> ''
		UNION ALL
		SELECT video_file_ref, video_file_origin FROM videos WHERE video_file_ref <> ''
		UNION ALL
		SELECT thumbnail_ref, thumbnail_origin FROM videos WHERE thumbnail_ref <> ''`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, r.handlePostgresError("list asset keys", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var ref string
		var origin *string
		if err := rows.Scan(&ref, &origin); err != nil {
			return nil, r.handlePostgresError("scan asset key", err)
		}
		if a := assetRef(ref, origin); a.IsLocal() {
			keys = append(keys, a.Ref)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list asset keys", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// missingOrStale explains a zero-row conditional update
func (r *Repository) missingOrStale(ctx context.Context, table string, id uuid.UUID) error {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return r.handlePostgresError("check "+table, err)
	}
	if !exists {
		return portfolio.ErrNotFound
	}
	return portfolio.ErrConcurrentUpdate
}

var _ portfolio.Repository = (*Repository)(nil)
