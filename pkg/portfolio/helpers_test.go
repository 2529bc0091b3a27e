package portfolio_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tendant/portfolio-content/pkg/portfolio"
	"github.com/tendant/portfolio-content/pkg/portfolio/repo/memory"
	memorystorage "github.com/tendant/portfolio-content/pkg/portfolio/storage/memory"
)

// recordingSink captures events as "name:detail" strings.
type recordingSink struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (r *recordingSink) add(format string, args ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
	return r.err
}

func (r *recordingSink) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

func (r *recordingSink) count(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

func (r *recordingSink) RecordCreated(ctx context.Context, kind string, id uuid.UUID) error {
	return r.add("record_created:%s", kind)
}

func (r *recordingSink) RecordUpdated(ctx context.Context, kind string, id uuid.UUID) error {
	return r.add("record_updated:%s", kind)
}

func (r *recordingSink) RecordDeleted(ctx context.Context, kind string, id uuid.UUID) error {
	return r.add("record_deleted:%s", kind)
}

func (r *recordingSink) BlobWritten(ctx context.Context, kind portfolio.AssetKind, key string, size int64) error {
	return r.add("blob_written:%s", key)
}

func (r *recordingSink) BlobDeleted(ctx context.Context, key string) error {
	return r.add("blob_deleted:%s", key)
}

func (r *recordingSink) BlobOrphaned(ctx context.Context, key string, cause error) error {
	return r.add("blob_orphaned:%s", key)
}

func (r *recordingSink) EnrichmentFailed(ctx context.Context, source string, cause error) error {
	return r.add("enrichment_failed:%s", source)
}

// stubResolver returns canned metadata.
type stubResolver struct {
	mu           sync.Mutex
	artwork      string
	artworkErr   error
	artworkCalls int
	video        *portfolio.VideoMetadata
	videoErr     error
	lastVideoID  string
}

func (s *stubResolver) ResolveArtwork(ctx context.Context, audioURL string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artworkCalls++
	return s.artwork, s.artworkErr
}

func (s *stubResolver) ResolveVideo(ctx context.Context, videoID string) (*portfolio.VideoMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastVideoID = videoID
	return s.video, s.videoErr
}

// spyStore wraps the memory backend with injectable failures.
type spyStore struct {
	*memorystorage.Backend

	mu           sync.Mutex
	uploadErrFor string // key prefix whose uploads fail
	statErr      error
	deleteErr    error
	deleted      []string
}

func (s *spyStore) UploadWithParams(ctx context.Context, r io.Reader, params portfolio.UploadParams) error {
	s.mu.Lock()
	prefix := s.uploadErrFor
	s.mu.Unlock()
	if prefix != "" && strings.HasPrefix(params.ObjectKey, prefix) {
		return errors.New("disk full")
	}
	return s.Backend.UploadWithParams(ctx, r, params)
}

func (s *spyStore) GetObjectMeta(ctx context.Context, key string) (*portfolio.ObjectMeta, error) {
	s.mu.Lock()
	err := s.statErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.Backend.GetObjectMeta(ctx, key)
}

func (s *spyStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	s.deleted = append(s.deleted, key)
	err := s.deleteErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Backend.Delete(ctx, key)
}

func (s *spyStore) deletedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

// faultyRepo wraps the memory repository with injectable commit failures.
type faultyRepo struct {
	*memory.Repository

	createErr error
	updateErr error
	// beforeUpdate runs once ahead of the first UpdateTrack or UpdateVideo
	beforeUpdate func()
	once         sync.Once
}

func (r *faultyRepo) CreateTrack(ctx context.Context, t *portfolio.Track) error {
	if r.createErr != nil {
		return r.createErr
	}
	return r.Repository.CreateTrack(ctx, t)
}

func (r *faultyRepo) CreateVideo(ctx context.Context, v *portfolio.Video) error {
	if r.createErr != nil {
		return r.createErr
	}
	return r.Repository.CreateVideo(ctx, v)
}

func (r *faultyRepo) UpdateTrack(ctx context.Context, t *portfolio.Track, prev time.Time) error {
	r.hook()
	if r.updateErr != nil {
		return r.updateErr
	}
	return r.Repository.UpdateTrack(ctx, t, prev)
}

func (r *faultyRepo) UpdateVideo(ctx context.Context, v *portfolio.Video, prev time.Time) error {
	r.hook()
	if r.updateErr != nil {
		return r.updateErr
	}
	return r.Repository.UpdateVideo(ctx, v, prev)
}

func (r *faultyRepo) hook() {
	if r.beforeUpdate != nil {
		r.once.Do(r.beforeUpdate)
	}
}

type fixture struct {
	svc      portfolio.Service
	repo     *faultyRepo
	store    *spyStore
	sink     *recordingSink
	resolver *stubResolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     &faultyRepo{Repository: memory.New()},
		store:    &spyStore{Backend: memorystorage.New()},
		sink:     &recordingSink{},
		resolver: &stubResolver{},
	}
	svc, err := portfolio.New(
		portfolio.WithRepository(f.repo),
		portfolio.WithBlobStore("memory", f.store),
		portfolio.WithMetadataResolver(f.resolver),
		portfolio.WithEventSink(f.sink),
	)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) exists(t *testing.T, key string) bool {
	t.Helper()
	_, err := f.store.Backend.GetObjectMeta(context.Background(), key)
	if err != nil {
		require.True(t, portfolio.IsBlobNotFound(err), "unexpected error: %v", err)
		return false
	}
	return true
}

func (f *fixture) read(t *testing.T, key string) string {
	t.Helper()
	rc, err := f.store.Backend.Download(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func upload(name, body string) *portfolio.Upload {
	return &portfolio.Upload{
		FileName: name,
		Size:     int64(len(body)),
		Reader:   strings.NewReader(body),
	}
}

func ptr[T any](v T) *T {
	return &v
}
