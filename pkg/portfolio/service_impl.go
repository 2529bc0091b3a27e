package portfolio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/portfolio-content/pkg/portfolio/blobkey"
)

// Record kinds reported in events and errors
const (
	RecordKindTrack = "track"
	RecordKindVideo = "video"
)

// service implements the Service interface
type service struct {
	repository  Repository
	blobStore   BlobStore
	backendName string
	resolver    MetadataResolver
	eventSink   EventSink
	logger      *slog.Logger
	keys        KeyGenerator
	now         func() time.Time
	locks       *recordLocks
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the blob storage backend holding locally-owned assets
func WithBlobStore(name string, store BlobStore) Option {
	return func(s *service) {
		s.backendName = name
		s.blobStore = store
	}
}

// WithMetadataResolver sets the third-party metadata resolver
func WithMetadataResolver(resolver MetadataResolver) Option {
	return func(s *service) {
		s.resolver = resolver
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithKeyGenerator overrides how blob keys are generated
func WithKeyGenerator(gen KeyGenerator) Option {
	return func(s *service) {
		s.keys = gen
	}
}

// WithClock overrides the time source used for record timestamps
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		locks: newRecordLocks(),
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.blobStore == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.backendName == "" {
		s.backendName = "default"
	}
	if s.resolver == nil {
		s.resolver = NewNoopResolver()
	}
	if s.eventSink == nil {
		s.eventSink = NewNoopEventSink()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.keys == nil {
		s.keys = blobkey.NewTimestampGenerator()
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s, nil
}

// Track operations

func (s *service) CreateTrack(ctx context.Context, req CreateTrackRequest) (*Track, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	audioURL := strings.TrimSpace(req.AudioURL)
	switch {
	case req.AudioUpload != nil && audioURL != "":
		return nil, fmt.Errorf("%w: provide either an audio file or an audio URL, not both", ErrInvalidInput)
	case req.AudioUpload == nil && audioURL == "":
		return nil, fmt.Errorf("%w: audio file or audio URL is required", ErrMissingRequiredAsset)
	case req.AudioUpload != nil:
		if err := ValidateUpload(AssetKindAudio, req.AudioUpload); err != nil {
			return nil, err
		}
	default:
		if err := validateExternalURL("audioUrl", audioURL); err != nil {
			return nil, err
		}
	}

	coverURL := strings.TrimSpace(req.CoverURL)
	if req.CoverUpload != nil && coverURL != "" {
		return nil, fmt.Errorf("%w: provide either a cover image or a cover URL, not both", ErrInvalidInput)
	}
	if req.CoverUpload != nil {
		if err := ValidateUpload(AssetKindImage, req.CoverUpload); err != nil {
			return nil, err
		}
	}
	if coverURL != "" {
		if err := validateExternalURL("coverUrl", coverURL); err != nil {
			return nil, err
		}
	}

	now := s.timestamp()
	track := &Track{
		ID:          uuid.New(),
		Title:       title,
		Category:    req.Category,
		Description: req.Description,
		FileSize:    req.FileSize,
		Published:   req.Published,
		Featured:    req.Featured,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if audioURL != "" {
		track.Audio = ExternalAsset(audioURL)
	}
	if coverURL != "" {
		track.Cover = ExternalAsset(coverURL)
	} else if req.CoverUpload == nil && track.Audio.IsExternal() {
		track.Cover = s.resolveArtwork(ctx, track.Audio.Ref)
	}

	staged := s.stage(RecordKindTrack, track.ID)
	if req.AudioUpload != nil {
		ref, err := staged.put(ctx, AssetKindAudio, req.AudioUpload)
		if err != nil {
			return nil, &RecordError{Kind: RecordKindTrack, ID: track.ID, Op: "create", Err: err}
		}
		track.Audio = ref
	}
	if req.CoverUpload != nil {
		ref, err := staged.put(ctx, AssetKindImage, req.CoverUpload)
		if err != nil {
			staged.rollback(ctx)
			return nil, &RecordError{Kind: RecordKindTrack, ID: track.ID, Op: "create", Err: err}
		}
		track.Cover = ref
	}

	if err := s.repository.CreateTrack(ctx, track); err != nil {
		s.logger.ErrorContext(ctx, "Failed to create track", "track_id", track.ID, "error", err)
		staged.rollback(ctx)
		return nil, &RecordError{Kind: RecordKindTrack, ID: track.ID, Op: "create", Err: err}
	}

	s.emit(ctx, "record_created", func(sink EventSink) error {
		return sink.RecordCreated(ctx, RecordKindTrack, track.ID)
	})

	return track, nil
}

func (s *service) GetTrack(ctx context.Context, id uuid.UUID) (*Track, error) {
	track, err := s.repository.GetTrack(ctx, id)
	if err != nil {
		return nil, &RecordError{Kind: RecordKindTrack, ID: id, Op: "get", Err: err}
	}
	return track, nil
}

func (s *service) UpdateTrack(ctx context.Context, id uuid.UUID, req UpdateTrackRequest) (*Track, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	current, err := s.repository.GetTrack(ctx, id)
	if err != nil {
		return nil, &RecordError{Kind: RecordKindTrack, ID: id, Op: "update", Err: err}
	}

	next := *current
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
		}
		next.Title = title
	}
	if req.Category != nil {
		next.Category = *req.Category
	}
	if req.Description != nil {
		next.Description = *req.Description
	}
	if req.FileSize != nil {
		next.FileSize = *req.FileSize
	}
	if req.Published != nil {
		next.Published = *req.Published
	}
	if req.Featured != nil {
		next.Featured = *req.Featured
	}

	if req.Audio != nil && req.Audio.Kind == AssetChangeClear {
		return nil, fmt.Errorf("%w: audio cannot be removed from a track", ErrMissingRequiredAsset)
	}
	if err := validateChange(AssetKindAudio, "audioUrl", req.Audio); err != nil {
		return nil, err
	}
	if err := validateChange(AssetKindImage, "coverUrl", req.Cover); err != nil {
		return nil, err
	}

	var replaced []string
	replaced = appendReplaced(replaced, current.Audio, req.Audio)
	replaced = appendReplaced(replaced, current.Cover, req.Cover)
	if err := s.statForRemoval(ctx, replaced); err != nil {
		return nil, &RecordError{Kind: RecordKindTrack, ID: id, Op: "update", Err: err}
	}

	applyReference(&next.Audio, req.Audio)
	applyReference(&next.Cover, req.Cover)

	audioSwitchedExternal := req.Audio != nil && req.Audio.Kind == AssetChangeReference
	if audioSwitchedExternal && req.Cover == nil && next.Cover.IsZero() {
		next.Cover = s.resolveArtwork(ctx, next.Audio.Ref)
	}

	staged := s.stage(RecordKindTrack, id)
	if req.Audio != nil && req.Audio.Kind == AssetChangeUpload {
		ref, err := staged.put(ctx, AssetKindAudio, req.Audio.Upload)
		if err != nil {
			return nil, &RecordError{Kind: RecordKindTrack, ID: id, Op: "update", Err: err}
		}
		next.Audio = ref
	}
	if req.Cover != nil && req.Cover.Kind == AssetChangeUpload {
		ref, err := staged.put(ctx, AssetKindImage, req.Cover.Upload)
		if err != nil {
			staged.rollback(ctx)
			return nil, &RecordError{Kind: RecordKindTrack, ID: id, Op: "update", Err: err}
		}
		next.Cover = ref
	}

	next.UpdatedAt = s.nextTimestamp(current.UpdatedAt)
	if err := s.repository.UpdateTrack(ctx, &next, current.UpdatedAt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update track", "track_id", id, "error", err)
		staged.rollback(ctx)
		return nil, &RecordError{Kind: RecordKindTrack, ID: id, Op: "update", Err: err}
	}

	s.removeBlobs(ctx, replaced)
	s.emit(ctx, "record_updated", func(sink EventSink) error {
		return sink.RecordUpdated(ctx, RecordKindTrack, id)
	})

	return &next, nil
}

func (s *service) DeleteTrack(ctx context.Context, id uuid.UUID) error {
	unlock := s.locks.lock(id)
	defer unlock()

	current, err := s.repository.GetTrack(ctx, id)
	if err != nil {
		return &RecordError{Kind: RecordKindTrack, ID: id, Op: "delete", Err: err}
	}

	keys := current.LocalKeys()
	if err := s.statForRemoval(ctx, keys); err != nil {
		return &RecordError{Kind: RecordKindTrack, ID: id, Op: "delete", Err: err}
	}

	if err := s.repository.DeleteTrack(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete track", "track_id", id, "error", err)
		return &RecordError{Kind: RecordKindTrack, ID: id, Op: "delete", Err: err}
	}

	s.removeBlobs(ctx, keys)
	s.emit(ctx, "record_deleted", func(sink EventSink) error {
		return sink.RecordDeleted(ctx, RecordKindTrack, id)
	})

	return nil
}

func (s *service) ListTracks(ctx context.Context, filter ListFilter) ([]*Track, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	return s.repository.ListTracks(ctx, filter)
}

// Video operations

func (s *service) CreateVideo(ctx context.Context, req CreateVideoRequest) (*Video, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	videoID, err := NormalizeVideoID(req.VideoID)
	if err != nil {
		return nil, err
	}
	if videoID == "" && req.VideoUpload == nil {
		return nil, fmt.Errorf("%w: video id or video file is required", ErrMissingRequiredAsset)
	}
	if req.VideoUpload != nil {
		if err := ValidateUpload(AssetKindVideo, req.VideoUpload); err != nil {
			return nil, err
		}
	}

	thumbnailURL := strings.TrimSpace(req.ThumbnailURL)
	if req.ThumbnailUpload != nil && thumbnailURL != "" {
		return nil, fmt.Errorf("%w: provide either a thumbnail file or a thumbnail URL, not both", ErrInvalidInput)
	}
	if req.ThumbnailUpload != nil {
		if err := ValidateUpload(AssetKindImage, req.ThumbnailUpload); err != nil {
			return nil, err
		}
	}
	if thumbnailURL != "" {
		if err := validateExternalURL("thumbnailUrl", thumbnailURL); err != nil {
			return nil, err
		}
	}

	now := s.timestamp()
	video := &Video{
		ID:          uuid.New(),
		Title:       title,
		VideoID:     videoID,
		Category:    req.Category,
		Description: req.Description,
		ViewCount:   req.ViewCount,
		Published:   req.Published,
		Featured:    req.Featured,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if thumbnailURL != "" {
		video.Thumbnail = ExternalAsset(thumbnailURL)
	}

	staged := s.stage(RecordKindVideo, video.ID)
	if req.VideoUpload != nil {
		ref, err := staged.put(ctx, AssetKindVideo, req.VideoUpload)
		if err != nil {
			return nil, &RecordError{Kind: RecordKindVideo, ID: video.ID, Op: "create", Err: err}
		}
		video.VideoFile = ref
	}
	if req.ThumbnailUpload != nil {
		ref, err := staged.put(ctx, AssetKindImage, req.ThumbnailUpload)
		if err != nil {
			staged.rollback(ctx)
			return nil, &RecordError{Kind: RecordKindVideo, ID: video.ID, Op: "create", Err: err}
		}
		video.Thumbnail = ref
	}

	if err := s.repository.CreateVideo(ctx, video); err != nil {
		s.logger.ErrorContext(ctx, "Failed to create video", "video_id", video.ID, "error", err)
		staged.rollback(ctx)
		return nil, &RecordError{Kind: RecordKindVideo, ID: video.ID, Op: "create", Err: err}
	}

	s.emit(ctx, "record_created", func(sink EventSink) error {
		return sink.RecordCreated(ctx, RecordKindVideo, video.ID)
	})

	return video, nil
}

func (s *service) GetVideo(ctx context.Context, id uuid.UUID) (*Video, error) {
	video, err := s.repository.GetVideo(ctx, id)
	if err != nil {
		return nil, &RecordError{Kind: RecordKindVideo, ID: id, Op: "get", Err: err}
	}
	return video, nil
}

func (s *service) UpdateVideo(ctx context.Context, id uuid.UUID, req UpdateVideoRequest) (*Video, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	current, err := s.repository.GetVideo(ctx, id)
	if err != nil {
		return nil, &RecordError{Kind: RecordKindVideo, ID: id, Op: "update", Err: err}
	}

	next := *current
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
		}
		next.Title = title
	}
	if req.Category != nil {
		next.Category = *req.Category
	}
	if req.Description != nil {
		next.Description = *req.Description
	}
	if req.ViewCount != nil {
		next.ViewCount = *req.ViewCount
	}
	if req.Published != nil {
		next.Published = *req.Published
	}
	if req.Featured != nil {
		next.Featured = *req.Featured
	}
	if req.VideoID != nil {
		videoID, err := NormalizeVideoID(*req.VideoID)
		if err != nil {
			return nil, err
		}
		next.VideoID = videoID
	}

	if req.VideoFile != nil && req.VideoFile.Kind == AssetChangeReference {
		return nil, fmt.Errorf("%w: video files must be uploaded", ErrInvalidInput)
	}
	if err := validateChange(AssetKindVideo, "videoFile", req.VideoFile); err != nil {
		return nil, err
	}
	if err := validateChange(AssetKindImage, "thumbnailUrl", req.Thumbnail); err != nil {
		return nil, err
	}

	hasFile := !current.VideoFile.IsZero()
	if req.VideoFile != nil {
		hasFile = req.VideoFile.Kind == AssetChangeUpload
	}
	if next.VideoID == "" && !hasFile {
		return nil, fmt.Errorf("%w: a video needs a video id or a video file", ErrMissingRequiredAsset)
	}

	var replaced []string
	replaced = appendReplaced(replaced, current.VideoFile, req.VideoFile)
	replaced = appendReplaced(replaced, current.Thumbnail, req.Thumbnail)
	if err := s.statForRemoval(ctx, replaced); err != nil {
		return nil, &RecordError{Kind: RecordKindVideo, ID: id, Op: "update", Err: err}
	}

	applyReference(&next.VideoFile, req.VideoFile)
	applyReference(&next.Thumbnail, req.Thumbnail)

	staged := s.stage(RecordKindVideo, id)
	if req.VideoFile != nil && req.VideoFile.Kind == AssetChangeUpload {
		ref, err := staged.put(ctx, AssetKindVideo, req.VideoFile.Upload)
		if err != nil {
			return nil, &RecordError{Kind: RecordKindVideo, ID: id, Op: "update", Err: err}
		}
		next.VideoFile = ref
	}
	if req.Thumbnail != nil && req.Thumbnail.Kind == AssetChangeUpload {
		ref, err := staged.put(ctx, AssetKindImage, req.Thumbnail.Upload)
		if err != nil {
			staged.rollback(ctx)
			return nil, &RecordError{Kind: RecordKindVideo, ID: id, Op: "update", Err: err}
		}
		next.Thumbnail = ref
	}

	next.UpdatedAt = s.nextTimestamp(current.UpdatedAt)
	if err := s.repository.UpdateVideo(ctx, &next, current.UpdatedAt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update video", "video_id", id, "error", err)
		staged.rollback(ctx)
		return nil, &RecordError{Kind: RecordKindVideo, ID: id, Op: "update", Err: err}
	}

	s.removeBlobs(ctx, replaced)
	s.emit(ctx, "record_updated", func(sink EventSink) error {
		return sink.RecordUpdated(ctx, RecordKindVideo, id)
	})

	return &next, nil
}

func (s *service) DeleteVideo(ctx context.Context, id uuid.UUID) error {
	unlock := s.locks.lock(id)
	defer unlock()

	current, err := s.repository.GetVideo(ctx, id)
	if err != nil {
		return &RecordError{Kind: RecordKindVideo, ID: id, Op: "delete", Err: err}
	}

	keys := current.LocalKeys()
	if err := s.statForRemoval(ctx, keys); err != nil {
		return &RecordError{Kind: RecordKindVideo, ID: id, Op: "delete", Err: err}
	}

	if err := s.repository.DeleteVideo(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete video", "video_id", id, "error", err)
		return &RecordError{Kind: RecordKindVideo, ID: id, Op: "delete", Err: err}
	}

	s.removeBlobs(ctx, keys)
	s.emit(ctx, "record_deleted", func(sink EventSink) error {
		return sink.RecordDeleted(ctx, RecordKindVideo, id)
	})

	return nil
}

func (s *service) ListVideos(ctx context.Context, filter ListFilter) ([]*Video, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	return s.repository.ListVideos(ctx, filter)
}

func (s *service) FetchVideoDetails(ctx context.Context, videoIDOrURL string) (*VideoMetadata, error) {
	videoID, err := NormalizeVideoID(videoIDOrURL)
	if err != nil {
		return nil, err
	}
	if videoID == "" {
		return nil, fmt.Errorf("%w: video id is required", ErrInvalidInput)
	}

	meta, err := s.resolver.ResolveVideo(ctx, videoID)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to fetch video details", "platform_video_id", videoID, "error", err)
		return nil, err
	}
	return meta, nil
}

func (s *service) OpenAsset(ctx context.Context, key string) (io.ReadCloser, *ObjectMeta, error) {
	if !blobkey.ValidKey(key) {
		return nil, nil, fmt.Errorf("%w: asset key %q", ErrInvalidInput, key)
	}

	meta, err := s.blobStore.GetObjectMeta(ctx, key)
	if err != nil {
		if IsBlobNotFound(err) {
			return nil, nil, fmt.Errorf("asset %s: %w", key, ErrNotFound)
		}
		return nil, nil, &StorageError{Backend: s.backendName, Key: key, Op: "stat", Err: err}
	}

	reader, err := s.blobStore.Download(ctx, key)
	if err != nil {
		if IsBlobNotFound(err) {
			return nil, nil, fmt.Errorf("asset %s: %w", key, ErrNotFound)
		}
		return nil, nil, &StorageError{Backend: s.backendName, Key: key, Op: "download", Err: err}
	}
	return reader, meta, nil
}

// Helper methods

// timestamp returns the current time at the precision the Content Store keeps.
func (s *service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// nextTimestamp returns a timestamp strictly after prev so the next
// compare-and-swap sees a change even on a coarse clock.
func (s *service) nextTimestamp(prev time.Time) time.Time {
	now := s.timestamp()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

// resolveArtwork looks up a cover for an external audio URL. Failures leave
// the cover absent.
func (s *service) resolveArtwork(ctx context.Context, audioURL string) AssetRef {
	artwork, err := s.resolver.ResolveArtwork(ctx, audioURL)
	if err == nil && strings.TrimSpace(artwork) != "" {
		return ExternalAsset(strings.TrimSpace(artwork))
	}
	if err == nil {
		err = fmt.Errorf("%w: no artwork for %s", ErrExternalServiceNoResult, audioURL)
	}
	s.logger.WarnContext(ctx, "Failed to resolve artwork", "audio_url", audioURL, "error", err)
	s.emit(ctx, "enrichment_failed", func(sink EventSink) error {
		return sink.EnrichmentFailed(ctx, "artwork", err)
	})
	return AssetRef{}
}

// statForRemoval checks every key about to be deleted. A key that is already
// absent is fine; any other failure aborts the operation before it changes
// anything.
func (s *service) statForRemoval(ctx context.Context, keys []string) error {
	for _, key := range keys {
		if _, err := s.blobStore.GetObjectMeta(ctx, key); err != nil && !IsBlobNotFound(err) {
			return &StorageError{Backend: s.backendName, Key: key, Op: "stat", Err: err}
		}
	}
	return nil
}

// removeBlobs deletes files no longer referenced by a committed record.
// Failures are reported as orphans rather than returned.
func (s *service) removeBlobs(ctx context.Context, keys []string) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		err := s.blobStore.Delete(ctx, key)
		switch {
		case err == nil:
			s.emit(ctx, "blob_deleted", func(sink EventSink) error {
				return sink.BlobDeleted(ctx, key)
			})
		case IsBlobNotFound(err):
			s.logger.DebugContext(ctx, "Blob already absent", "key", key)
		default:
			s.logger.ErrorContext(ctx, "Failed to delete blob", "key", key, "backend", s.backendName, "error", err)
			cause := &StorageError{Backend: s.backendName, Key: key, Op: "delete", Err: err}
			s.emit(ctx, "blob_orphaned", func(sink EventSink) error {
				return sink.BlobOrphaned(ctx, key, cause)
			})
		}
	}
}

// emit delivers an event. Sink failures never fail the operation.
func (s *service) emit(ctx context.Context, event string, fn func(EventSink) error) {
	if err := fn(s.eventSink); err != nil {
		s.logger.WarnContext(ctx, "Failed to deliver event", "event", event, "error", err)
	}
}

// stagedBlobs tracks uploads written by one operation so they can be removed
// if the row is never committed.
type stagedBlobs struct {
	s    *service
	kind string
	id   uuid.UUID
	keys []string
}

func (s *service) stage(kind string, id uuid.UUID) *stagedBlobs {
	return &stagedBlobs{s: s, kind: kind, id: id}
}

func (b *stagedBlobs) put(ctx context.Context, kind AssetKind, u *Upload) (AssetRef, error) {
	s := b.s
	key := s.keys.GenerateKey(string(kind), u.FileName)
	params := UploadParams{ObjectKey: key, MimeType: u.ContentType}
	if err := s.blobStore.UploadWithParams(ctx, u.Reader, params); err != nil {
		s.logger.ErrorContext(ctx, "Failed to upload blob", "record", b.kind, "id", b.id, "key", key, "error", err)
		// A partial write may have landed.
		s.removeBlobs(ctx, []string{key})
		return AssetRef{}, &StorageError{Backend: s.backendName, Key: key, Op: "upload", Err: err}
	}
	b.keys = append(b.keys, key)
	s.emit(ctx, "blob_written", func(sink EventSink) error {
		return sink.BlobWritten(ctx, kind, key, u.Size)
	})
	return LocalAsset(key), nil
}

// rollback removes every staged blob, best effort.
func (b *stagedBlobs) rollback(ctx context.Context) {
	if len(b.keys) == 0 {
		return
	}
	b.s.removeBlobs(ctx, b.keys)
	b.keys = nil
}

func validateChange(kind AssetKind, field string, change *AssetChange) error {
	if change == nil {
		return nil
	}
	switch change.Kind {
	case AssetChangeUpload:
		return ValidateUpload(kind, change.Upload)
	case AssetChangeReference:
		return validateExternalURL(field, strings.TrimSpace(change.Reference))
	case AssetChangeClear:
		return nil
	}
	return fmt.Errorf("%w: unknown change for %s", ErrInvalidInput, field)
}

func validateExternalURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: %s is empty", ErrInvalidInput, field)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s must be an http(s) URL", ErrInvalidInput, field)
	}
	return nil
}

func validateFilter(filter ListFilter) error {
	switch filter.Published {
	case "", PublishedOnly, UnpublishedOnly, PublishedAll:
		return nil
	}
	return fmt.Errorf("%w: published filter %q", ErrInvalidInput, filter.Published)
}

// appendReplaced adds the current local key when change replaces or clears it.
func appendReplaced(keys []string, current AssetRef, change *AssetChange) []string {
	if change == nil || !current.IsLocal() {
		return keys
	}
	return append(keys, current.Ref)
}

// applyReference writes reference and clear changes. Uploads are applied
// once their blob is stored.
func applyReference(field *AssetRef, change *AssetChange) {
	if change == nil {
		return
	}
	switch change.Kind {
	case AssetChangeReference:
		*field = ExternalAsset(strings.TrimSpace(change.Reference))
	case AssetChangeClear:
		*field = AssetRef{}
	}
}
