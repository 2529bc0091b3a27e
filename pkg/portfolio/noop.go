package portfolio

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// NoopEventSink is a no-operation implementation of EventSink
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

func (n *NoopEventSink) RecordCreated(ctx context.Context, kind string, id uuid.UUID) error {
	return nil
}

func (n *NoopEventSink) RecordUpdated(ctx context.Context, kind string, id uuid.UUID) error {
	return nil
}

func (n *NoopEventSink) RecordDeleted(ctx context.Context, kind string, id uuid.UUID) error {
	return nil
}

func (n *NoopEventSink) BlobWritten(ctx context.Context, kind AssetKind, key string, size int64) error {
	return nil
}

func (n *NoopEventSink) BlobDeleted(ctx context.Context, key string) error {
	return nil
}

func (n *NoopEventSink) BlobOrphaned(ctx context.Context, key string, cause error) error {
	return nil
}

func (n *NoopEventSink) EnrichmentFailed(ctx context.Context, source string, cause error) error {
	return nil
}

// LoggingEventSink writes every event to a structured logger at debug level,
// and orphaned blobs at warn level.
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates an event sink backed by logger (slog.Default when nil)
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger}
}

func (l *LoggingEventSink) RecordCreated(ctx context.Context, kind string, id uuid.UUID) error {
	l.logger.DebugContext(ctx, "Record created", "kind", kind, "id", id)
	return nil
}

func (l *LoggingEventSink) RecordUpdated(ctx context.Context, kind string, id uuid.UUID) error {
	l.logger.DebugContext(ctx, "Record updated", "kind", kind, "id", id)
	return nil
}

func (l *LoggingEventSink) RecordDeleted(ctx context.Context, kind string, id uuid.UUID) error {
	l.logger.DebugContext(ctx, "Record deleted", "kind", kind, "id", id)
	return nil
}

func (l *LoggingEventSink) BlobWritten(ctx context.Context, kind AssetKind, key string, size int64) error {
	l.logger.DebugContext(ctx, "Blob written", "asset_kind", kind, "key", key, "size", size)
	return nil
}

func (l *LoggingEventSink) BlobDeleted(ctx context.Context, key string) error {
	l.logger.DebugContext(ctx, "Blob deleted", "key", key)
	return nil
}

func (l *LoggingEventSink) BlobOrphaned(ctx context.Context, key string, cause error) error {
	l.logger.WarnContext(ctx, "Blob left orphaned", "key", key, "error", cause)
	return nil
}

func (l *LoggingEventSink) EnrichmentFailed(ctx context.Context, source string, cause error) error {
	l.logger.DebugContext(ctx, "Enrichment failed", "source", source, "error", cause)
	return nil
}

// MultiEventSink fans events out to several sinks. The first error is returned
// after every sink has been called.
type MultiEventSink []EventSink

func (m MultiEventSink) each(fn func(EventSink) error) error {
	var first error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := fn(s); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m MultiEventSink) RecordCreated(ctx context.Context, kind string, id uuid.UUID) error {
	return m.each(func(s EventSink) error { return s.RecordCreated(ctx, kind, id) })
}

func (m MultiEventSink) RecordUpdated(ctx context.Context, kind string, id uuid.UUID) error {
	return m.each(func(s EventSink) error { return s.RecordUpdated(ctx, kind, id) })
}

func (m MultiEventSink) RecordDeleted(ctx context.Context, kind string, id uuid.UUID) error {
	return m.each(func(s EventSink) error { return s.RecordDeleted(ctx, kind, id) })
}

func (m MultiEventSink) BlobWritten(ctx context.Context, kind AssetKind, key string, size int64) error {
	return m.each(func(s EventSink) error { return s.BlobWritten(ctx, kind, key, size) })
}

func (m MultiEventSink) BlobDeleted(ctx context.Context, key string) error {
	return m.each(func(s EventSink) error { return s.BlobDeleted(ctx, key) })
}

func (m MultiEventSink) BlobOrphaned(ctx context.Context, key string, cause error) error {
	return m.each(func(s EventSink) error { return s.BlobOrphaned(ctx, key, cause) })
}

func (m MultiEventSink) EnrichmentFailed(ctx context.Context, source string, cause error) error {
	return m.each(func(s EventSink) error { return s.EnrichmentFailed(ctx, source, cause) })
}

// NoopResolver resolves nothing. ResolveArtwork returns an empty URL and
// ResolveVideo reports the service as unavailable.
type NoopResolver struct{}

// NewNoopResolver creates a resolver for deployments without metadata services
func NewNoopResolver() MetadataResolver {
	return &NoopResolver{}
}

func (n *NoopResolver) ResolveArtwork(ctx context.Context, audioURL string) (string, error) {
	return "", nil
}

func (n *NoopResolver) ResolveVideo(ctx context.Context, videoID string) (*VideoMetadata, error) {
	return nil, ErrExternalServiceUnavailable
}
