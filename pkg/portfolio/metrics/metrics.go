// Package metrics exposes lifecycle events as Prometheus counters.
package metrics

import (
	"context"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tendant/portfolio-content/pkg/portfolio"
)

// EventSink counts lifecycle events. It never fails.
type EventSink struct {
	records     *prometheus.CounterVec
	blobWrites  *prometheus.CounterVec
	blobBytes   *prometheus.CounterVec
	blobDeletes prometheus.Counter
	orphans     prometheus.Counter
	enrichment  *prometheus.CounterVec
}

// NewEventSink registers the counters with reg. Pass prometheus.DefaultRegisterer
// to expose them on the default /metrics handler.
func NewEventSink(reg prometheus.Registerer) *EventSink {
	factory := promauto.With(reg)
	return &EventSink{
		records: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Name:      "record_events_total",
			Help:      "Track and video lifecycle events by record kind and action.",
		}, []string{"kind", "action"}),
		blobWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Name:      "blob_writes_total",
			Help:      "Uploads stored in the blob store by asset kind.",
		}, []string{"asset_kind"}),
		blobBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Name:      "blob_written_bytes_total",
			Help:      "Declared upload bytes stored in the blob store by asset kind.",
		}, []string{"asset_kind"}),
		blobDeletes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "portfolio",
			Name:      "blob_deletes_total",
			Help:      "Locally-owned files removed from the blob store.",
		}),
		orphans: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "portfolio",
			Name:      "blob_orphans_total",
			Help:      "Files that could not be removed and were left for reconciliation.",
		}),
		enrichment: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Name:      "enrichment_failures_total",
			Help:      "Optional metadata lookups that failed, by source.",
		}, []string{"source"}),
	}
}

func (m *EventSink) RecordCreated(ctx context.Context, kind string, id uuid.UUID) error {
	m.records.WithLabelValues(kind, "created").Inc()
	return nil
}

func (m *EventSink) RecordUpdated(ctx context.Context, kind string, id uuid.UUID) error {
	m.records.WithLabelValues(kind, "updated").Inc()
	return nil
}

func (m *EventSink) RecordDeleted(ctx context.Context, kind string, id uuid.UUID) error {
	m.records.WithLabelValues(kind, "deleted").Inc()
	return nil
}

func (m *EventSink) BlobWritten(ctx context.Context, kind portfolio.AssetKind, key string, size int64) error {
	m.blobWrites.WithLabelValues(string(kind)).Inc()
	if size > 0 {
		m.blobBytes.WithLabelValues(string(kind)).Add(float64(size))
	}
	return nil
}

func (m *EventSink) BlobDeleted(ctx context.Context, key string) error {
	m.blobDeletes.Inc()
	return nil
}

func (m *EventSink) BlobOrphaned(ctx context.Context, key string, cause error) error {
	m.orphans.Inc()
	return nil
}

func (m *EventSink) EnrichmentFailed(ctx context.Context, source string, cause error) error {
	m.enrichment.WithLabelValues(source).Inc()
	return nil
}

var _ portfolio.EventSink = (*EventSink)(nil)
