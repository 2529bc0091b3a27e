package metrics_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/portfolio-content/pkg/portfolio"
	"github.com/tendant/portfolio-content/pkg/portfolio/metrics"
)

func TestEventSink_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := metrics.NewEventSink(reg)
	ctx := context.Background()

	require.NoError(t, sink.RecordCreated(ctx, portfolio.RecordKindTrack, uuid.New()))
	require.NoError(t, sink.RecordCreated(ctx, portfolio.RecordKindTrack, uuid.New()))
	require.NoError(t, sink.RecordDeleted(ctx, portfolio.RecordKindVideo, uuid.New()))
	require.NoError(t, sink.BlobWritten(ctx, portfolio.AssetKindAudio, "audio/a.mp3", 2048))
	require.NoError(t, sink.BlobDeleted(ctx, "audio/a.mp3"))
	require.NoError(t, sink.BlobOrphaned(ctx, "audio/b.mp3", errors.New("disk on fire")))
	require.NoError(t, sink.EnrichmentFailed(ctx, "artwork", errors.New("timeout")))

	families, err := reg.Gather()
	require.NoError(t, err)
	series := map[string]int{}
	totals := map[string]float64{}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			series[f.GetName()]++
			totals[f.GetName()] += m.GetCounter().GetValue()
		}
	}

	// track/created and video/deleted
	assert.Equal(t, 2, series["portfolio_record_events_total"])
	assert.Equal(t, float64(3), totals["portfolio_record_events_total"])
	assert.Equal(t, float64(2048), totals["portfolio_blob_written_bytes_total"])
	assert.Equal(t, float64(1), totals["portfolio_blob_deletes_total"])
	assert.Equal(t, float64(1), totals["portfolio_blob_orphans_total"])
	assert.Equal(t, float64(1), totals["portfolio_enrichment_failures_total"])
}
