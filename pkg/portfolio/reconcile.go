package portfolio

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultGracePeriod keeps blobs written by in-flight creates and updates
// out of reach of the reconciler.
const DefaultGracePeriod = time.Hour

// ReconcileOptions controls a reconciliation pass
type ReconcileOptions struct {
	// GracePeriod is the minimum age of an unreferenced blob before it is
	// deleted. Zero means DefaultGracePeriod.
	GracePeriod time.Duration
	// DryRun reports orphans without deleting them
	DryRun bool
	// Now overrides the reference time for blob ages
	Now func() time.Time
}

// ReconcileResult summarizes a reconciliation pass
type ReconcileResult struct {
	Scanned    int      `json:"scanned"`
	Referenced int      `json:"referenced"`
	Recent     int      `json:"recent"`
	Orphans    []string `json:"orphans"`
	Deleted    int      `json:"deleted"`
	Failed     int      `json:"failed"`
}

// Reconciler deletes blobs that no track or video references.
type Reconciler struct {
	repository Repository
	blobStore  BlobStore
	eventSink  EventSink
	logger     *slog.Logger
}

// NewReconciler creates a reconciler over repo and store. sink and logger may be nil.
func NewReconciler(repo Repository, store BlobStore, sink EventSink, logger *slog.Logger) *Reconciler {
	if sink == nil {
		sink = NewNoopEventSink()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{repository: repo, blobStore: store, eventSink: sink, logger: logger}
}

// Run performs one pass. Only keys under the asset kind prefixes are
// considered, so unrelated objects sharing a bucket are left alone.
func (r *Reconciler) Run(ctx context.Context, opts ReconcileOptions) (*ReconcileResult, error) {
	grace := opts.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	var (
		mu         sync.Mutex
		blobs      []*ObjectMeta
		referenced = make(map[string]struct{})
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		keys, err := r.repository.ListLocalAssetKeys(gctx)
		if err != nil {
			return fmt.Errorf("list referenced keys: %w", err)
		}
		mu.Lock()
		defer mu.Unlock()
		for _, k := range keys {
			referenced[k] = struct{}{}
		}
		return nil
	})
	for _, kind := range []AssetKind{AssetKindAudio, AssetKindImage, AssetKindVideo} {
		prefix := string(kind) + "/"
		g.Go(func() error {
			objs, err := r.blobStore.List(gctx, prefix)
			if err != nil {
				return fmt.Errorf("list blobs under %s: %w", prefix, err)
			}
			mu.Lock()
			defer mu.Unlock()
			blobs = append(blobs, objs...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(blobs, func(i, j int) bool { return blobs[i].Key < blobs[j].Key })

	result := &ReconcileResult{Scanned: len(blobs), Orphans: []string{}}
	cutoff := now().Add(-grace)
	for _, obj := range blobs {
		if _, ok := referenced[obj.Key]; ok {
			result.Referenced++
			continue
		}
		if obj.UpdatedAt.After(cutoff) {
			result.Recent++
			continue
		}
		result.Orphans = append(result.Orphans, obj.Key)
		if opts.DryRun {
			continue
		}
		if err := r.blobStore.Delete(ctx, obj.Key); err != nil && !IsBlobNotFound(err) {
			r.logger.ErrorContext(ctx, "Failed to delete orphaned blob", "key", obj.Key, "error", err)
			result.Failed++
			continue
		}
		result.Deleted++
		if err := r.eventSink.BlobDeleted(ctx, obj.Key); err != nil {
			r.logger.WarnContext(ctx, "Failed to deliver event", "event", "blob_deleted", "error", err)
		}
	}

	r.logger.InfoContext(ctx, "Reconciliation finished",
		"scanned", result.Scanned,
		"referenced", result.Referenced,
		"recent", result.Recent,
		"orphans", len(result.Orphans),
		"deleted", result.Deleted,
		"failed", result.Failed,
		"dry_run", opts.DryRun,
	)
	return result, nil
}
