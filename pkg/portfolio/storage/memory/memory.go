package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tendant/portfolio-content/pkg/portfolio"
)

type object struct {
	data      []byte
	mimeType  string
	updatedAt time.Time
}

// Backend is an in-memory implementation of the portfolio.BlobStore interface
type Backend struct {
	mu      sync.RWMutex
	objects map[string]*object
	now     func() time.Time
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects: make(map[string]*object),
		now:     time.Now,
	}
}

// NewWithClock creates an in-memory backend whose modification times come from now
func NewWithClock(now func() time.Time) *Backend {
	b := New()
	b.now = now
	return b
}

// GetObjectMeta retrieves metadata for an object in memory
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*portfolio.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, fmt.Errorf("%s: %w", objectKey, portfolio.ErrBlobNotFound)
	}
	return obj.meta(objectKey), nil
}

// Upload uploads content directly
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	return b.UploadWithParams(ctx, reader, portfolio.UploadParams{ObjectKey: objectKey})
}

// UploadWithParams uploads content with parameters
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params portfolio.UploadParams) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}

	mimeType := params.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[params.ObjectKey] = &object{
		data:      data,
		mimeType:  mimeType,
		updatedAt: b.now(),
	}
	return nil
}

// Download downloads content directly
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, fmt.Errorf("%s: %w", objectKey, portfolio.ErrBlobNotFound)
	}

	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Delete deletes content
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return fmt.Errorf("%s: %w", objectKey, portfolio.ErrBlobNotFound)
	}

	delete(b.objects, objectKey)
	return nil
}

// List returns metadata for every object whose key starts with prefix, sorted by key
func (b *Backend) List(ctx context.Context, prefix string) ([]*portfolio.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var metas []*portfolio.ObjectMeta
	for key, obj := range b.objects {
		if strings.HasPrefix(key, prefix) {
			metas = append(metas, obj.meta(key))
		}
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].Key < metas[j].Key })
	return metas, nil
}

// Len returns the number of stored objects
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}

func (o *object) meta(key string) *portfolio.ObjectMeta {
	return &portfolio.ObjectMeta{
		Key:         key,
		Size:        int64(len(o.data)),
		ContentType: o.mimeType,
		UpdatedAt:   o.updatedAt,
		Metadata:    map[string]string{"mime_type": o.mimeType},
	}
}

var _ portfolio.BlobStore = (*Backend)(nil)
