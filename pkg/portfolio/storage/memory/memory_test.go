package memory_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/portfolio-content/pkg/portfolio"
	memorystorage "github.com/tendant/portfolio-content/pkg/portfolio/storage/memory"
)

func TestMemoryBackend(t *testing.T) {
	backend := memorystorage.New()
	ctx := context.Background()
	testKey := "audio/1-abc-song.mp3"
	testData := "not really an mp3"

	t.Run("Upload", func(t *testing.T) {
		err := backend.Upload(ctx, testKey, strings.NewReader(testData))
		assert.NoError(t, err)
	})

	t.Run("GetObjectMeta", func(t *testing.T) {
		meta, err := backend.GetObjectMeta(ctx, testKey)
		require.NoError(t, err)
		assert.Equal(t, testKey, meta.Key)
		assert.Equal(t, int64(len(testData)), meta.Size)
		assert.Equal(t, "application/octet-stream", meta.ContentType)
		assert.False(t, meta.UpdatedAt.IsZero())
	})

	t.Run("Download", func(t *testing.T) {
		reader, err := backend.Download(ctx, testKey)
		require.NoError(t, err)
		defer reader.Close()

		data, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, testData, string(data))
	})

	t.Run("UploadWithParams", func(t *testing.T) {
		key := "images/2-def-cover.png"
		err := backend.UploadWithParams(ctx, strings.NewReader("png"), portfolio.UploadParams{
			ObjectKey: key,
			MimeType:  "image/png",
		})
		require.NoError(t, err)

		meta, err := backend.GetObjectMeta(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "image/png", meta.ContentType)
	})

	t.Run("List", func(t *testing.T) {
		metas, err := backend.List(ctx, "audio/")
		require.NoError(t, err)
		require.Len(t, metas, 1)
		assert.Equal(t, testKey, metas[0].Key)

		all, err := backend.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, backend.Delete(ctx, testKey))

		_, err := backend.GetObjectMeta(ctx, testKey)
		assert.ErrorIs(t, err, portfolio.ErrBlobNotFound)
	})

	t.Run("MissingObject", func(t *testing.T) {
		_, err := backend.Download(ctx, "video/missing.mp4")
		assert.ErrorIs(t, err, portfolio.ErrBlobNotFound)

		err = backend.Delete(ctx, "video/missing.mp4")
		assert.ErrorIs(t, err, portfolio.ErrBlobNotFound)
	})
}

func TestMemoryBackend_Clock(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	backend := memorystorage.NewWithClock(func() time.Time { return fixed })

	require.NoError(t, backend.Upload(context.Background(), "audio/a.mp3", strings.NewReader("a")))
	meta, err := backend.GetObjectMeta(context.Background(), "audio/a.mp3")
	require.NoError(t, err)
	assert.Equal(t, fixed, meta.UpdatedAt)
	assert.Equal(t, 1, backend.Len())
}
