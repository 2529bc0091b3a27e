package fs_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/portfolio-content/pkg/portfolio"
	fsstorage "github.com/tendant/portfolio-content/pkg/portfolio/storage/fs"
)

func TestFSBackend_BasicOps(t *testing.T) {
	tmp := t.TempDir()
	backend, err := fsstorage.New(fsstorage.Config{BaseDir: tmp})
	require.NoError(t, err)

	ctx := context.Background()
	key := "images/1712318400000-0a1b2c3d-cover.png"
	data := []byte("hello fs")

	require.NoError(t, backend.Upload(ctx, key, bytes.NewReader(data)))

	meta, err := backend.GetObjectMeta(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), meta.Size)
	assert.Equal(t, "image/png", meta.ContentType)
	assert.False(t, meta.UpdatedAt.IsZero())

	rc, err := backend.Download(ctx, key)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, data, got)

	require.NoError(t, backend.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(tmp, "images", "1712318400000-0a1b2c3d-cover.png"))
	assert.True(t, os.IsNotExist(err))

	// images/ became empty and is pruned; the base dir stays
	_, err = os.Stat(filepath.Join(tmp, "images"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(tmp)
	assert.NoError(t, err)
}

func TestFSBackend_MissingObject(t *testing.T) {
	backend, err := fsstorage.New(fsstorage.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = backend.GetObjectMeta(ctx, "images/none.png")
	assert.ErrorIs(t, err, portfolio.ErrBlobNotFound)

	_, err = backend.Download(ctx, "images/none.png")
	assert.ErrorIs(t, err, portfolio.ErrBlobNotFound)

	err = backend.Delete(ctx, "images/none.png")
	assert.ErrorIs(t, err, portfolio.ErrBlobNotFound)
}

func TestFSBackend_RejectsTraversal(t *testing.T) {
	tmp := t.TempDir()
	backend, err := fsstorage.New(fsstorage.Config{BaseDir: filepath.Join(tmp, "uploads")})
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"../escape.txt", "/etc/passwd", "audio/../../x", ""} {
		err := backend.Upload(ctx, key, bytes.NewReader([]byte("x")))
		assert.Error(t, err, key)
		assert.NotErrorIs(t, err, portfolio.ErrBlobNotFound, key)
	}
	_, err = os.Stat(filepath.Join(tmp, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestFSBackend_List(t *testing.T) {
	backend, err := fsstorage.New(fsstorage.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	ctx := context.Background()

	keys := []string{"audio/b.mp3", "audio/a.mp3", "images/c.png", "video/d.mp4"}
	for _, k := range keys {
		require.NoError(t, backend.Upload(ctx, k, bytes.NewReader([]byte(k))))
	}

	metas, err := backend.List(ctx, "audio/")
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, "audio/a.mp3", metas[0].Key)
	assert.Equal(t, "audio/b.mp3", metas[1].Key)

	all, err := backend.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	none, err := backend.List(ctx, "missing/")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFSBackend_New_RequiresBaseDir(t *testing.T) {
	_, err := fsstorage.New(fsstorage.Config{})
	assert.Error(t, err)
}
