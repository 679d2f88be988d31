package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
)

type fakeSink struct {
	objects map[string][]byte
}

func newFakeSink() *fakeSink { return &fakeSink{objects: make(map[string][]byte)} }

func (s *fakeSink) PutBytes(_ context.Context, key string, data []byte) error {
	s.objects[key] = append([]byte(nil), data...)
	return nil
}

func (s *fakeSink) GetBytes(_ context.Context, key string) ([]byte, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func (s *fakeSink) Exists(_ context.Context, key string) (bool, error) {
	_, ok := s.objects[key]
	return ok, nil
}

type fakeLookup struct {
	sha512 map[string]string
	upload time.Time
}

func (l *fakeLookup) GalleryInfoSHA512(_ context.Context, name h2h.GalleryName) (string, bool, error) {
	v, ok := l.sha512[name.String()]
	return v, ok, nil
}

func (l *fakeLookup) UploadTime(_ context.Context, _ h2h.GalleryName) (time.Time, bool, error) {
	return l.upload, true, nil
}

func mustGalleryFolder(t *testing.T, root, name string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "galleryinfo.txt"), []byte("gid: 1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001.txt"), []byte("not an image"), 0o644))
	return dir
}

func TestCompressGalleryToCBZ_WritesArchiveWhenMissing(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	folder := mustGalleryFolder(t, root, "my gallery")

	sink := newFakeSink()
	lookup := &fakeLookup{sha512: map[string]string{}, upload: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)}
	b := New(Config{MaxPixel: 2000}, sink, lookup, nil, zerologNop())

	wrote, err := b.CompressGalleryToCBZ(context.Background(), folder, nil)
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.Len(t, sink.objects, 1)

	for key, data := range sink.objects {
		assert.Contains(t, key, "my gallery.cbz")
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		require.NoError(t, err)
		names := map[string]bool{}
		for _, f := range zr.File {
			names[f.Name] = true
		}
		assert.True(t, names["galleryinfo.txt"])
		assert.True(t, names["001.txt"])
	}
}

func TestCompressGalleryToCBZ_SkipsWhenUnchanged(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	folder := mustGalleryFolder(t, root, "stable gallery")

	sink := newFakeSink()
	lookup := &fakeLookup{sha512: map[string]string{}, upload: time.Now()}
	b := New(Config{MaxPixel: 2000}, sink, lookup, nil, zerologNop())

	ctx := context.Background()
	_, err := b.CompressGalleryToCBZ(ctx, folder, nil)
	require.NoError(t, err)

	// Compute the digest embedded in the archive we just wrote and pin
	// the lookup to it, so the second call sees "unchanged".
	var key string
	var data []byte
	for k, v := range sink.objects {
		key, data = k, v
	}
	digest, err := galleryInfoSHA512InZip(data)
	require.NoError(t, err)
	lookup.sha512["stable gallery"] = digest

	wrote, err := b.CompressGalleryToCBZ(ctx, folder, nil)
	require.NoError(t, err)
	assert.False(t, wrote)
	assert.Len(t, sink.objects, 1)
	_ = key
}

func TestCompressGalleryToCBZ_ExcludesDuplicateHashes(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	folder := mustGalleryFolder(t, root, "dup gallery")

	sink := newFakeSink()
	lookup := &fakeLookup{sha512: map[string]string{}, upload: time.Now()}
	b := New(Config{MaxPixel: 2000}, sink, lookup, nil, zerologNop())

	excludeAll := func(string) bool { return true }
	_, err := b.CompressGalleryToCBZ(context.Background(), folder, excludeAll)
	require.NoError(t, err)

	for _, data := range sink.objects {
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		require.NoError(t, err)
		assert.Empty(t, zr.File)
	}
}
