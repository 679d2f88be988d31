package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
)

func TestWalkCurrentFolders(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mustMkGallery(t, root, "[artist] title one")
	mustMkGallery(t, root, "[artist] title two")
	require.NoError(t, os.Mkdir(filepath.Join(root, "not-a-gallery"), 0o755))

	s := New(nil, zerolog.Nop())
	folders, err := s.WalkCurrentFolders(root)
	require.NoError(t, err)
	assert.Len(t, folders, 2)
}

func TestRefreshArchiveDirectory_RemovesStaleArchivesAndEmptyDirs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "group")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "kept.cbz"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "stale.cbz"), []byte("x"), 0o644))
	emptyNested := filepath.Join(root, "empty", "leaf")
	require.NoError(t, os.MkdirAll(emptyNested, 0o755))

	s := New(nil, zerolog.Nop())
	name, err := h2h.NewGalleryName("kept")
	require.NoError(t, err)
	folders := []GalleryFolder{{Path: "/downloads/kept", Name: name}}
	require.NoError(t, s.RefreshArchiveDirectory(root, folders))

	_, err = os.Stat(filepath.Join(nested, "kept.cbz"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(nested, "stale.cbz"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "empty"))
	assert.True(t, os.IsNotExist(err))
}

func mustMkGallery(t *testing.T, root, name string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.Mkdir(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "galleryinfo.txt"), []byte("Title: x\n"), 0o644))
}
