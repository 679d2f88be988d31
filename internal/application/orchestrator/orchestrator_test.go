package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/application/scan"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
)

func mustFolder(t *testing.T, root, name string, pages int) scan.GalleryFolder {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.Mkdir(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "galleryinfo.txt"), []byte("x"), 0o644))
	for i := 0; i < pages; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, filepath.Base(dir)+"_"+string(rune('a'+i))+".jpg"), []byte("x"), 0o644))
	}
	gname, err := h2h.NewGalleryName(name)
	require.NoError(t, err)
	return scan.GalleryFolder{Path: dir, Name: gname}
}

func TestSortFolders_PagesPlusN(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	folders := []scan.GalleryFolder{
		mustFolder(t, root, "ten", 10),
		mustFolder(t, root, "twenty", 20),
		mustFolder(t, root, "thirty", 30),
	}
	o := &Orchestrator{}
	require.NoError(t, o.sortFolders(context.Background(), folders, SortPagesPlusN, 20))
	assert.Equal(t, "twenty", folders[0].Name.String())
}

func TestSortFolders_TitleDescending(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	folders := []scan.GalleryFolder{
		mustFolder(t, root, "alpha", 1),
		mustFolder(t, root, "zeta", 1),
		mustFolder(t, root, "mu", 1),
	}
	o := &Orchestrator{}
	require.NoError(t, o.sortFolders(context.Background(), folders, SortTitleDesc, 0))
	assert.Equal(t, []string{"zeta", "mu", "alpha"}, []string{
		folders[0].Name.String(), folders[1].Name.String(), folders[2].Name.String(),
	})
}

func TestSortFolders_None_LeavesOrderUnchanged(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	folders := []scan.GalleryFolder{
		mustFolder(t, root, "b", 1),
		mustFolder(t, root, "a", 1),
	}
	o := &Orchestrator{}
	require.NoError(t, o.sortFolders(context.Background(), folders, SortNone, 0))
	assert.Equal(t, "b", folders[0].Name.String())
}

func TestSortFolders_GID(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	folders := []scan.GalleryFolder{
		mustFolder(t, root, "zzz [300]", 1),
		mustFolder(t, root, "aaa [100]", 1),
		mustFolder(t, root, "mmm [200]", 1),
	}
	o := &Orchestrator{}
	require.NoError(t, o.sortFolders(context.Background(), folders, SortGID, 0))
	assert.Equal(t, []string{"aaa [100]", "mmm [200]", "zzz [300]"}, []string{
		folders[0].Name.String(), folders[1].Name.String(), folders[2].Name.String(),
	})
}

func TestWorkerLimit_FallsBackToDBPoolSize(t *testing.T) {
	t.Parallel()
	assert.Greater(t, workerLimit(0), 0)
	assert.Equal(t, 5, workerLimit(5))
}

func TestSortN_DefaultsTo20(t *testing.T) {
	t.Parallel()
	assert.Equal(t, DefaultPagesTargetN, sortN(0))
	assert.Equal(t, 42, sortN(42))
}
