// Package scan implements the Scanner & GC (C8): walking the download
// tree to find the current gallery set, reconciling it against the
// database, draining the pending-removal tombstone queue, and pruning
// stale archive state.
package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/persistence/mysql"
)

// GalleryFolder pairs an on-disk folder path with the gallery name
// derived from its basename.
type GalleryFolder struct {
	Path string
	Name h2h.GalleryName
}

// Scanner wraps the database-facing Scan repository with the
// filesystem-facing half of C8.
type Scanner struct {
	store  *mysql.Store
	logger zerolog.Logger
}

// New constructs a Scanner over store.
func New(store *mysql.Store, logger zerolog.Logger) *Scanner {
	return &Scanner{store: store, logger: logger}
}

// WalkCurrentFolders walks downloadPath and returns one GalleryFolder
// per subdirectory that directly contains a galleryinfo.txt file.
// Folders whose name fails gallery-name validation are skipped with a
// warning rather than aborting the scan.
func (s *Scanner) WalkCurrentFolders(downloadPath string) ([]GalleryFolder, error) {
	entries, err := os.ReadDir(downloadPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read download path %s: %v", h2h.ErrIO, downloadPath, err)
	}

	folders := make([]GalleryFolder, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		folder := filepath.Join(downloadPath, entry.Name())
		if _, err := os.Stat(filepath.Join(folder, "galleryinfo.txt")); err != nil {
			continue
		}
		name, err := h2h.NewGalleryName(entry.Name())
		if err != nil {
			s.logger.Warn().Err(err).Str("folder", entry.Name()).Msg("skipping folder with invalid gallery name")
			continue
		}
		folders = append(folders, GalleryFolder{Path: folder, Name: name})
	}
	return folders, nil
}

// ReconcileAndTombstone finds galleries present in the database but
// absent from folders, and tombstones each one into
// pending_gallery_removals.
func (s *Scanner) ReconcileAndTombstone(ctx context.Context, folders []GalleryFolder) error {
	current := make([]h2h.GalleryName, len(folders))
	for i, f := range folders {
		current[i] = f.Name
	}

	missing, err := s.store.Scan.MissingFromDisk(ctx, current)
	if err != nil {
		return err
	}

	for _, name := range missing {
		if err := s.store.GidQueues.TombstoneGallery(ctx, name); err != nil {
			return err
		}
		s.logger.Info().Str("gallery", name.String()).Msg("gallery missing from disk, tombstoned for removal")
	}
	return nil
}

// DrainPendingRemovals deletes every tombstoned gallery and then clears
// its tombstone. Deletion happens before the tombstone is cleared, so
// a crash mid-drain leaves the gallery re-discoverable as still
// pending.
func (s *Scanner) DrainPendingRemovals(ctx context.Context) (int, error) {
	pending, err := s.store.GidQueues.PendingRemovals(ctx)
	if err != nil {
		return 0, err
	}

	for _, name := range pending {
		if err := s.store.Galleries.DeleteByName(ctx, name); err != nil {
			return 0, err
		}
		if err := s.store.GidQueues.ClearTombstone(ctx, name); err != nil {
			return 0, err
		}
		s.logger.Info().Str("gallery", name.String()).Msg("removed gallery drained")
	}
	return len(pending), nil
}

// RefreshArchiveDirectory implements _refresh_current_cbz_files: it
// deletes every archive under cbzPath whose base name (sans extension)
// does not correspond to a current gallery name, then iteratively
// removes empty subdirectories until a pass removes none.
func (s *Scanner) RefreshArchiveDirectory(cbzPath string, folders []GalleryFolder) error {
	current := make(map[string]struct{}, len(folders))
	for _, f := range folders {
		current[f.Name.String()] = struct{}{}
	}

	if err := s.removeStaleArchives(cbzPath, current); err != nil {
		return err
	}
	return s.pruneEmptyDirectories(cbzPath)
}

func (s *Scanner) removeStaleArchives(cbzPath string, current map[string]struct{}) error {
	return filepath.WalkDir(cbzPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(d.Name())
		if ext != ".cbz" {
			return nil
		}
		base := d.Name()[:len(d.Name())-len(ext)]
		if _, ok := current[base]; ok {
			return nil
		}
		s.logger.Info().Str("archive", path).Msg("removing stale archive")
		return os.Remove(path)
	})
}

// pruneEmptyDirectories repeatedly sweeps cbzPath, removing empty
// subdirectories, until a sweep removes none (gallery grouping can
// leave nested directories empty only after their last leaf is removed).
func (s *Scanner) pruneEmptyDirectories(cbzPath string) error {
	for {
		removed, err := removeEmptySubdirs(cbzPath)
		if err != nil {
			return err
		}
		if removed == 0 {
			return nil
		}
	}
}

func removeEmptySubdirs(root string) (int, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		if len(entries) == 0 {
			if err := os.Remove(dir); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// ReclaimOrphanHashes runs refresh_current_files_hashs.
func (s *Scanner) ReclaimOrphanHashes(ctx context.Context) error {
	return s.store.ReclaimOrphanHashes(ctx)
}

// OptimizeDatabase runs optimize_database.
func (s *Scanner) OptimizeDatabase(ctx context.Context) error {
	return s.store.OptimizeDatabase(ctx)
}
