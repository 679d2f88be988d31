// Package ingest implements the Gallery Ingestor (C6): parsing a gallery
// folder, tombstoning it as pending removal, inserting every row and
// hash, and clearing the tombstone as the final successful step.
package ingest

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/galleryinfo"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/persistence/mysql"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/storage/validator"
)

// Ingestor implements insert_gallery_info(folder).
type Ingestor struct {
	store     *mysql.Store
	logger    zerolog.Logger
	validator *validator.Validator
}

// New constructs an Ingestor over store. Every non-sidecar file is
// screened against validator.DefaultConfig() for operational visibility
// only: a page that doesn't look like a supported raster format is
// logged at Warn, never rejected. A Gallery folder's contents are
// whatever files are present, hashed and stored as-is, regardless of
// format.
func New(store *mysql.Store, logger zerolog.Logger) *Ingestor {
	return &Ingestor{store: store, logger: logger, validator: validator.New(validator.DefaultConfig())}
}

// Ingest runs the nine-step ingest protocol against folder. It returns
// (inserted=true) iff new rows were written; (false, nil) means the
// gallery's galleryinfo.txt is unchanged since the last ingest.
func (in *Ingestor) Ingest(ctx context.Context, folder string) (bool, error) {
	folderName := filepath.Base(filepath.Clean(folder))
	name, err := h2h.NewGalleryName(folderName)
	if err != nil {
		return false, err
	}

	info, err := galleryinfo.ParseFile(folder)
	if err != nil {
		return false, err
	}

	unchanged, err := in.isUnchanged(ctx, name, folder, info)
	if err != nil {
		return false, err
	}
	if unchanged {
		return false, nil
	}

	// Step 3: tombstone. Happens-before every other write for this gallery.
	if err := in.store.GidQueues.TombstoneGallery(ctx, name); err != nil {
		return false, err
	}

	// Step 4: delete any previous row (cascades everything). Safe if absent.
	if err := in.store.Galleries.DeleteByName(ctx, name); err != nil {
		return false, err
	}

	if err := in.insertGallery(ctx, name, folder, info); err != nil {
		return false, err
	}

	// Step 9: clear the tombstone. Happens-after every other write.
	if err := in.store.GidQueues.ClearTombstone(ctx, name); err != nil {
		return false, err
	}

	in.logger.Info().Str("gallery", name.String()).Msg("gallery ingested")
	return true, nil
}

// isUnchanged checks whether the stored sha512 of galleryinfo.txt
// matches the current on-disk hash. A gallery that
// has never been ingested is never "unchanged".
func (in *Ingestor) isUnchanged(ctx context.Context, name h2h.GalleryName, folder string, info h2h.GalleryInfo) (bool, error) {
	galleryID, err := in.store.Galleries.IDByName(ctx, name)
	if h2h.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	sidecarFileID, err := in.store.Files.IDByName(ctx, galleryID, mustFileName("galleryinfo.txt"))
	if h2h.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	onDisk, err := sha512File(filepath.Join(folder, "galleryinfo.txt"))
	if err != nil {
		return false, err
	}

	stored, err := in.storedSHA512(ctx, sidecarFileID)
	if err != nil {
		return false, err
	}
	return stored == onDisk, nil
}

func (in *Ingestor) storedSHA512(ctx context.Context, fileID uint32) (string, error) {
	var hex string
	err := in.store.DB.GetContext(ctx, &hex, `
		SELECT LOWER(HEX(d.hash_value))
		FROM files_hashs_sha512 m
		JOIN files_hashs_sha512_dbids d ON d.db_hash_id = m.db_hash_id
		WHERE m.db_file_id = ?`, fileID)
	if err != nil {
		return "", fmt.Errorf("read stored sha512 for file %d: %w", fileID, err)
	}
	return hex, nil
}

// insertGallery performs the gallery row insert, metadata write, and
// per-file hash registration that follow the tombstone/clear bracket.
func (in *Ingestor) insertGallery(ctx context.Context, name h2h.GalleryName, folder string, info h2h.GalleryInfo) error {
	galleryID, err := in.store.Galleries.Insert(ctx, name)
	if err != nil {
		return err
	}

	now := h2h.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return in.store.GIDs.Insert(gctx, galleryID, info.GID) })
	g.Go(func() error { return in.store.Titles.Insert(gctx, galleryID, info.Title) })
	g.Go(func() error { return in.store.Comments.Insert(gctx, galleryID, info.Comment) })
	g.Go(func() error { return in.store.UploadAccounts.Insert(gctx, galleryID, info.UploadAccount) })
	g.Go(func() error { return in.store.UploadTimes.Insert(gctx, galleryID, info.UploadTime) })
	g.Go(func() error { return in.store.ModifiedTimes.Insert(gctx, galleryID, now) })
	g.Go(func() error {
		// download_time also seeds access_time and redownload_time.
		if err := in.store.DownloadTimes.Insert(gctx, galleryID, info.DownloadTime); err != nil {
			return err
		}
		if err := in.store.AccessTimes.Insert(gctx, galleryID, info.DownloadTime); err != nil {
			return err
		}
		return in.store.RedownloadTimes.Insert(gctx, galleryID, info.DownloadTime)
	})
	g.Go(func() error { return in.insertFilesAndHashes(gctx, galleryID, folder, info.Files) })
	if err := g.Wait(); err != nil {
		return err
	}

	return in.store.Tags.InsertAssociations(ctx, galleryID, info.Tags)
}

// insertFilesAndHashes creates the files_dbids rows for every listed
// file and registers all eleven digests per file. Every regular file
// under the folder is accepted and hashed regardless of content; the
// validator only logs a warning for a non-sidecar file that doesn't
// look like a supported raster format, it never aborts ingestion.
func (in *Ingestor) insertFilesAndHashes(ctx context.Context, galleryID uint32, folder string, files []string) error {
	digests := make([]mysql.FileDigests, 0, len(files))
	for _, name := range files {
		fileName, err := h2h.NewFileName(name)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(filepath.Join(folder, name))
		if err != nil {
			return fmt.Errorf("%w: read %s: %v", h2h.ErrIO, name, err)
		}
		if name != "galleryinfo.txt" {
			if _, err := in.validator.Validate(data); err != nil {
				in.logger.Warn().Err(err).Str("file", name).Msg("page file failed format validation, ingesting anyway")
			}
		}

		fileID, err := in.store.Files.Insert(ctx, galleryID, fileName)
		if err != nil {
			return err
		}
		digests = append(digests, mysql.FileDigests{FileID: fileID, Digests: digestAll(data)})
	}
	return in.store.Hashes.RegisterBatch(ctx, digests)
}

func mustFileName(name string) h2h.FileName {
	fn, err := h2h.NewFileName(name)
	if err != nil {
		panic(err)
	}
	return fn
}

// digestAll computes all eleven maintained digests of data.
func digestAll(data []byte) map[h2h.HashAlgorithm]string {
	out := make(map[h2h.HashAlgorithm]string, len(h2h.HashAlgorithms))
	for _, alg := range h2h.HashAlgorithms {
		hasher := alg.New()
		hasher.Write(data)
		out[alg] = hex.EncodeToString(hasher.Sum(nil))
	}
	return out
}

// sha512File computes the lowercase hex sha512 digest of path's bytes.
func sha512File(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", h2h.ErrIO, path, err)
	}
	sum := sha512.Sum512(data)
	return hex.EncodeToString(sum[:]), nil
}
