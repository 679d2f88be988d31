// Package orchestrator implements the Orchestrator (C9):
// insert_h2h_download's chunked drive loop over the Scanner, Gallery
// Ingestor, Duplicate Analyzer, and Archive Builder.
package orchestrator

import (
	"context"
	"os"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/application/dedup"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/application/ingest"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/application/redownload"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/application/scan"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/concurrency"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/persistence/mysql"
)

// SortKey selects the ordering insert_h2h_download processes folders in.
type SortKey string

const (
	SortUploadTime   SortKey = "upload_time"
	SortDownloadTime SortKey = "download_time"
	SortGID          SortKey = "gid"
	SortTitleDesc    SortKey = "title"
	SortNone         SortKey = "no"
	SortPagesPlusN   SortKey = "pages+N"
	// anything else: ascending by page count.
)

// DefaultPagesTargetN is the default N in "pages+N" sorting.
const DefaultPagesTargetN = 20

// DefaultChunkMultiplier is the per-worker chunk size multiplier.
const DefaultChunkMultiplier = 100

// SleepBetweenPasses is how long a pass that inserted anything waits
// before the next pass.
const SleepBetweenPasses = 1800 * time.Second

// ArchiveBuilder compresses one gallery folder into a CBZ archive,
// honoring the sha512 exclusion set, and reports whether it wrote a new
// or changed archive.
type ArchiveBuilder interface {
	CompressGalleryToCBZ(ctx context.Context, folder string, exclude func(sha512Hex string) bool) (bool, error)
}

// Config holds the orchestrator's external knobs.
type Config struct {
	DownloadPath string
	CBZPath      string
	WorkerLimit  int
	Sort         SortKey
	SortN        int
}

// Orchestrator wires together the scan, ingest, dedup, and archive
// stages behind the chunked drive loop.
type Orchestrator struct {
	store    *mysql.Store
	scanner  *scan.Scanner
	ingestor *ingest.Ingestor
	analyzer *dedup.Analyzer
	archiver ArchiveBuilder
	pools    *concurrency.Pools
	cfg      Config
	logger   zerolog.Logger
}

// New constructs an Orchestrator. archiver may be nil, in which case
// archive building is skipped entirely (no cbz_path configured).
func New(store *mysql.Store, scanner *scan.Scanner, ingestor *ingest.Ingestor, analyzer *dedup.Analyzer, archiver ArchiveBuilder, pools *concurrency.Pools, cfg Config, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		store:    store,
		scanner:  scanner,
		ingestor: ingestor,
		analyzer: analyzer,
		archiver: archiver,
		pools:    pools,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run repeatedly executes one insert_h2h_download pass, sleeping
// SleepBetweenPasses between passes that inserted at least one gallery,
// and returning once a pass inserts nothing.
func (o *Orchestrator) Run(ctx context.Context) error {
	for {
		inserted, archived, err := o.RunOnce(ctx)
		if err != nil {
			return err
		}
		o.logger.Info().Int("inserted", inserted).Int("archived", archived).Msg("orchestrator pass complete")
		if inserted == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(SleepBetweenPasses):
		}
	}
}

// RunOnce executes the nine steps of insert_h2h_download exactly once.
func (o *Orchestrator) RunOnce(ctx context.Context) (inserted, archived int, err error) {
	// Step 1: drain pending removals.
	if _, err := o.scanner.DrainPendingRemovals(ctx); err != nil {
		return 0, 0, err
	}

	// Step 2: scan current folders and tombstone anything missing, then
	// drain what that pass just tombstoned.
	folders, err := o.scanner.WalkCurrentFolders(o.cfg.DownloadPath)
	if err != nil {
		return 0, 0, err
	}
	if err := o.scanner.ReconcileAndTombstone(ctx, folders); err != nil {
		return 0, 0, err
	}
	if _, err := o.scanner.DrainPendingRemovals(ctx); err != nil {
		return 0, 0, err
	}

	// Step 3: refresh CBZ filesystem state against the current names.
	if o.cfg.CBZPath != "" {
		if err := o.scanner.RefreshArchiveDirectory(o.cfg.CBZPath, folders); err != nil {
			return 0, 0, err
		}
	}

	// Step 4: sort folders by the configured key.
	if err := o.sortFolders(ctx, folders, o.cfg.Sort, sortN(o.cfg.SortN)); err != nil {
		return 0, 0, err
	}

	// Step 5-6: chunked ingest + archive loop.
	prevDupCount := int64(0)
	chunkSize := DefaultChunkMultiplier * workerLimit(o.cfg.WorkerLimit)
	for start := 0; start < len(folders); start += chunkSize {
		end := min(start+chunkSize, len(folders))
		chunk := folders[start:end]

		chunkInserted, err := o.ingestChunk(ctx, chunk)
		if err != nil {
			return inserted, archived, err
		}
		inserted += chunkInserted

		if chunkInserted > 0 && o.cfg.CBZPath != "" && o.archiver != nil {
			dupCount, err := o.store.Duplicates.DuplicateCount(ctx)
			if err != nil {
				return inserted, archived, err
			}
			if dupCount > prevDupCount {
				if _, err := o.analyzer.Refresh(ctx); err != nil {
					return inserted, archived, err
				}
				prevDupCount = dupCount
			}

			chunkArchived, err := o.archiveChunk(ctx, chunk)
			if err != nil {
				return inserted, archived, err
			}
			archived += chunkArchived
		}
	}

	// Step 7: reclaim orphan hash rows.
	if err := o.scanner.ReclaimOrphanHashes(ctx); err != nil {
		return inserted, archived, err
	}

	// Step 9: redownload-time reset (step 8's sleep-and-repeat lives in
	// Run, not RunOnce).
	if err := redownload.Reset(ctx, o.store, o.logger); err != nil {
		return inserted, archived, err
	}

	return inserted, archived, nil
}

func (o *Orchestrator) ingestChunk(ctx context.Context, chunk []scan.GalleryFolder) (int, error) {
	pool := concurrency.New(ctx, o.pools.DB.Limit())
	var count atomic.Int32
	for _, f := range chunk {
		folder := f.Path
		pool.Go(func(ctx context.Context) error {
			ok, err := o.ingestor.Ingest(ctx, folder)
			if err != nil {
				o.logger.Error().Err(err).Str("folder", folder).Msg("gallery ingest failed")
				return err
			}
			if ok {
				count.Add(1)
			}
			return nil
		})
	}
	err := pool.Wait()
	return int(count.Load()), err
}

func (o *Orchestrator) archiveChunk(ctx context.Context, chunk []scan.GalleryFolder) (int, error) {
	pool := concurrency.New(ctx, o.pools.DB.Limit())
	var count atomic.Int32
	for _, f := range chunk {
		folder := f.Path
		pool.Go(func(ctx context.Context) error {
			ok, err := o.archiver.CompressGalleryToCBZ(ctx, folder, o.analyzer.IsExcluded)
			if err != nil {
				o.logger.Error().Err(err).Str("folder", folder).Msg("archive build failed")
				return err
			}
			if ok {
				count.Add(1)
			}
			return nil
		})
	}
	err := pool.Wait()
	return int(count.Load()), err
}

func workerLimit(configured int) int {
	if configured > 0 {
		return configured
	}
	return concurrency.DBPoolSize()
}

func sortN(configured int) int {
	if configured > 0 {
		return configured
	}
	return DefaultPagesTargetN
}

// sortFolders orders folders in place by the configured sort key. "no"
// and the page-count orders never touch the database. "gid" parses the
// GID straight out of the folder name, since every Gallery folder is
// named "<title>-<gid>". "upload_time" and "download_time" look up each
// folder's gallery row and its timestamp; a folder with no row yet (not
// ingested in a prior pass) sorts after every resolved folder, in
// on-disk name order.
func (o *Orchestrator) sortFolders(ctx context.Context, folders []scan.GalleryFolder, key SortKey, n int) error {
	switch key {
	case SortNone, "":
		return nil
	case SortPagesPlusN:
		sort.SliceStable(folders, func(i, j int) bool {
			return absDiff(pageCount(folders[i]), n) < absDiff(pageCount(folders[j]), n)
		})
		return nil
	case SortTitleDesc:
		sort.SliceStable(folders, func(i, j int) bool {
			return folders[i].Name.String() > folders[j].Name.String()
		})
		return nil
	case SortGID:
		sort.SliceStable(folders, func(i, j int) bool {
			gi, erri := h2h.ParseGIDFromFolderName(folders[i].Name.String())
			gj, errj := h2h.ParseGIDFromFolderName(folders[j].Name.String())
			if erri != nil || errj != nil {
				return folders[i].Name.String() < folders[j].Name.String()
			}
			return gi.Uint32() < gj.Uint32()
		})
		return nil
	case SortUploadTime:
		return o.sortByTime(ctx, folders, o.store.UploadTimes)
	case SortDownloadTime:
		return o.sortByTime(ctx, folders, o.store.DownloadTimes)
	default:
		sort.SliceStable(folders, func(i, j int) bool {
			return pageCount(folders[i]) < pageCount(folders[j])
		})
		return nil
	}
}

// sortByTime orders folders ascending by the timestamp times reports for
// their gallery row. Folders not yet ingested (no gallery row, or no
// row in times) sort after every resolved folder, in on-disk name order.
func (o *Orchestrator) sortByTime(ctx context.Context, folders []scan.GalleryFolder, times *mysql.GalleryTimes) error {
	resolved := make(map[string]time.Time, len(folders))
	for _, f := range folders {
		galleryID, err := o.store.Galleries.IDByName(ctx, f.Name)
		if h2h.IsNotFound(err) {
			continue
		}
		if err != nil {
			return err
		}
		when, err := times.Get(ctx, galleryID)
		if h2h.IsNotFound(err) {
			continue
		}
		if err != nil {
			return err
		}
		resolved[f.Name.String()] = when
	}

	sort.SliceStable(folders, func(i, j int) bool {
		ti, iok := resolved[folders[i].Name.String()]
		tj, jok := resolved[folders[j].Name.String()]
		if iok != jok {
			return iok
		}
		if !iok {
			return folders[i].Name.String() < folders[j].Name.String()
		}
		return ti.Before(tj)
	})
	return nil
}

func pageCount(f scan.GalleryFolder) int {
	entries, err := os.ReadDir(f.Path)
	if err != nil {
		return 0
	}
	count := 0
	for _, e := range entries {
		if !e.IsDir() && e.Name() != "galleryinfo.txt" {
			count++
		}
	}
	return count
}

func absDiff(a, b int) int {
	if a < b {
		return b - a
	}
	return a - b
}
