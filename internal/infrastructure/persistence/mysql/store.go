package mysql

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/persistence/mysql/schema"
)

// Store is the façade over every per-entity-family repository, all
// sharing one Storage Driver connection pool. It replaces the deep
// mixin inheritance of the original design (H2HDB(UploadAccounts,
// Titles, Times, GIDs, IDs, ...)) with plain composition of
// independent, individually testable sub-types.
type Store struct {
	DB *sqlx.DB

	Galleries       *Galleries
	Files           *Files
	GIDs            *GIDs
	Titles          *Titles
	Comments        *Comments
	UploadAccounts  *UploadAccounts
	UploadTimes     *GalleryTimes
	DownloadTimes   *GalleryTimes
	ModifiedTimes   *GalleryTimes
	AccessTimes     *GalleryTimes
	RedownloadTimes *GalleryTimes
	Tags            *Tags
	Hashes          *Hashes
	GidQueues       *GidQueues
	Duplicates      *DuplicateAnalyzer
	Scan            *Scan
}

// Open connects to MySQL, validates the schema, and returns a ready Store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	db, err := NewDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := schema.Apply(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return NewStore(db), nil
}

// NewStore wires every sub-repository over an already-connected db.
func NewStore(db *sqlx.DB) *Store {
	return &Store{
		DB:              db,
		Galleries:       NewGalleries(db),
		Files:           NewFiles(db),
		GIDs:            NewGIDs(db),
		Titles:          NewTitles(db),
		Comments:        NewComments(db),
		UploadAccounts:  NewUploadAccounts(db),
		UploadTimes:     NewGalleryTimes(db, UploadTime),
		DownloadTimes:   NewGalleryTimes(db, DownloadTime),
		ModifiedTimes:   NewGalleryTimes(db, ModifiedTime),
		AccessTimes:     NewGalleryTimes(db, AccessTime),
		RedownloadTimes: NewGalleryTimes(db, RedownloadTime),
		Tags:            NewTags(db),
		Hashes:          NewHashes(db),
		GidQueues:       NewGidQueues(db),
		Duplicates:      NewDuplicateAnalyzer(db),
		Scan:            NewScan(db),
	}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return Close(s.DB)
}

// OptimizeDatabase runs OPTIMIZE TABLE on every foreign-key-referenced
// table.
func (s *Store) OptimizeDatabase(ctx context.Context) error {
	tables, err := s.Scan.ForeignKeyTables(ctx)
	if err != nil {
		return err
	}
	for _, table := range tables {
		if err := s.Scan.OptimizeTable(ctx, table); err != nil {
			return err
		}
	}
	return nil
}

// ReclaimOrphanHashes runs ReclaimOrphans for every maintained hash
// algorithm. The eleven deletes are independent of each other and safe
// to parallelize.
func (s *Store) ReclaimOrphanHashes(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, alg := range h2h.HashAlgorithms {
		alg := alg
		g.Go(func() error {
			_, err := s.Hashes.ReclaimOrphans(gctx, alg)
			return err
		})
	}
	return g.Wait()
}

// ResetStaleRedownloadTimes runs the final step of insert_h2h_download.
func (s *Store) ResetStaleRedownloadTimes(ctx context.Context) (int64, error) {
	return ResetStaleRedownloadTimes(ctx, s.DB)
}
