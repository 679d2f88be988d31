package mysql

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
)

// Scan implements the database-facing half of the Scanner & GC (C8):
// diffing the on-disk gallery set against galleries_dbids via a temp
// table and anti-join, and the periodic maintenance queries.
type Scan struct {
	db *sqlx.DB
}

// NewScan constructs a Scan repository over db.
func NewScan(db *sqlx.DB) *Scan { return &Scan{db: db} }

// tempTableBatchSize is the row count per batch insert into the
// reconciliation temp table.
const tempTableBatchSize = 5000

// MissingFromDisk returns every gallery name present in galleries_dbids
// but absent from current, the on-disk gallery names collected by a
// filesystem walk. Implemented as a temp-table left anti-join so the
// comparison runs in the database rather than pulling every known name
// into the process.
func (s *Scan) MissingFromDisk(ctx context.Context, current []h2h.GalleryName) ([]h2h.GalleryName, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin scan reconciliation: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		CREATE TEMPORARY TABLE tmp_current_galleries (
			gallery_name_1 VARCHAR(191) NOT NULL,
			gallery_name_2 VARCHAR(191) NOT NULL,
			PRIMARY KEY (gallery_name_1, gallery_name_2)
		)`); err != nil {
		return nil, fmt.Errorf("create reconciliation temp table: %w", err)
	}

	for start := 0; start < len(current); start += tempTableBatchSize {
		end := min(start+tempTableBatchSize, len(current))
		batch := current[start:end]
		placeholders := make([]string, len(batch))
		args := make([]any, 0, len(batch)*2)
		for i, name := range batch {
			parts := name.Parts()
			placeholders[i] = "(?, ?)"
			args = append(args, parts[0], parts[1])
		}
		query := fmt.Sprintf("INSERT INTO tmp_current_galleries (gallery_name_1, gallery_name_2) VALUES %s",
			strings.Join(placeholders, ", "))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("populate reconciliation temp table: %w", err)
		}
	}

	var missing []string
	err = tx.SelectContext(ctx, &missing, `
		SELECT g.gallery_name
		FROM galleries_dbids g
		LEFT JOIN tmp_current_galleries t
			ON t.gallery_name_1 = g.gallery_name_1 AND t.gallery_name_2 = g.gallery_name_2
		WHERE t.gallery_name_1 IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("anti-join reconciliation temp table: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit scan reconciliation: %w", err)
	}

	out := make([]h2h.GalleryName, 0, len(missing))
	for _, n := range missing {
		name, err := h2h.NewGalleryName(n)
		if err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, nil
}

// ForeignKeyTables enumerates every table referenced by a foreign key in
// the current database, the input to optimize_database().
func (s *Scan) ForeignKeyTables(ctx context.Context) ([]string, error) {
	var tables []string
	err := s.db.SelectContext(ctx, &tables, `
		SELECT DISTINCT TABLE_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = DATABASE() AND REFERENCED_TABLE_NAME IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("enumerate foreign-key tables: %w", err)
	}
	return tables, nil
}

// OptimizeTable runs the backend's OPTIMIZE TABLE on table.
func (s *Scan) OptimizeTable(ctx context.Context, table string) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("OPTIMIZE TABLE %s", table)); err != nil {
		return fmt.Errorf("optimize table %s: %w", table, err)
	}
	return nil
}

// PendingDownloadGIDs returns the gids selected by the pending_download_gids
// view, the external fetcher's retry policy input.
func (s *Scan) PendingDownloadGIDs(ctx context.Context) ([]h2h.GID, error) {
	var raw []uint32
	if err := s.db.SelectContext(ctx, &raw, `SELECT gid FROM pending_download_gids`); err != nil {
		return nil, fmt.Errorf("list pending download gids: %w", err)
	}
	out := make([]h2h.GID, len(raw))
	for i, g := range raw {
		out[i] = h2h.GID(g)
	}
	return out, nil
}
