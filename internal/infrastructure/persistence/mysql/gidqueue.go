package mysql

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
)

// GidQueues implements the four small gid-keyed tables of :
// removed_galleries_gids, todelete_gids, todownload_gids, and
// pending_gallery_removals.
type GidQueues struct {
	db *sqlx.DB
}

// NewGidQueues constructs a GidQueues repository over db.
func NewGidQueues(db *sqlx.DB) *GidQueues { return &GidQueues{db: db} }

// MarkRemoved records gid as permanently gone. Idempotent.
func (q *GidQueues) MarkRemoved(ctx context.Context, gid h2h.GID) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO removed_galleries_gids (gid) VALUES (?) ON DUPLICATE KEY UPDATE gid = gid`, gid.Uint32())
	if err != nil {
		return fmt.Errorf("mark gid %s removed: %w", gid, err)
	}
	return nil
}

// IsRemoved reports whether gid has been marked permanently gone.
func (q *GidQueues) IsRemoved(ctx context.Context, gid h2h.GID) (bool, error) {
	var n int
	err := q.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM removed_galleries_gids WHERE gid = ?`, gid.Uint32())
	if err != nil {
		return false, fmt.Errorf("check gid %s removed: %w", gid, err)
	}
	return n > 0, nil
}

// ScheduleDelete enqueues gid for deletion. Idempotent.
func (q *GidQueues) ScheduleDelete(ctx context.Context, gid h2h.GID) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO todelete_gids (gid) VALUES (?) ON DUPLICATE KEY UPDATE gid = gid`, gid.Uint32())
	if err != nil {
		return fmt.Errorf("schedule gid %s for delete: %w", gid, err)
	}
	return nil
}

// ToDelete returns every gid currently scheduled for deletion.
func (q *GidQueues) ToDelete(ctx context.Context) ([]h2h.GID, error) {
	return q.gidList(ctx, `SELECT gid FROM todelete_gids`)
}

// UnscheduleDelete removes gid from the deletion queue.
func (q *GidQueues) UnscheduleDelete(ctx context.Context, gid h2h.GID) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM todelete_gids WHERE gid = ?`, gid.Uint32())
	if err != nil {
		return fmt.Errorf("unschedule gid %s from delete: %w", gid, err)
	}
	return nil
}

// ScheduleDownload enqueues gid for fetch at url. A second insert with
// an empty url never downgrades an existing non-empty url, but an
// empty-url row is upgraded by a later non-empty insert.
func (q *GidQueues) ScheduleDownload(ctx context.Context, gid h2h.GID, url string) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO todownload_gids (gid, url) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE url = IF(url = '', VALUES(url), url)`,
		gid.Uint32(), url)
	if err != nil {
		return fmt.Errorf("schedule gid %s for download: %w", gid, err)
	}
	return nil
}

// ToDownload returns every (gid, url) pair currently scheduled for fetch.
func (q *GidQueues) ToDownload(ctx context.Context) (map[h2h.GID]string, error) {
	var rows []struct {
		GID uint32 `db:"gid"`
		URL string `db:"url"`
	}
	if err := q.db.SelectContext(ctx, &rows, `SELECT gid, url FROM todownload_gids`); err != nil {
		return nil, fmt.Errorf("list todownload gids: %w", err)
	}
	out := make(map[h2h.GID]string, len(rows))
	for _, r := range rows {
		out[h2h.GID(r.GID)] = r.URL
	}
	return out, nil
}

// UnscheduleDownload removes gid from the download queue.
func (q *GidQueues) UnscheduleDownload(ctx context.Context, gid h2h.GID) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM todownload_gids WHERE gid = ?`, gid.Uint32())
	if err != nil {
		return fmt.Errorf("unschedule gid %s from download: %w", gid, err)
	}
	return nil
}

// PendingRemovals returns every gallery name currently tombstoned as
// pending removal.
func (q *GidQueues) PendingRemovals(ctx context.Context) ([]h2h.GalleryName, error) {
	var names []string
	err := q.db.SelectContext(ctx, &names, `SELECT gallery_name FROM pending_gallery_removals`)
	if err != nil {
		return nil, fmt.Errorf("list pending gallery removals: %w", err)
	}
	out := make([]h2h.GalleryName, 0, len(names))
	for _, n := range names {
		name, err := h2h.NewGalleryName(n)
		if err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, nil
}

// TombstoneGallery marks name as pending removal, the ingestor's and
// scanner's sole unit of atomicity. Idempotent.
func (q *GidQueues) TombstoneGallery(ctx context.Context, name h2h.GalleryName) error {
	parts := name.Parts()
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO pending_gallery_removals (gallery_name, gallery_name_1, gallery_name_2) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE gallery_name = gallery_name`,
		name.String(), parts[0], parts[1])
	if err != nil {
		return fmt.Errorf("tombstone gallery %q: %w", name.String(), err)
	}
	return nil
}

// ClearTombstone removes name's pending-removal tombstone, the ingestor's
// final successful step.
func (q *GidQueues) ClearTombstone(ctx context.Context, name h2h.GalleryName) error {
	parts := name.Parts()
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM pending_gallery_removals WHERE gallery_name_1 = ? AND gallery_name_2 = ?`,
		parts[0], parts[1])
	if err != nil {
		return fmt.Errorf("clear tombstone for gallery %q: %w", name.String(), err)
	}
	return nil
}

func (q *GidQueues) gidList(ctx context.Context, query string) ([]h2h.GID, error) {
	var raw []uint32
	if err := q.db.SelectContext(ctx, &raw, query); err != nil {
		return nil, fmt.Errorf("list gids: %w", err)
	}
	out := make([]h2h.GID, len(raw))
	for i, g := range raw {
		out[i] = h2h.GID(g)
	}
	return out, nil
}
