package mysql

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
)

// GIDs implements the per-gallery gid attribute table.
type GIDs struct {
	db *sqlx.DB
}

// NewGIDs constructs a GIDs repository over db.
func NewGIDs(db *sqlx.DB) *GIDs { return &GIDs{db: db} }

// Insert records galleryID's public gid. Fails with h2h.ErrDuplicateKey
// if the row, or another gallery's row with the same gid, already exists.
func (g *GIDs) Insert(ctx context.Context, galleryID uint32, gid h2h.GID) error {
	_, err := g.db.ExecContext(ctx,
		`INSERT INTO gids (db_gallery_id, gid) VALUES (?, ?)`, galleryID, gid.Uint32())
	if err != nil {
		return translateError(err)
	}
	return nil
}

// Get returns galleryID's gid.
func (g *GIDs) Get(ctx context.Context, galleryID uint32) (h2h.GID, error) {
	var v uint32
	if err := g.db.GetContext(ctx, &v, `SELECT gid FROM gids WHERE db_gallery_id = ?`, galleryID); err != nil {
		return 0, translateError(err)
	}
	return h2h.GID(v), nil
}

// IDByGID resolves the surrogate gallery id owning gid, or h2h.ErrNotFound.
func (g *GIDs) IDByGID(ctx context.Context, gid h2h.GID) (uint32, error) {
	var id uint32
	if err := g.db.GetContext(ctx, &id, `SELECT db_gallery_id FROM gids WHERE gid = ?`, gid.Uint32()); err != nil {
		return 0, translateError(err)
	}
	return id, nil
}

// Exists reports whether gid is known, without raising h2h.ErrNotFound.
// Deliberately NOT reproducing the source format's "fetch_one-returns-None"
// bug where an absent row was silently treated as found.
func (g *GIDs) Exists(ctx context.Context, gid h2h.GID) (bool, error) {
	_, err := g.IDByGID(ctx, gid)
	if err == nil {
		return true, nil
	}
	if h2h.IsNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("check gid %s exists: %w", gid, err)
}
