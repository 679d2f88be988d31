package mysql

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
)

// Galleries implements the natural-key <-> surrogate-id half of the
// Entity Tables component (C4) for the Gallery entity itself.
type Galleries struct {
	db *sqlx.DB
}

// NewGalleries constructs a Galleries repository over db.
func NewGalleries(db *sqlx.DB) *Galleries { return &Galleries{db: db} }

// Insert creates a new gallery row and returns its surrogate id. Fails
// with h2h.ErrDuplicateKey if the name is already present.
func (g *Galleries) Insert(ctx context.Context, name h2h.GalleryName) (uint32, error) {
	parts := name.Parts()
	res, err := g.db.ExecContext(ctx,
		`INSERT INTO galleries_dbids (gallery_name, gallery_name_1, gallery_name_2) VALUES (?, ?, ?)`,
		name.String(), parts[0], parts[1])
	if err != nil {
		return 0, translateError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted gallery id: %w", err)
	}
	return uint32(id), nil
}

// IDByName resolves a gallery's surrogate id by its natural key. Returns
// h2h.ErrNotFound if no such gallery exists.
func (g *Galleries) IDByName(ctx context.Context, name h2h.GalleryName) (uint32, error) {
	parts := name.Parts()
	var id uint32
	err := g.db.GetContext(ctx, &id,
		`SELECT db_gallery_id FROM galleries_dbids WHERE gallery_name_1 = ? AND gallery_name_2 = ?`,
		parts[0], parts[1])
	if err != nil {
		return 0, translateError(err)
	}
	return id, nil
}

// Exists reports whether a gallery with this name has been ingested.
func (g *Galleries) Exists(ctx context.Context, name h2h.GalleryName) (bool, error) {
	_, err := g.IDByName(ctx, name)
	if err == nil {
		return true, nil
	}
	if h2h.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// Delete removes a gallery row by surrogate id; every dependent table
// cascades via ON DELETE CASCADE. Safe to call when the
// gallery is already absent.
func (g *Galleries) Delete(ctx context.Context, id uint32) error {
	_, err := g.db.ExecContext(ctx, `DELETE FROM galleries_dbids WHERE db_gallery_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete gallery %d: %w", id, err)
	}
	return nil
}

// DeleteByName removes a gallery row by its natural key, a no-op if the
// gallery is absent.
func (g *Galleries) DeleteByName(ctx context.Context, name h2h.GalleryName) error {
	parts := name.Parts()
	_, err := g.db.ExecContext(ctx,
		`DELETE FROM galleries_dbids WHERE gallery_name_1 = ? AND gallery_name_2 = ?`,
		parts[0], parts[1])
	if err != nil {
		return fmt.Errorf("delete gallery %q: %w", name.String(), err)
	}
	return nil
}
