package mysql

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Titles implements the per-gallery title attribute table.
type Titles struct {
	db *sqlx.DB
}

// NewTitles constructs a Titles repository over db.
func NewTitles(db *sqlx.DB) *Titles { return &Titles{db: db} }

// Insert records galleryID's title.
func (t *Titles) Insert(ctx context.Context, galleryID uint32, title string) error {
	_, err := t.db.ExecContext(ctx, `INSERT INTO titles (db_gallery_id, title) VALUES (?, ?)`, galleryID, title)
	return translateError(err)
}

// Get returns galleryID's title.
func (t *Titles) Get(ctx context.Context, galleryID uint32) (string, error) {
	var title string
	err := t.db.GetContext(ctx, &title, `SELECT title FROM titles WHERE db_gallery_id = ?`, galleryID)
	if err != nil {
		return "", translateError(err)
	}
	return title, nil
}
