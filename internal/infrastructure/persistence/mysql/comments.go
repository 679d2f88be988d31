package mysql

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
)

// Comments implements the per-gallery comment attribute table.
// galleries_comments holds a row only if the comment is non-empty.
type Comments struct {
	db *sqlx.DB
}

// NewComments constructs a Comments repository over db.
func NewComments(db *sqlx.DB) *Comments { return &Comments{db: db} }

// Insert records galleryID's comment, skipping the write entirely when
// comment is empty.
func (c *Comments) Insert(ctx context.Context, galleryID uint32, comment string) error {
	if comment == "" {
		return nil
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO galleries_comments (db_gallery_id, comment) VALUES (?, ?)`, galleryID, comment)
	return translateError(err)
}

// Get returns galleryID's comment, or "" if it has none (a "has
// comment?" probe collapsed into a single call).
func (c *Comments) Get(ctx context.Context, galleryID uint32) (string, error) {
	var comment string
	err := c.db.GetContext(ctx, &comment, `SELECT comment FROM galleries_comments WHERE db_gallery_id = ?`, galleryID)
	if h2h.IsNotFound(translateError(err)) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return comment, nil
}
