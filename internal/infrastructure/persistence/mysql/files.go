package mysql

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
)

// Files implements the per-gallery file table (files_dbids).
type Files struct {
	db *sqlx.DB
}

// NewFiles constructs a Files repository over db.
func NewFiles(db *sqlx.DB) *Files { return &Files{db: db} }

// Insert creates a new file row under galleryID and returns its surrogate
// id. Fails with h2h.ErrDuplicateKey if the name already exists in that
// gallery.
func (f *Files) Insert(ctx context.Context, galleryID uint32, name h2h.FileName) (uint32, error) {
	parts := name.Parts()
	res, err := f.db.ExecContext(ctx,
		`INSERT INTO files_dbids (db_gallery_id, file_name, file_name_1, file_name_2) VALUES (?, ?, ?, ?)`,
		galleryID, name.String(), parts[0], parts[1])
	if err != nil {
		return 0, translateError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted file id: %w", err)
	}
	return uint32(id), nil
}

// IDByName resolves a file's surrogate id within a gallery.
func (f *Files) IDByName(ctx context.Context, galleryID uint32, name h2h.FileName) (uint32, error) {
	parts := name.Parts()
	var id uint32
	err := f.db.GetContext(ctx, &id,
		`SELECT db_file_id FROM files_dbids WHERE db_gallery_id = ? AND file_name_1 = ? AND file_name_2 = ?`,
		galleryID, parts[0], parts[1])
	if err != nil {
		return 0, translateError(err)
	}
	return id, nil
}

// NamesByGallery returns every file name under a gallery, including
// galleryinfo.txt.
func (f *Files) NamesByGallery(ctx context.Context, galleryID uint32) ([]string, error) {
	var names []string
	err := f.db.SelectContext(ctx, &names,
		`SELECT file_name FROM files_dbids WHERE db_gallery_id = ? ORDER BY db_file_id`, galleryID)
	if err != nil {
		return nil, fmt.Errorf("list files for gallery %d: %w", galleryID, err)
	}
	return names, nil
}
