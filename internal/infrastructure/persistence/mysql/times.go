package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// TimeKind identifies one of the five per-gallery timestamp attributes
//. Each has its own table but identical shape, so one
// generic GalleryTimes implementation serves all five.
type TimeKind string

const (
	UploadTime     TimeKind = "galleries_upload_times"
	DownloadTime   TimeKind = "galleries_download_times"
	ModifiedTime   TimeKind = "galleries_modified_times"
	AccessTime     TimeKind = "galleries_access_times"
	RedownloadTime TimeKind = "galleries_redownload_times"
)

// GalleryTimes implements insert/get/update for one of the five
// second-precision per-gallery timestamp tables.
type GalleryTimes struct {
	db    *sqlx.DB
	table TimeKind
}

// NewGalleryTimes constructs a GalleryTimes repository over db for the
// given attribute.
func NewGalleryTimes(db *sqlx.DB, kind TimeKind) *GalleryTimes {
	return &GalleryTimes{db: db, table: kind}
}

// Insert records galleryID's timestamp. upload_time/modified_time/
// download_time/redownload_time are set once at ingest;
// access_time is also inserted here and later touched via Update.
func (t *GalleryTimes) Insert(ctx context.Context, galleryID uint32, when time.Time) error {
	query := fmt.Sprintf(`INSERT INTO %s (db_gallery_id, time) VALUES (?, ?)`, t.table)
	_, err := t.db.ExecContext(ctx, query, galleryID, when)
	return translateError(err)
}

// Get returns galleryID's timestamp.
func (t *GalleryTimes) Get(ctx context.Context, galleryID uint32) (time.Time, error) {
	var when time.Time
	query := fmt.Sprintf(`SELECT time FROM %s WHERE db_gallery_id = ?`, t.table)
	if err := t.db.GetContext(ctx, &when, query, galleryID); err != nil {
		return time.Time{}, translateError(err)
	}
	return when, nil
}

// Update overwrites galleryID's timestamp, the only write access_time and
// redownload_time take after ingest.
func (t *GalleryTimes) Update(ctx context.Context, galleryID uint32, when time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET time = ? WHERE db_gallery_id = ?`, t.table)
	_, err := t.db.ExecContext(ctx, query, when, galleryID)
	if err != nil {
		return fmt.Errorf("update %s for gallery %d: %w", t.table, galleryID, err)
	}
	return nil
}

// ResetStaleRedownloadTimes resets every gallery whose redownload_time
// no longer matches its download_time back to it, a single statement
// rather than a row-by-row diff.
func ResetStaleRedownloadTimes(ctx context.Context, db *sqlx.DB) (int64, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE galleries_redownload_times r
		JOIN galleries_download_times d ON d.db_gallery_id = r.db_gallery_id
		SET r.time = d.time
		WHERE r.time <> d.time`)
	if err != nil {
		return 0, fmt.Errorf("reset stale redownload times: %w", err)
	}
	return res.RowsAffected()
}
