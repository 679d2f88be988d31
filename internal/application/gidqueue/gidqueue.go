// Package gidqueue provides thin, named operations over the four
// gid-keyed queue tables for callers that don't need the full mysql
// repository surface: marking a gallery permanently removed, and
// scheduling or clearing delete/download requests.
package gidqueue

import (
	"context"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/persistence/mysql"
)

// Queue orchestrates the gid-keyed queue tables on behalf of the
// external fetcher and deletion workflows.
type Queue struct {
	db *mysql.GidQueues
}

// New constructs a Queue over db.
func New(db *mysql.GidQueues) *Queue {
	return &Queue{db: db}
}

// RequestDelete schedules gid for deletion unless it has already been
// permanently removed.
func (q *Queue) RequestDelete(ctx context.Context, gid h2h.GID) error {
	removed, err := q.db.IsRemoved(ctx, gid)
	if err != nil {
		return err
	}
	if removed {
		return nil
	}
	return q.db.ScheduleDelete(ctx, gid)
}

// DeleteQueue returns every gid currently scheduled for deletion.
func (q *Queue) DeleteQueue(ctx context.Context) ([]h2h.GID, error) {
	return q.db.ToDelete(ctx)
}

// CompleteDelete unschedules gid after its deletion has been carried
// out and marks it permanently removed so it is never re-requested.
func (q *Queue) CompleteDelete(ctx context.Context, gid h2h.GID) error {
	if err := q.db.UnscheduleDelete(ctx, gid); err != nil {
		return err
	}
	return q.db.MarkRemoved(ctx, gid)
}

// RequestDownload schedules gid for (re)download at url, upgrading a
// previously empty url if one is now known.
func (q *Queue) RequestDownload(ctx context.Context, gid h2h.GID, url string) error {
	return q.db.ScheduleDownload(ctx, gid, url)
}

// DownloadQueue returns every gid scheduled for download, keyed to its
// known url (possibly empty).
func (q *Queue) DownloadQueue(ctx context.Context) (map[h2h.GID]string, error) {
	return q.db.ToDownload(ctx)
}

// CompleteDownload unschedules gid once it has been fetched.
func (q *Queue) CompleteDownload(ctx context.Context, gid h2h.GID) error {
	return q.db.UnscheduleDownload(ctx, gid)
}
