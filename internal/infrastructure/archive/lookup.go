package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/persistence/mysql"
)

// storeLookup adapts *mysql.Store into Lookup, narrowing it to the two
// reads the Archive Builder needs: the stored sha512 for its rewrite
// decision, and the upload time for date-based grouping.
type storeLookup struct {
	store *mysql.Store
}

// NewStoreLookup constructs a Lookup backed by store.
func NewStoreLookup(store *mysql.Store) Lookup {
	return &storeLookup{store: store}
}

func (l *storeLookup) GalleryInfoSHA512(ctx context.Context, name h2h.GalleryName) (string, bool, error) {
	galleryID, err := l.store.Galleries.IDByName(ctx, name)
	if h2h.IsNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	sidecarFileID, err := l.store.Files.IDByName(ctx, galleryID, mustFileName("galleryinfo.txt"))
	if h2h.IsNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	var hexDigest string
	err = l.store.DB.GetContext(ctx, &hexDigest, `
		SELECT LOWER(HEX(d.hash_value))
		FROM files_hashs_sha512 m
		JOIN files_hashs_sha512_dbids d ON d.db_hash_id = m.db_hash_id
		WHERE m.db_file_id = ?`, sidecarFileID)
	if err != nil {
		return "", false, fmt.Errorf("read stored sha512 for gallery %s: %w", name, err)
	}
	return hexDigest, true, nil
}

func (l *storeLookup) UploadTime(ctx context.Context, name h2h.GalleryName) (time.Time, bool, error) {
	galleryID, err := l.store.Galleries.IDByName(ctx, name)
	if h2h.IsNotFound(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}

	t, err := l.store.UploadTimes.Get(ctx, galleryID)
	if h2h.IsNotFound(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

func mustFileName(name string) h2h.FileName {
	fn, err := h2h.NewFileName(name)
	if err != nil {
		panic(err)
	}
	return fn
}
