package mysql

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
)

// Tags implements the tag-name, tag-value, and tag-pair dictionary
// tables plus the per-gallery association table, using a three-step
// "insert dictionary rows then pairs then associations" protocol
// that tolerates concurrent duplicate-key races via a fixed-point
// retry.
type Tags struct {
	db *sqlx.DB
}

// NewTags constructs a Tags repository over db.
func NewTags(db *sqlx.DB) *Tags { return &Tags{db: db} }

func (t *Tags) getOrInsertName(ctx context.Context, name string) (uint32, error) {
	return getOrInsertDictRow(ctx, t.db, "tags_names_dbids", "db_tag_name_id", "tag_name", name)
}

func (t *Tags) getOrInsertValue(ctx context.Context, value string) (uint32, error) {
	return getOrInsertDictRow(ctx, t.db, "tags_values_dbids", "db_tag_value_id", "tag_value", value)
}

func (t *Tags) getOrInsertPair(ctx context.Context, nameID, valueID uint32) (uint32, error) {
	var id uint32
	err := t.db.GetContext(ctx, &id,
		`SELECT db_tag_pair_id FROM tags_pairs_dbids WHERE db_tag_name_id = ? AND db_tag_value_id = ?`,
		nameID, valueID)
	if err == nil {
		return id, nil
	}
	if !h2h.IsNotFound(translateError(err)) {
		return 0, fmt.Errorf("look up tag pair (%d, %d): %w", nameID, valueID, err)
	}

	res, err := t.db.ExecContext(ctx,
		`INSERT INTO tags_pairs_dbids (db_tag_name_id, db_tag_value_id) VALUES (?, ?)`, nameID, valueID)
	if err != nil {
		if isDuplicateKey(err) {
			return t.getOrInsertPair(ctx, nameID, valueID)
		}
		return 0, fmt.Errorf("insert tag pair (%d, %d): %w", nameID, valueID, err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted tag pair id: %w", err)
	}
	return uint32(lastID), nil
}

// getOrInsertDictRow implements the shared "catch duplicate-key, re-resolve"
// primitive used by every dictionary table in the schema (upload accounts,
// tag names, tag values, and hash digests all follow this shape).
func getOrInsertDictRow(ctx context.Context, db *sqlx.DB, table, idCol, valueCol, value string) (uint32, error) {
	var id uint32
	selectQ := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ?`, idCol, table, valueCol)
	err := db.GetContext(ctx, &id, selectQ, value)
	if err == nil {
		return id, nil
	}
	if !h2h.IsNotFound(translateError(err)) {
		return 0, fmt.Errorf("look up %s %q: %w", table, value, err)
	}

	insertQ := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?)`, table, valueCol)
	res, err := db.ExecContext(ctx, insertQ, value)
	if err != nil {
		if isDuplicateKey(err) {
			return getOrInsertDictRow(ctx, db, table, idCol, valueCol, value)
		}
		return 0, fmt.Errorf("insert %s %q: %w", table, value, err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted %s id: %w", table, err)
	}
	return uint32(lastID), nil
}

// InsertAssociations links galleryID to every tag in pairs, resolving
// (and creating, if novel) each tag's dictionary rows first.
func (t *Tags) InsertAssociations(ctx context.Context, galleryID uint32, pairs []h2h.TagPair) error {
	for _, pair := range pairs {
		nameID, err := t.getOrInsertName(ctx, pair.Name())
		if err != nil {
			return err
		}
		valueID, err := t.getOrInsertValue(ctx, pair.Value())
		if err != nil {
			return err
		}
		pairID, err := t.getOrInsertPair(ctx, nameID, valueID)
		if err != nil {
			return err
		}
		_, err = t.db.ExecContext(ctx,
			`INSERT INTO galleries_tags (db_gallery_id, db_tag_pair_id) VALUES (?, ?)`, galleryID, pairID)
		if err != nil {
			return fmt.Errorf("associate gallery %d with tag pair %d: %w", galleryID, pairID, translateError(err))
		}
	}
	return nil
}

// ByGallery returns every tag pair associated with galleryID.
func (t *Tags) ByGallery(ctx context.Context, galleryID uint32) ([]h2h.TagPair, error) {
	var rows []struct {
		Name  string `db:"tag_name"`
		Value string `db:"tag_value"`
	}
	err := t.db.SelectContext(ctx, &rows, `
		SELECT tn.tag_name, tv.tag_value
		FROM galleries_tags gt
		JOIN tags_pairs_dbids tp ON tp.db_tag_pair_id = gt.db_tag_pair_id
		JOIN tags_names_dbids tn ON tn.db_tag_name_id = tp.db_tag_name_id
		JOIN tags_values_dbids tv ON tv.db_tag_value_id = tp.db_tag_value_id
		WHERE gt.db_gallery_id = ?`, galleryID)
	if err != nil {
		return nil, fmt.Errorf("list tags for gallery %d: %w", galleryID, err)
	}
	pairs := make([]h2h.TagPair, 0, len(rows))
	for _, r := range rows {
		pair, err := h2h.NewTagPair(r.Name, r.Value)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}
