// Package schema implements the Schema Manager (C2): idempotent creation
// of every table and view, gated on the server's character set and
// collation.
package schema

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
)

//go:embed all:migrations
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Apply brings the non-algorithmic core schema (gallery/file/tag/gid-queue
// tables) up to date via goose, then creates the per-hash-algorithm table
// pairs and the read-only views, which are parameterized over the eleven
// digest algorithms and so are generated in code rather than as static
// migration SQL.
func Apply(ctx context.Context, db *sqlx.DB) error {
	if err := applyCoreMigrations(ctx, db.DB); err != nil {
		return err
	}
	if err := createHashTables(ctx, db); err != nil {
		return err
	}
	if err := createViews(ctx, db); err != nil {
		return err
	}
	return nil
}

func applyCoreMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("mysql"); err != nil {
		return fmt.Errorf("%w: set goose dialect: %v", h2h.ErrConfig, err)
	}
	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("apply core schema migrations: %w", err)
	}
	return nil
}

func createHashTables(ctx context.Context, db *sqlx.DB) error {
	for _, alg := range h2h.HashAlgorithms {
		dictDDL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				db_hash_id INT UNSIGNED NOT NULL AUTO_INCREMENT,
				hash_value VARBINARY(%d) NOT NULL,
				PRIMARY KEY (db_hash_id),
				UNIQUE KEY uq_%s_value (hash_value)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,
			dictTableName(alg), alg.DigestLength()/2, dictTableName(alg))
		if _, err := db.ExecContext(ctx, dictDDL); err != nil {
			return fmt.Errorf("create hash dictionary table for %s: %w", alg, err)
		}

		mapDDL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				db_file_id INT UNSIGNED NOT NULL,
				db_hash_id INT UNSIGNED NOT NULL,
				PRIMARY KEY (db_file_id),
				KEY idx_%s_hash (db_hash_id),
				CONSTRAINT fk_%s_file FOREIGN KEY (db_file_id)
					REFERENCES files_dbids (db_file_id) ON DELETE CASCADE ON UPDATE CASCADE,
				CONSTRAINT fk_%s_hash FOREIGN KEY (db_hash_id)
					REFERENCES %s (db_hash_id) ON DELETE RESTRICT ON UPDATE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,
			mapTableName(alg), mapTableName(alg), mapTableName(alg), mapTableName(alg), dictTableName(alg))
		if _, err := db.ExecContext(ctx, mapDDL); err != nil {
			return fmt.Errorf("create hash mapping table for %s: %w", alg, err)
		}
	}
	return nil
}

// dictTableName returns "files_hashs_{A}_dbids" for algorithm alg.
func dictTableName(alg h2h.HashAlgorithm) string {
	return fmt.Sprintf("files_hashs_%s_dbids", alg)
}

// mapTableName returns "files_hashs_{A}" for algorithm alg.
func mapTableName(alg h2h.HashAlgorithm) string {
	return fmt.Sprintf("files_hashs_%s", alg)
}

func createViews(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range viewStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create view: %w", err)
		}
	}
	return nil
}

// viewStatements builds the CREATE OR REPLACE VIEW statements the
// schema depends on. Views are recreated on every Apply call, which
// is the MySQL-idiomatic equivalent of "IF NOT EXISTS" for views (MySQL
// has no CREATE VIEW IF NOT EXISTS).
func viewStatements() []string {
	stmts := []string{
		`CREATE OR REPLACE VIEW galleries_infos AS
		 SELECT g.db_gallery_id, g.gallery_name, gi.gid, t.title,
		        ua.account_name AS upload_account,
		        c.comment,
		        ut.time AS upload_time, dt.time AS download_time,
		        mt.time AS modified_time, at.time AS access_time,
		        rt.time AS redownload_time
		 FROM galleries_dbids g
		 JOIN gids gi ON gi.db_gallery_id = g.db_gallery_id
		 JOIN titles t ON t.db_gallery_id = g.db_gallery_id
		 JOIN galleries_upload_accounts gua ON gua.db_gallery_id = g.db_gallery_id
		 JOIN upload_accounts_dbids ua ON ua.db_account_id = gua.db_account_id
		 LEFT JOIN galleries_comments c ON c.db_gallery_id = g.db_gallery_id
		 JOIN galleries_upload_times ut ON ut.db_gallery_id = g.db_gallery_id
		 JOIN galleries_download_times dt ON dt.db_gallery_id = g.db_gallery_id
		 JOIN galleries_modified_times mt ON mt.db_gallery_id = g.db_gallery_id
		 JOIN galleries_access_times at ON at.db_gallery_id = g.db_gallery_id
		 JOIN galleries_redownload_times rt ON rt.db_gallery_id = g.db_gallery_id`,

		`CREATE OR REPLACE VIEW todelete_names AS
		 SELECT g.db_gallery_id, g.gallery_name
		 FROM galleries_dbids g
		 JOIN gids gi ON gi.db_gallery_id = g.db_gallery_id
		 JOIN todelete_gids td ON td.gid = gi.gid`,

		`CREATE OR REPLACE VIEW pending_download_gids AS
		 SELECT gi.gid
		 FROM gids gi
		 JOIN galleries_upload_times ut ON ut.db_gallery_id = gi.db_gallery_id
		 JOIN galleries_download_times dt ON dt.db_gallery_id = gi.db_gallery_id
		 JOIN galleries_redownload_times rt ON rt.db_gallery_id = gi.db_gallery_id
		 WHERE rt.time + INTERVAL 7 DAY <= NOW()
		   AND ut.time + INTERVAL 7 DAY <= NOW()
		   AND rt.time <= ut.time + INTERVAL 1 YEAR
		   AND (dt.time + INTERVAL 7 DAY <= NOW() OR dt.time + INTERVAL 7 DAY <= rt.time)
		 ORDER BY ut.time DESC`,
	}
	stmts = append(stmts, filesHashsViewStatement(), duplicatedSHA512ViewStatement())
	stmts = append(stmts, duplicateHashInGalleryViewStatement(), duplicatedByArtistRatioViewStatement())
	return stmts
}

// filesHashsViewStatement wide-joins every per-algorithm mapping/dictionary
// pair into one row per file, returning every digest's raw bytes.
func filesHashsViewStatement() string {
	selectCols := "f.db_file_id"
	joins := ""
	for _, alg := range h2h.HashAlgorithms {
		selectCols += fmt.Sprintf(", %s_dict.hash_value AS %s", alg, alg)
		joins += fmt.Sprintf(" LEFT JOIN %s %s_map ON %s_map.db_file_id = f.db_file_id"+
			" LEFT JOIN %s %s_dict ON %s_dict.db_hash_id = %s_map.db_hash_id",
			mapTableName(alg), alg, alg,
			dictTableName(alg), alg, alg, alg)
	}
	return fmt.Sprintf(`CREATE OR REPLACE VIEW files_hashs AS SELECT %s FROM files_dbids f%s`, selectCols, joins)
}

// duplicatedSHA512ViewStatement is "duplicated_files_hashs_sha512": hashes
// referenced by at least three files.
func duplicatedSHA512ViewStatement() string {
	return fmt.Sprintf(`
		CREATE OR REPLACE VIEW duplicated_files_hashs_sha512 AS
		SELECT m.db_hash_id, d.hash_value, COUNT(*) AS file_count
		FROM %s m
		JOIN %s d ON d.db_hash_id = m.db_hash_id
		GROUP BY m.db_hash_id, d.hash_value
		HAVING COUNT(*) >= 3`,
		mapTableName(h2h.DuplicateDetectionAlgorithm), dictTableName(h2h.DuplicateDetectionAlgorithm))
}

// duplicateHashInGalleryViewStatement flags galleries whose own files are
// at least 90% duplicated against each other under SHA512.
func duplicateHashInGalleryViewStatement() string {
	return fmt.Sprintf(`
		CREATE OR REPLACE VIEW duplicate_hash_in_gallery AS
		SELECT fd.db_gallery_id,
		       COUNT(DISTINCT dup.db_hash_id) AS duplicate_count,
		       COUNT(DISTINCT m.db_hash_id) AS total_count,
		       COUNT(DISTINCT dup.db_hash_id) / COUNT(DISTINCT m.db_hash_id) AS duplicate_ratio
		FROM files_dbids fd
		JOIN %s m ON m.db_file_id = fd.db_file_id
		JOIN duplicated_files_hashs_sha512 dup ON dup.db_hash_id = m.db_hash_id
		GROUP BY fd.db_gallery_id
		HAVING duplicate_ratio >= 0.9`,
		mapTableName(h2h.DuplicateDetectionAlgorithm))
}

// duplicatedByArtistRatioViewStatement implements the artist-ratio
// heuristic: a duplicated hash is flagged when the number of distinct
// artists whose galleries contain it exceeds twice the largest
// per-gallery artist count among those galleries.
func duplicatedByArtistRatioViewStatement() string {
	return fmt.Sprintf(`
		CREATE OR REPLACE VIEW duplicated_hash_values_by_count_artist_ratio AS
		SELECT dup.db_hash_id, dup.hash_value
		FROM duplicated_files_hashs_sha512 dup
		JOIN %s m ON m.db_hash_id = dup.db_hash_id
		JOIN files_dbids fd ON fd.db_file_id = m.db_file_id
		JOIN galleries_tags gt ON gt.db_gallery_id = fd.db_gallery_id
		JOIN tags_pairs_dbids tp ON tp.db_tag_pair_id = gt.db_tag_pair_id
		JOIN tags_names_dbids tn ON tn.db_tag_name_id = tp.db_tag_name_id
		JOIN tags_values_dbids tv ON tv.db_tag_value_id = tp.db_tag_value_id
		WHERE tn.tag_name = 'artist'
		GROUP BY dup.db_hash_id, dup.hash_value
		HAVING COUNT(DISTINCT tv.tag_value) >
		       2 * (
		           SELECT MAX(artist_count) FROM (
		               SELECT fd2.db_gallery_id, COUNT(DISTINCT tv2.tag_value) AS artist_count
		               FROM files_dbids fd2
		               JOIN %s m2 ON m2.db_file_id = fd2.db_file_id
		               JOIN galleries_tags gt2 ON gt2.db_gallery_id = fd2.db_gallery_id
		               JOIN tags_pairs_dbids tp2 ON tp2.db_tag_pair_id = gt2.db_tag_pair_id
		               JOIN tags_names_dbids tn2 ON tn2.db_tag_name_id = tp2.db_tag_name_id
		               JOIN tags_values_dbids tv2 ON tv2.db_tag_value_id = tp2.db_tag_value_id
		               WHERE m2.db_hash_id = dup.db_hash_id AND tn2.tag_name = 'artist'
		               GROUP BY fd2.db_gallery_id
		           ) per_gallery
		       )`,
		mapTableName(h2h.DuplicateDetectionAlgorithm), mapTableName(h2h.DuplicateDetectionAlgorithm))
}
