package mysql

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
)

// Hashes implements the Hash Store (C5): one content dictionary table and
// one file-to-hash mapping table per algorithm, bulk-deduped per batch
// so a gallery's files are registered in three phases instead of
// N×11 round-trips.
type Hashes struct {
	db *sqlx.DB
}

// NewHashes constructs a Hashes repository over db.
func NewHashes(db *sqlx.DB) *Hashes { return &Hashes{db: db} }

// FileDigests is the set of eleven hex-encoded digests computed for one
// file's bytes, plus the file's own surrogate id.
type FileDigests struct {
	FileID  uint32
	Digests map[h2h.HashAlgorithm]string
}

// RegisterBatch registers the digests of every file in files against
// each of the eleven dictionary/mapping table pairs. Phase 1 (digest
// computation) is the caller's responsibility; this performs phases 2
// and 3: bulk-insert novel digests, then bulk-insert mappings.
func (h *Hashes) RegisterBatch(ctx context.Context, files []FileDigests) error {
	for _, alg := range h2h.HashAlgorithms {
		digestToFileIDs := make(map[string][]uint32)
		for _, f := range files {
			digest := f.Digests[alg]
			digestToFileIDs[digest] = append(digestToFileIDs[digest], f.FileID)
		}

		if err := h.bulkInsertDigests(ctx, alg, digestKeys(digestToFileIDs)); err != nil {
			return err
		}

		idByDigest, err := h.digestIDs(ctx, alg, digestKeys(digestToFileIDs))
		if err != nil {
			return err
		}

		if err := h.bulkInsertMappings(ctx, alg, digestToFileIDs, idByDigest); err != nil {
			return err
		}
	}
	return nil
}

func digestKeys(m map[string][]uint32) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// bulkInsertDigests inserts every novel digest for alg, using
// ON DUPLICATE KEY UPDATE to make the statement idempotent under
// concurrent ingesters.
func (h *Hashes) bulkInsertDigests(ctx context.Context, alg h2h.HashAlgorithm, digests []string) error {
	if len(digests) == 0 {
		return nil
	}
	table := dictTableName(alg)
	placeholders := make([]string, len(digests))
	args := make([]any, len(digests))
	for i, d := range digests {
		raw, err := hex.DecodeString(d)
		if err != nil {
			return fmt.Errorf("decode %s digest %q: %w", alg, d, err)
		}
		placeholders[i] = "(?)"
		args[i] = raw
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (hash_value) VALUES %s ON DUPLICATE KEY UPDATE db_hash_id = db_hash_id",
		table, strings.Join(placeholders, ", "))
	if _, err := h.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("bulk insert %s digests: %w", alg, err)
	}
	return nil
}

// digestIDs resolves the dictionary id for every digest in digests.
func (h *Hashes) digestIDs(ctx context.Context, alg h2h.HashAlgorithm, digests []string) (map[string]uint32, error) {
	out := make(map[string]uint32, len(digests))
	if len(digests) == 0 {
		return out, nil
	}
	table := dictTableName(alg)
	rawDigests := make([][]byte, len(digests))
	for i, d := range digests {
		raw, err := hex.DecodeString(d)
		if err != nil {
			return nil, fmt.Errorf("decode %s digest %q: %w", alg, d, err)
		}
		rawDigests[i] = raw
	}

	query, args, err := sqlx.In(fmt.Sprintf("SELECT db_hash_id, hash_value FROM %s WHERE hash_value IN (?)", table), rawDigests)
	if err != nil {
		return nil, fmt.Errorf("build %s digest lookup query: %w", alg, err)
	}
	query = h.db.Rebind(query)

	var rows []struct {
		ID    uint32 `db:"db_hash_id"`
		Value []byte `db:"hash_value"`
	}
	if err := h.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("resolve %s digest ids: %w", alg, err)
	}
	for _, r := range rows {
		out[hex.EncodeToString(r.Value)] = r.ID
	}
	return out, nil
}

// bulkInsertMappings inserts (file, hash) rows for alg, one per file in
// the batch.
func (h *Hashes) bulkInsertMappings(ctx context.Context, alg h2h.HashAlgorithm, digestToFileIDs map[string][]uint32, idByDigest map[string]uint32) error {
	type mapping struct {
		FileID uint32
		HashID uint32
	}
	var mappings []mapping
	for digest, fileIDs := range digestToFileIDs {
		hashID, ok := idByDigest[digest]
		if !ok {
			return fmt.Errorf("resolve %s digest id for %q: %w", alg, digest, h2h.ErrNotFound)
		}
		for _, fid := range fileIDs {
			mappings = append(mappings, mapping{FileID: fid, HashID: hashID})
		}
	}
	if len(mappings) == 0 {
		return nil
	}

	table := mapTableName(alg)
	placeholders := make([]string, len(mappings))
	args := make([]any, 0, len(mappings)*2)
	for i, m := range mappings {
		placeholders[i] = "(?, ?)"
		args = append(args, m.FileID, m.HashID)
	}
	query := fmt.Sprintf("INSERT INTO %s (db_file_id, db_hash_id) VALUES %s", table, strings.Join(placeholders, ", "))
	if _, err := h.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("bulk insert %s mappings: %w", alg, err)
	}
	return nil
}

// ReclaimOrphans deletes dictionary rows, for every algorithm, whose
// db_hash_id no longer appears in that algorithm's mapping table
//. Runs the eleven deletes
// independently so callers can parallelize across a worker pool.
func (h *Hashes) ReclaimOrphans(ctx context.Context, alg h2h.HashAlgorithm) (int64, error) {
	query := fmt.Sprintf(`
		DELETE d FROM %s d
		LEFT JOIN %s m ON m.db_hash_id = d.db_hash_id
		WHERE m.db_hash_id IS NULL`, dictTableName(alg), mapTableName(alg))
	res, err := h.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("reclaim orphan %s hashes: %w", alg, err)
	}
	return res.RowsAffected()
}
