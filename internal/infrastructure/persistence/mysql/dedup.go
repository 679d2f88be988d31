package mysql

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DuplicateAnalyzer reads the views built by schema.Apply to answer the
// Duplicate Analyzer's (C7) two questions: has the duplicate set grown,
// and which sha512 digests should be excluded from new archives.
type DuplicateAnalyzer struct {
	db *sqlx.DB
}

// NewDuplicateAnalyzer constructs a DuplicateAnalyzer over db.
func NewDuplicateAnalyzer(db *sqlx.DB) *DuplicateAnalyzer { return &DuplicateAnalyzer{db: db} }

// DuplicateCount returns count(*) on duplicated_files_hashs_sha512, the
// cheap check the orchestrator uses to decide whether to refresh its
// exclusion set between chunks.
func (a *DuplicateAnalyzer) DuplicateCount(ctx context.Context) (int64, error) {
	var n int64
	err := a.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM duplicated_files_hashs_sha512`)
	if err != nil {
		return 0, fmt.Errorf("count duplicated hashes: %w", err)
	}
	return n, nil
}

// ExcludedHashes returns every sha512 digest flagged as boilerplate by
// duplicated_hash_values_by_count_artist_ratio, hex
// encoded for direct comparison against a freshly computed digest.
func (a *DuplicateAnalyzer) ExcludedHashes(ctx context.Context) (map[string]struct{}, error) {
	var values []string
	err := a.db.SelectContext(ctx, &values, `SELECT LOWER(HEX(hash_value)) FROM duplicated_hash_values_by_count_artist_ratio`)
	if err != nil {
		return nil, fmt.Errorf("list excluded hashes: %w", err)
	}
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out, nil
}
