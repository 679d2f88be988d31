// Package dedup implements the Duplicate Analyzer (C7): a lazily
// refreshed, concurrency-safe view over the boilerplate exclusion set
// that archive building consults before packing a file.
package dedup

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// duplicateStore is the read side of mysql.DuplicateAnalyzer this
// package depends on, narrowed to an interface so Analyzer can be
// exercised without a database.
type duplicateStore interface {
	DuplicateCount(ctx context.Context) (int64, error)
	ExcludedHashes(ctx context.Context) (map[string]struct{}, error)
}

// Analyzer caches the exclusion set and only re-queries it when the
// duplicate-hash count has grown since the last refresh, so a long
// orchestrator run doesn't re-scan the view on every chunk.
type Analyzer struct {
	db     duplicateStore
	logger zerolog.Logger

	mu        sync.RWMutex
	lastCount int64
	excluded  map[string]struct{}
	refreshed bool
}

// New constructs an Analyzer over db.
func New(db duplicateStore, logger zerolog.Logger) *Analyzer {
	return &Analyzer{db: db, logger: logger, excluded: make(map[string]struct{})}
}

// Refresh re-reads the duplicate count and, only if it has grown since
// the last refresh (or none has happened yet), reloads the exclusion
// set. Returns whether the set was actually reloaded.
func (a *Analyzer) Refresh(ctx context.Context) (bool, error) {
	count, err := a.db.DuplicateCount(ctx)
	if err != nil {
		return false, err
	}

	a.mu.RLock()
	stale := !a.refreshed || count > a.lastCount
	a.mu.RUnlock()
	if !stale {
		return false, nil
	}

	excluded, err := a.db.ExcludedHashes(ctx)
	if err != nil {
		return false, err
	}

	a.mu.Lock()
	a.excluded = excluded
	a.lastCount = count
	a.refreshed = true
	a.mu.Unlock()

	a.logger.Debug().Int64("duplicate_count", count).Int("excluded", len(excluded)).Msg("duplicate exclusion set refreshed")
	return true, nil
}

// IsExcluded reports whether a sha512 digest (lowercase hex) is flagged
// as boilerplate and should be left out of a new archive. Safe to call
// concurrently with Refresh.
func (a *Analyzer) IsExcluded(digest string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.excluded[digest]
	return ok
}
