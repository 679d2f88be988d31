// Package concurrency implements the bounded worker pools of C10:
// data-parallel task submission over a semaphore-gated errgroup, sized
// to keep the total thread count across both pools at 2·cpu_count.
package concurrency

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Pool runs tasks with bounded concurrency: at most Limit tasks execute
// at once, and Wait returns the first error encountered (if any), after
// every submitted task has finished or been skipped.
type Pool struct {
	limit int
	sem   *semaphore.Weighted
	group *errgroup.Group
	ctx   context.Context
}

// New constructs a Pool bounded at limit concurrent tasks. limit is
// clamped to at least 1.
func New(ctx context.Context, limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	group, gctx := errgroup.WithContext(ctx)
	return &Pool{
		limit: limit,
		sem:   semaphore.NewWeighted(int64(limit)),
		group: group,
		ctx:   gctx,
	}
}

// Limit returns the pool's concurrency bound.
func (p *Pool) Limit() int { return p.limit }

// Go submits fn to run as soon as a permit is available. fn receives the
// pool's (possibly already-canceled) context.
func (p *Pool) Go(fn func(ctx context.Context) error) {
	p.group.Go(func() error {
		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			return err
		}
		defer p.sem.Release(1)
		return fn(p.ctx)
	})
}

// Wait blocks until every submitted task has returned, and returns the
// first non-nil error, if any.
func (p *Pool) Wait() error {
	return p.group.Wait()
}

// Pools holds the two distinct worker pools: one for DB/CPU-bound
// ingestion work, one for Komga HTTP work, together capped at
// 2·cpu_count goroutines.
type Pools struct {
	DB    *Pool
	Komga *Pool
}

// DBPoolSize is P = max(1, cpu_count - 2), the ingestion worker pool
// size.
func DBPoolSize() int {
	if n := runtime.NumCPU() - 2; n > 1 {
		return n
	}
	return 1
}

// KomgaPoolSize is the Komga loop's fixed semaphore size.
const KomgaPoolSize = 10

// NewPools constructs the DB and Komga pools, both scoped to ctx.
func NewPools(ctx context.Context) *Pools {
	return &Pools{
		DB:    New(ctx, DBPoolSize()),
		Komga: New(ctx, KomgaPoolSize),
	}
}

// TotalCap is the hard ceiling places over both pools
// combined: 2·cpu_count.
func TotalCap() int {
	return 2 * runtime.NumCPU()
}
