package concurrency_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/concurrency"
)

func TestPool_RunsAllTasks(t *testing.T) {
	t.Parallel()

	p := concurrency.New(context.Background(), 4)
	var count atomic.Int32
	for i := 0; i < 20; i++ {
		p.Go(func(ctx context.Context) error {
			count.Add(1)
			return nil
		})
	}
	require.NoError(t, p.Wait())
	assert.EqualValues(t, 20, count.Load())
}

func TestPool_PropagatesFirstError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("boom")
	p := concurrency.New(context.Background(), 2)
	p.Go(func(ctx context.Context) error { return wantErr })
	p.Go(func(ctx context.Context) error { return nil })

	err := p.Wait()
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
}

func TestDBPoolSize_AtLeastOne(t *testing.T) {
	t.Parallel()

	assert.GreaterOrEqual(t, concurrency.DBPoolSize(), 1)
}
