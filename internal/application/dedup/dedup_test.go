package dedup_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/application/dedup"
)

type fakeStore struct {
	count    int64
	excluded map[string]struct{}
	calls    int
}

func (f *fakeStore) DuplicateCount(ctx context.Context) (int64, error) {
	return f.count, nil
}

func (f *fakeStore) ExcludedHashes(ctx context.Context) (map[string]struct{}, error) {
	f.calls++
	return f.excluded, nil
}

func TestAnalyzer_RefreshesOnFirstCall(t *testing.T) {
	t.Parallel()

	store := &fakeStore{count: 3, excluded: map[string]struct{}{"abc": {}}}
	a := dedup.New(store, zerolog.Nop())

	refreshed, err := a.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.Equal(t, 1, store.calls)
	assert.True(t, a.IsExcluded("abc"))
	assert.False(t, a.IsExcluded("xyz"))
}

func TestAnalyzer_SkipsRefreshWhenCountUnchanged(t *testing.T) {
	t.Parallel()

	store := &fakeStore{count: 3, excluded: map[string]struct{}{"abc": {}}}
	a := dedup.New(store, zerolog.Nop())

	_, err := a.Refresh(context.Background())
	require.NoError(t, err)

	refreshed, err := a.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, refreshed)
	assert.Equal(t, 1, store.calls)
}

func TestAnalyzer_RefreshesWhenCountGrows(t *testing.T) {
	t.Parallel()

	store := &fakeStore{count: 3, excluded: map[string]struct{}{"abc": {}}}
	a := dedup.New(store, zerolog.Nop())

	_, err := a.Refresh(context.Background())
	require.NoError(t, err)

	store.count = 5
	store.excluded = map[string]struct{}{"abc": {}, "def": {}}

	refreshed, err := a.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.Equal(t, 2, store.calls)
	assert.True(t, a.IsExcluded("def"))
}
