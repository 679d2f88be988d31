package redownload

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResetter struct {
	n   int64
	err error
}

func (f *fakeResetter) ResetStaleRedownloadTimes(ctx context.Context) (int64, error) {
	return f.n, f.err
}

func TestReset_Success(t *testing.T) {
	t.Parallel()
	require.NoError(t, Reset(context.Background(), &fakeResetter{n: 3}, zerolog.Nop()))
}

func TestReset_PropagatesError(t *testing.T) {
	t.Parallel()
	wantErr := errors.New("db down")
	err := Reset(context.Background(), &fakeResetter{err: wantErr}, zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
}
