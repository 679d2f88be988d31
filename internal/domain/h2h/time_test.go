package h2h_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
)

func TestFormatAndParseDateTime_RoundTrip(t *testing.T) {
	t.Parallel()

	in := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s := h2h.FormatDateTime(in)
	assert.Equal(t, "2024-01-02 03:04:05", s)

	got, err := h2h.ParseDateTime(s)
	require.NoError(t, err)
	assert.True(t, in.Equal(got))
}

func TestNow_TruncatedToSecond(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(0), h2h.Now().UnixNano()%int64(time.Second))
}
