package h2h_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
)

func TestSplitName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "empty", input: ""},
		{name: "short", input: "MyGallery [12345]"},
		{name: "exactly one prefix", input: strings.Repeat("a", h2h.IndexPrefixLimit)},
		{name: "exactly max length", input: strings.Repeat("a", h2h.MaxNameLength)},
		{name: "too long", input: strings.Repeat("a", h2h.MaxNameLength+1), wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			parts, err := h2h.SplitName(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, h2h.ErrTooLong)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, parts.Join())
			for _, p := range parts {
				assert.LessOrEqual(t, len(p), h2h.IndexPrefixLimit)
			}
		})
	}
}

func TestNewGalleryName_RoundTrip(t *testing.T) {
	t.Parallel()

	n, err := h2h.NewGalleryName("Some Gallery [98765]")
	require.NoError(t, err)
	assert.Equal(t, "Some Gallery [98765]", n.String())
	assert.Equal(t, "Some Gallery [98765]", n.Parts().Join())
}

func TestNewGalleryName_TooLong(t *testing.T) {
	t.Parallel()

	_, err := h2h.NewGalleryName(strings.Repeat("x", h2h.MaxNameLength+1))
	require.Error(t, err)
	assert.ErrorIs(t, err, h2h.ErrTooLong)
}

func TestNewFileName_RoundTrip(t *testing.T) {
	t.Parallel()

	n, err := h2h.NewFileName("galleryinfo.txt")
	require.NoError(t, err)
	assert.Equal(t, "galleryinfo.txt", n.String())
	assert.Equal(t, "galleryinfo.txt", n.Parts().Join())
}
