package h2h_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
)

func TestNewTagPair(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		inName    string
		inValue   string
		wantName  string
		wantValue string
		wantErr   bool
	}{
		{name: "simple pair", inName: "artist", inValue: "bob", wantName: "artist", wantValue: "bob"},
		{name: "empty name becomes untagged", inName: "", inValue: "loli", wantName: "untagged", wantValue: "loli"},
		{name: "whitespace trimmed", inName: "  group  ", inValue: "  g1  ", wantName: "group", wantValue: "g1"},
		{name: "name too long", inName: strings.Repeat("a", h2h.IndexPrefixLimit+1), inValue: "x", wantErr: true},
		{name: "value too long", inName: "x", inValue: strings.Repeat("a", h2h.IndexPrefixLimit+1), wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := h2h.NewTagPair(tt.inName, tt.inValue)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, h2h.ErrTooLong)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, got.Name())
			assert.Equal(t, tt.wantValue, got.Value())
		})
	}
}

func TestParseTagPair(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       string
		wantName  string
		wantValue string
	}{
		{name: "colon separated", raw: "artist:bob", wantName: "artist", wantValue: "bob"},
		{name: "bare token", raw: "loli", wantName: "untagged", wantValue: "loli"},
		{name: "empty name before colon", raw: ":g1", wantName: "untagged", wantValue: "g1"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := h2h.ParseTagPair(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, got.Name())
			assert.Equal(t, tt.wantValue, got.Value())
		})
	}
}

func TestTagPair_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "artist:bob", h2h.MustNewTagPair("artist", "bob").String())
	assert.Equal(t, "loli", h2h.MustNewTagPair("", "loli").String())
}
