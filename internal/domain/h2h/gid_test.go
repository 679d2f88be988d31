package h2h_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
)

func TestParseGIDFromFolderName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		folder  string
		want    h2h.GID
		wantErr bool
	}{
		{name: "trailing bracket", folder: "My Gallery [12345]", want: 12345},
		{name: "trailing bracket with space", folder: "My Gallery [12345] ", want: 12345},
		{name: "no brackets, whole name is decimal", folder: "98765", want: 98765},
		{name: "no brackets, not decimal", folder: "not a gid", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := h2h.ParseGIDFromFolderName(tt.folder)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGID_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "42", h2h.GID(42).String())
	assert.Equal(t, uint32(42), h2h.GID(42).Uint32())
}
