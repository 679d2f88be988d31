package storage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/storage"
)

func TestKeyGenerator_GenerateArchiveKey(t *testing.T) {
	t.Parallel()

	g := storage.NewKeyGenerator()
	uploadTime := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		grouping storage.Grouping
		want     string
	}{
		{storage.GroupingFlat, "gallery.cbz"},
		{storage.GroupingDateYear, "2024/gallery.cbz"},
		{storage.GroupingDateMonth, "2024/03/gallery.cbz"},
		{storage.GroupingDateDay, "2024/03/05/gallery.cbz"},
		{storage.Grouping(""), "gallery.cbz"},
	}

	for _, tt := range tests {
		got := g.GenerateArchiveKey(tt.grouping, "gallery", uploadTime)
		assert.Equal(t, tt.want, got)
	}
}

func TestKeyGenerator_ValidateKey(t *testing.T) {
	t.Parallel()

	g := storage.NewKeyGenerator()

	assert.NoError(t, g.ValidateKey("2024/gallery.cbz"))
	assert.Error(t, g.ValidateKey(""))
	assert.Error(t, g.ValidateKey("../escape.cbz"))
	assert.Error(t, g.ValidateKey("/absolute.cbz"))
}
