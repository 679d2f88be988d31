package komgasync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
)

func TestAuthorsFromTags_SkipsUntagged(t *testing.T) {
	t.Parallel()

	tags := []h2h.TagPair{
		h2h.MustNewTagPair("artist", "bob"),
		h2h.MustNewTagPair("", "loli"),
		h2h.MustNewTagPair("group", "g1"),
	}
	authors := authorsFromTags(tags)
	assert.Len(t, authors, 2)
	assert.Equal(t, "bob", authors[0].Name)
	assert.Equal(t, "artist", authors[0].Role)
}

func TestSync_ExcludeSetsAreIndependentAndIdempotent(t *testing.T) {
	t.Parallel()

	s := &Sync{booksExcluded: make(map[string]struct{}), seriesExcluded: make(map[string]struct{})}
	assert.False(t, s.isBookExcluded("b1"))
	s.markBookExcluded("b1")
	assert.True(t, s.isBookExcluded("b1"))
	assert.False(t, s.isSeriesExcluded("b1"))
}
