package archive

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArchiveSanitize_ShortNameUnchanged(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "my gallery", ArchiveSanitize("my gallery"))
}

func TestArchiveSanitize_LeftTrimsUntilUnderLimit(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 300)
	got := ArchiveSanitize(long)
	assert.LessOrEqual(t, len(got)+4, 255)
	assert.True(t, strings.HasSuffix(long, got))
}
