package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
)

func TestDigestAll_CoversEveryAlgorithm(t *testing.T) {
	t.Parallel()

	sums := digestAll([]byte("image bytes"))
	assert.Len(t, sums, len(h2h.HashAlgorithms))
	for _, alg := range h2h.HashAlgorithms {
		digest, ok := sums[alg]
		assert.True(t, ok, "missing digest for %s", alg)
		assert.Len(t, digest, alg.DigestLength())
	}
}

func TestSha512File_MatchesSha512Digest(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "galleryinfo.txt")
	require.NoError(t, os.WriteFile(path, []byte("Title: Alpha\n"), 0o644))

	sum, err := sha512File(path)
	require.NoError(t, err)

	sums := digestAll([]byte("Title: Alpha\n"))
	assert.Equal(t, sums[h2h.SHA512], sum)
}

func TestSha512File_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := sha512File(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, h2h.ErrIO)
}
