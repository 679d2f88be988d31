package h2h_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
)

func TestHashAlgorithms_AllValid(t *testing.T) {
	t.Parallel()

	assert.Len(t, h2h.HashAlgorithms, 11)
	for _, a := range h2h.HashAlgorithms {
		assert.True(t, a.Valid(), "algorithm %q should be valid", a)
		assert.Positive(t, a.DigestLength(), "algorithm %q should have a known digest length", a)
		assert.NotPanics(t, func() {
			sum := a.New().Sum(nil)
			assert.Equal(t, a.DigestLength(), len(sum)*2)
		})
	}
}

func TestHashAlgorithm_Valid_RejectsUnknown(t *testing.T) {
	t.Parallel()

	assert.False(t, h2h.HashAlgorithm("md5").Valid())
}

func TestDuplicateDetectionAlgorithm_IsSHA512(t *testing.T) {
	t.Parallel()

	assert.Equal(t, h2h.SHA512, h2h.DuplicateDetectionAlgorithm)
}
