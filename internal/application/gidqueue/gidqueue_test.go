package gidqueue_test

import (
	"testing"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/application/gidqueue"
)

// New must not panic on a nil repository; methods are exercised against
// a live database in the integration suite.
func TestNew_DoesNotPanic(t *testing.T) {
	t.Parallel()
	_ = gidqueue.New(nil)
}
