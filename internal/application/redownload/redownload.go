// Package redownload implements the orchestrator's redownload-time
// reset pass: every gallery whose redownload_time has drifted from its
// download_time is brought back in sync, so a later re-ingest doesn't
// see a stale retry clock.
package redownload

import (
	"context"

	"github.com/rs/zerolog"
)

// resetter is the single store method this package depends on.
type resetter interface {
	ResetStaleRedownloadTimes(ctx context.Context) (int64, error)
}

// Reset runs the redownload-time reset pass and logs how many rows it
// touched.
func Reset(ctx context.Context, store resetter, logger zerolog.Logger) error {
	n, err := store.ResetStaleRedownloadTimes(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.Info().Int64("galleries", n).Msg("redownload times reset to match download times")
	}
	return nil
}
