package h2h

import (
	"errors"
	"fmt"
)

// Sentinel errors for the gallery ingestion and deduplication engine.
// Use fmt.Errorf("operation: %w", err) to wrap with additional context.
var (
	// ErrNotFound signals that a lookup returned no row. This is a
	// non-fatal control-flow signal, not necessarily a bug.
	ErrNotFound = errors.New("h2h: not found")

	// ErrDuplicateKey signals that a write violated a unique index.
	// Callers either retry with a re-resolve or treat it as a benign race.
	ErrDuplicateKey = errors.New("h2h: duplicate key")

	// ErrTooLong signals that a name, title, or tag exceeded its declared
	// byte limit. Aborts the gallery being processed, not the whole run.
	ErrTooLong = errors.New("h2h: value exceeds declared byte limit")

	// ErrConfig signals an invalid server configuration (charset,
	// collation) or a malformed configuration object. Fatal.
	ErrConfig = errors.New("h2h: configuration error")

	// ErrRemote signals a non-2xx HTTP response from an external
	// collaborator (the media server).
	ErrRemote = errors.New("h2h: remote error")

	// ErrIO signals a file read/open failure. Aborts the gallery being
	// processed; the tombstone ensures the next run sees a clean slate.
	ErrIO = errors.New("h2h: io error")

	// ErrInvalidImage signals that a page file's content does not match
	// a supported raster format, or exceeds the configured size/pixel
	// limits.
	ErrInvalidImage = errors.New("h2h: invalid image")
)

// errTooLongf wraps ErrTooLong with the field, value length, and limit
// that were violated.
func errTooLongf(field, value string, limit int) error {
	return fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrTooLong, field, len(value), limit)
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateKey reports whether err is or wraps ErrDuplicateKey.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}
