// Package processor implements the Archive Builder's image resize step
// using bimg (libvips): fit-to-box Lanczos resize, alpha-to-white
// compositing, and format-aware re-encoding.
package processor

import "github.com/h2non/bimg"

// Config defines the image processor configuration.
type Config struct {
	// MemoryLimitMB is the maximum memory for bimg cache in megabytes.
	// Default: 256MB
	MemoryLimitMB int

	// MaxConcurrentOps is the maximum number of concurrent processing operations.
	// Default: 32
	MaxConcurrentOps int

	// StripMetadata controls whether to strip EXIF metadata from images.
	StripMetadata bool

	// JPEGQuality is the re-encode quality for the JPEG output path.
	JPEGQuality int
}

// DefaultConfig returns the recommended processor configuration.
func DefaultConfig() Config {
	return Config{
		MemoryLimitMB:    256,
		MaxConcurrentOps: 32,
		StripMetadata:    true,
		JPEGQuality:      90,
	}
}

// Validate ensures the configuration is valid.
func (c Config) Validate() error {
	if c.MemoryLimitMB <= 0 {
		return ErrInvalidConfig
	}
	if c.MaxConcurrentOps <= 0 {
		return ErrInvalidConfig
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return ErrInvalidConfig
	}
	return nil
}

// resavedInFormat is the set of raster types the Archive Builder
// resizes but re-saves in their own format rather than re-encoding as
// JPEG.
var resavedInFormat = map[bimg.ImageType]bool{
	bimg.GIF:  true,
	bimg.TIFF: true,
}

// resizableTypes is the full set of raster types the Archive Builder
// resizes; anything else is copied verbatim by the caller.
var resizableTypes = map[bimg.ImageType]bool{
	bimg.JPEG: true,
	bimg.PNG:  true,
	bimg.GIF:  true,
	bimg.TIFF: true,
}

// IsResizable reports whether format is one of the raster types the
// Archive Builder resizes at all (jpg/jpeg/png/bmp/gif/tiff/ico — bimg
// exposes these as JPEG/PNG/GIF/TIFF; bmp/ico fall outside libvips'
// native decode set and are copied verbatim like any other unknown
// type).
func IsResizable(t bimg.ImageType) bool {
	return resizableTypes[t]
}

func bimgTypeToString(t bimg.ImageType) string {
	switch t {
	case bimg.JPEG:
		return "jpeg"
	case bimg.PNG:
		return "png"
	case bimg.GIF:
		return "gif"
	case bimg.TIFF:
		return "tiff"
	case bimg.WEBP:
		return "webp"
	default:
		return "unknown"
	}
}
