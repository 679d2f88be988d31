//go:build cgo

package processor

import (
	"context"
	"fmt"

	"github.com/h2non/bimg"
)

const (
	// Bytes per megabyte for memory calculations.
	bytesPerMB = 1024 * 1024
)

// Processor handles the Archive Builder's image resize step using
// libvips (via bimg): fit-to-box Lanczos resize, alpha-to-white
// compositing, and JPEG re-encode (GIF/TIFF kept in their own format).
type Processor struct {
	config    Config
	semaphore chan struct{} // Limits concurrent operations
}

// New creates a new image processor with the given configuration.
func New(cfg Config) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Initialize bimg/libvips memory settings
	bimg.VipsCacheSetMaxMem(cfg.MemoryLimitMB * bytesPerMB)
	bimg.VipsCacheSetMax(0) // Disable operation cache (use memory limit only)

	semaphore := make(chan struct{}, cfg.MaxConcurrentOps)

	return &Processor{
		config:    cfg,
		semaphore: semaphore,
	}, nil
}

// ResizeForArchive fits input into a maxSize x maxSize box using a
// Lanczos3 resize, composites any alpha channel onto white, and
// re-encodes as JPEG — except GIF and TIFF inputs, which are resized
// but re-saved in their own format. The aspect ratio is
// always preserved and images already within the box are never
// enlarged.
//
// If input is not one of the raster types this processor handles, it
// returns ErrUnsupportedFormat; the caller is expected to copy the
// file into the archive verbatim instead.
func (p *Processor) ResizeForArchive(ctx context.Context, input []byte, maxSize int) (*Result, error) {
	select {
	case p.semaphore <- struct{}{}:
		defer func() { <-p.semaphore }()
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
	}

	imgType := bimg.DetermineImageType(input)
	if !IsResizable(imgType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, bimgTypeToString(imgType))
	}

	img := bimg.NewImage(input)
	size, err := img.Size()
	if err != nil {
		return nil, fmt.Errorf("decode image: %w: %w", ErrProcessingFailed, err)
	}
	if size.Width <= 0 || size.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, size.Width, size.Height)
	}

	targetWidth, targetHeight := calculateTargetDimensions(size.Width, size.Height, maxSize)

	options := bimg.Options{
		StripMetadata:  p.config.StripMetadata,
		Interpretation: bimg.InterpretationSRGB,
		Interpolator:   bimg.Lanczos3,
		Background:     bimg.Color{R: 255, G: 255, B: 255},
		Enlarge:        false,
		Force:          false,
	}
	if targetWidth < size.Width || targetHeight < size.Height {
		options.Width = targetWidth
		options.Height = targetHeight
	}

	outType := bimg.JPEG
	quality := p.config.JPEGQuality
	if resavedInFormat[imgType] {
		outType = imgType
		quality = 0
	}
	options.Type = outType
	if quality > 0 {
		options.Quality = quality
	}

	processed, err := img.Process(options)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProcessingFailed, err)
	}

	processedImg := bimg.NewImage(processed)
	processedSize, err := processedImg.Size()
	if err != nil {
		return nil, fmt.Errorf("get processed size: %w", err)
	}

	return &Result{
		Data:   processed,
		Width:  processedSize.Width,
		Height: processedSize.Height,
		Format: bimgTypeToString(outType),
	}, nil
}

// calculateTargetDimensions fits originalWidth x originalHeight into a
// maxSize x maxSize box, preserving aspect ratio. Never enlarges.
func calculateTargetDimensions(originalWidth, originalHeight, maxSize int) (int, int) {
	if maxSize <= 0 {
		return originalWidth, originalHeight
	}
	if originalWidth <= maxSize && originalHeight <= maxSize {
		return originalWidth, originalHeight
	}

	widthRatio := float64(maxSize) / float64(originalWidth)
	heightRatio := float64(maxSize) / float64(originalHeight)
	ratio := widthRatio
	if heightRatio < ratio {
		ratio = heightRatio
	}

	targetWidth := int(float64(originalWidth) * ratio)
	targetHeight := int(float64(originalHeight) * ratio)
	if targetWidth < 1 {
		targetWidth = 1
	}
	if targetHeight < 1 {
		targetHeight = 1
	}
	return targetWidth, targetHeight
}

// Shutdown cleans up processor resources.
func (p *Processor) Shutdown() {
	// bimg/libvips manages its own memory and cache internally; no
	// explicit cleanup is required.
}
