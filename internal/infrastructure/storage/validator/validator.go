// Package validator screens a gallery's page files before they reach
// the Gallery Ingestor: content-sniffed format, magic bytes, size, and
// (once decoded) pixel dimensions all have to clear configured limits,
// or the file is rejected rather than silently hashed and archived.
package validator

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/storage"
)

// Result is the outcome of validating one page file.
type Result struct {
	Valid    bool
	MIMEType string
	FileSize int64
	Errors   []string
}

// Validator screens page files against Config's limits.
type Validator struct {
	config Config
}

// Config configures the page-file validator.
type Config struct {
	MaxFileSize      int64
	MaxWidth         int
	MaxHeight        int
	MaxPixels        int64
	AllowedMIMETypes []string
}

// DefaultConfig returns the limits applied when a caller doesn't
// override them: generous enough for typical scanned manga pages.
func DefaultConfig() Config {
	return Config{
		MaxFileSize:      50 * 1024 * 1024,
		MaxWidth:         16384,
		MaxHeight:        16384,
		MaxPixels:        200_000_000,
		AllowedMIMETypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
	}
}

// New builds a Validator. A zero-value Config field falls back to
// DefaultConfig's value for that field.
func New(cfg Config) *Validator {
	def := DefaultConfig()
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = def.MaxFileSize
	}
	if cfg.MaxWidth == 0 {
		cfg.MaxWidth = def.MaxWidth
	}
	if cfg.MaxHeight == 0 {
		cfg.MaxHeight = def.MaxHeight
	}
	if cfg.MaxPixels == 0 {
		cfg.MaxPixels = def.MaxPixels
	}
	if len(cfg.AllowedMIMETypes) == 0 {
		cfg.AllowedMIMETypes = def.AllowedMIMETypes
	}
	return &Validator{config: cfg}
}

// Validate runs the size, MIME-sniff, and magic-byte checks against
// data. Dimension checks happen separately via ValidateDimensions,
// once the image processor has decoded the file.
func (v *Validator) Validate(data []byte) (Result, error) {
	result := Result{FileSize: int64(len(data))}

	if err := v.validateSize(&result); err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result, err
	}

	mimeType := http.DetectContentType(data)
	result.MIMEType = mimeType
	if err := v.validateMIMEType(mimeType); err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result, err
	}

	if err := v.validateMagicBytes(data); err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result, err
	}

	result.Valid = true
	return result, nil
}

func (v *Validator) validateSize(result *Result) error {
	if result.FileSize > v.config.MaxFileSize {
		return fmt.Errorf("%w: %d bytes exceeds %d byte limit", h2h.ErrInvalidImage, result.FileSize, v.config.MaxFileSize)
	}
	return nil
}

func (v *Validator) validateMIMEType(mimeType string) error {
	mimeType = strings.TrimSpace(strings.Split(mimeType, ";")[0])
	for _, allowed := range v.config.AllowedMIMETypes {
		if mimeType == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: mime type %s is not one of %v", h2h.ErrInvalidImage, mimeType, v.config.AllowedMIMETypes)
}

var magicBytes = map[string][]byte{
	"jpeg": {0xFF, 0xD8, 0xFF},
	"png":  {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
	"gif":  {0x47, 0x49, 0x46, 0x38},
	"webp": {0x52, 0x49, 0x46, 0x46},
}

func (v *Validator) validateMagicBytes(data []byte) error {
	if len(data) < 12 {
		return fmt.Errorf("%w: file too small to sniff", h2h.ErrInvalidImage)
	}
	for format, magic := range magicBytes {
		if !bytes.HasPrefix(data, magic) {
			continue
		}
		if format == "webp" && !bytes.Equal(data[8:12], []byte("WEBP")) {
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: no recognized image magic bytes", h2h.ErrInvalidImage)
}

// ValidateDimensions checks width/height against the configured
// limits, called once the image processor has decoded the file.
func (v *Validator) ValidateDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: non-positive dimensions %dx%d", h2h.ErrInvalidImage, width, height)
	}
	if width > v.config.MaxWidth || height > v.config.MaxHeight {
		return fmt.Errorf("%w: %dx%d exceeds %dx%d limit", h2h.ErrInvalidImage, width, height, v.config.MaxWidth, v.config.MaxHeight)
	}
	if pixels := int64(width) * int64(height); pixels > v.config.MaxPixels {
		return fmt.Errorf("%w: %d pixels exceeds %d limit", h2h.ErrInvalidImage, pixels, v.config.MaxPixels)
	}
	return nil
}

// SanitizeFilename re-exports storage.SanitizeFilename for callers that
// only import the validator package.
var SanitizeFilename = storage.SanitizeFilename
