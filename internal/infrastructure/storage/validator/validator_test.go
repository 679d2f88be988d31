package validator

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/storage"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	assert.Equal(t, int64(50*1024*1024), cfg.MaxFileSize)
	assert.Equal(t, 16384, cfg.MaxWidth)
	assert.Equal(t, 16384, cfg.MaxHeight)
	assert.Equal(t, int64(200_000_000), cfg.MaxPixels)
	assert.Equal(t, []string{"image/jpeg", "image/png", "image/gif", "image/webp"}, cfg.AllowedMIMETypes)
}

func TestNew_WithCustomConfig(t *testing.T) {
	t.Parallel()

	cfg := Config{
		MaxFileSize:      5 * 1024 * 1024,
		MaxWidth:         4096,
		MaxHeight:        4096,
		MaxPixels:        50_000_000,
		AllowedMIMETypes: []string{"image/jpeg", "image/png"},
	}

	v := New(cfg)
	require.NotNil(t, v)
	assert.Equal(t, cfg.MaxFileSize, v.config.MaxFileSize)
	assert.Equal(t, cfg.MaxWidth, v.config.MaxWidth)
}

func TestNew_DefaultsAllowedMIMETypes(t *testing.T) {
	t.Parallel()

	cfg := Config{MaxFileSize: 10 * 1024 * 1024}

	v := New(cfg)
	require.NotNil(t, v)
	assert.NotEmpty(t, v.config.AllowedMIMETypes)
	assert.Contains(t, v.config.AllowedMIMETypes, "image/jpeg")
}

func TestValidateSize(t *testing.T) {
	t.Parallel()

	v := New(Config{MaxFileSize: 1024, AllowedMIMETypes: []string{"image/jpeg"}})

	require.NoError(t, v.validateSize(&Result{FileSize: 512}))

	err := v.validateSize(&Result{FileSize: 2048})
	require.Error(t, err)
	assert.True(t, errors.Is(err, h2h.ErrInvalidImage))
	assert.Contains(t, err.Error(), "2048 bytes exceeds 1024 byte limit")
}

func TestValidateMIMEType_Valid(t *testing.T) {
	t.Parallel()

	tests := []string{"image/jpeg", "image/png", "image/gif", "image/webp", "image/jpeg; charset=utf-8", " image/png "}
	v := New(DefaultConfig())
	for _, mimeType := range tests {
		assert.NoError(t, v.validateMIMEType(mimeType), mimeType)
	}
}

func TestValidateMIMEType_Invalid(t *testing.T) {
	t.Parallel()

	tests := []string{"text/plain", "application/pdf", "application/x-executable", "video/mp4", "audio/mpeg", "image/svg+xml", ""}
	v := New(DefaultConfig())
	for _, mimeType := range tests {
		err := v.validateMIMEType(mimeType)
		require.Error(t, err, mimeType)
		assert.True(t, errors.Is(err, h2h.ErrInvalidImage))
	}
}

func TestValidateMagicBytes_ValidFormats(t *testing.T) {
	t.Parallel()

	tests := map[string][]byte{
		"JPEG":   {0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00, 0x01},
		"PNG":    {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D},
		"GIF87a": {0x47, 0x49, 0x46, 0x38, 0x37, 0x61, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		"GIF89a": {0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		"WebP":   {0x52, 0x49, 0x46, 0x46, 0x00, 0x00, 0x00, 0x00, 0x57, 0x45, 0x42, 0x50},
	}
	v := New(DefaultConfig())
	for name, data := range tests {
		assert.NoError(t, v.validateMagicBytes(data), name)
	}
}

func TestValidateMagicBytes_Invalid(t *testing.T) {
	t.Parallel()

	tests := map[string][]byte{
		"text file":                      []byte("This is a text file"),
		"PDF file":                       {0x25, 0x50, 0x44, 0x46, 0x2D, 0x31, 0x2E, 0x34, 0x00, 0x00, 0x00, 0x00},
		"ZIP file":                       {0x50, 0x4B, 0x03, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		"too small":                      {0xFF, 0xD8},
		"fake WebP (missing WEBP)":       {0x52, 0x49, 0x46, 0x46, 0x00, 0x00, 0x00, 0x00, 0x46, 0x41, 0x4B, 0x45},
		"empty":                          {},
	}
	v := New(DefaultConfig())
	for name, data := range tests {
		err := v.validateMagicBytes(data)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, h2h.ErrInvalidImage))
	}
}

func TestValidateDimensions_Success(t *testing.T) {
	t.Parallel()

	v := New(DefaultConfig())
	tests := [][2]int{{100, 100}, {4096, 1024}, {1024, 4096}, {16384, 16384}, {1, 1}}
	for _, wh := range tests {
		assert.NoError(t, v.ValidateDimensions(wh[0], wh[1]))
	}
}

func TestValidateDimensions_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		width     int
		height    int
		maxPixels int64
	}{
		{"zero width", 0, 100, 100_000_000},
		{"zero height", 100, 0, 100_000_000},
		{"negative width", -100, 100, 100_000_000},
		{"width exceeds max", 20000, 1000, 100_000_000},
		{"height exceeds max", 1000, 20000, 100_000_000},
		{"pixel count exceeds max", 8000, 8000, 50_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			cfg.MaxPixels = tt.maxPixels
			v := New(cfg)

			err := v.ValidateDimensions(tt.width, tt.height)
			require.Error(t, err)
			assert.True(t, errors.Is(err, h2h.ErrInvalidImage))
		})
	}
}

func TestValidate_JPEGSuccess(t *testing.T) {
	t.Parallel()

	jpegData := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00, 0x01}
	v := New(Config{MaxFileSize: 1024, AllowedMIMETypes: []string{"image/jpeg"}})

	result, err := v.Validate(jpegData)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "image/jpeg", result.MIMEType)
	assert.Equal(t, int64(len(jpegData)), result.FileSize)
}

func TestValidate_PNGSuccess(t *testing.T) {
	t.Parallel()

	pngData := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}
	v := New(Config{MaxFileSize: 1024, AllowedMIMETypes: []string{"image/png"}})

	result, err := v.Validate(pngData)
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestValidate_SizeExceeded(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte{0xFF, 0xD8, 0xFF}, 500)
	v := New(Config{MaxFileSize: 1024, AllowedMIMETypes: []string{"image/jpeg"}})

	result, err := v.Validate(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, h2h.ErrInvalidImage))
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Errors)
}

func TestValidate_InvalidMIMEType(t *testing.T) {
	t.Parallel()

	data := []byte("This is not an image file")
	v := New(DefaultConfig())

	result, err := v.Validate(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, h2h.ErrInvalidImage))
	assert.False(t, result.Valid)
}

func TestValidate_InvalidMagicBytes(t *testing.T) {
	t.Parallel()

	data := []byte{0x25, 0x50, 0x44, 0x46, 0x2D, 0x31, 0x2E, 0x34, 0x00, 0x00, 0x00, 0x00}
	v := New(DefaultConfig())

	result, err := v.Validate(data)
	require.Error(t, err)
	assert.False(t, result.Valid)
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"clean filename", "photo.jpg", "photo.jpg"},
		{"spaces replaced", "my photo.jpg", "my_photo.jpg"},
		{"unsafe characters removed", "file<>:\"/\\|?*.jpg", "____.jpg"},
		{"path traversal removed", "../../etc/passwd", "passwd.jpg"},
		{"path component ignored", "/path/to/file.jpg", "file.jpg"},
		{"control characters removed", "file\x00\x01\x1F.jpg", "file.jpg"},
		{"long filename truncated", strings.Repeat("a", 250) + ".jpg", strings.Repeat("a", 196) + ".jpg"},
		{"empty becomes unnamed", "", storage.DefaultFilename},
		{"unicode characters dropped", "фото.jpg", ".jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := SanitizeFilename(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSanitizeFilename_Security(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		input            string
		shouldNotContain []string
	}{
		{"removes path traversal", "../../../etc/passwd", []string{"..", "/", "\\"}},
		{"removes null bytes", "file\x00.jpg", []string{"\x00"}},
		{"removes control characters", "file\r\n\t.jpg", []string{"\r", "\n", "\t"}},
		{"removes shell metacharacters", "file;$(rm -rf /).jpg", []string{";", "$"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := SanitizeFilename(tt.input)
			for _, forbidden := range tt.shouldNotContain {
				assert.NotContains(t, result, forbidden)
			}
		})
	}
}
