package processor_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/h2non/bimg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/storage/processor"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  processor.Config
		wantErr bool
	}{
		{
			name:    "valid default config",
			config:  processor.DefaultConfig(),
			wantErr: false,
		},
		{
			name: "valid custom config",
			config: processor.Config{
				MemoryLimitMB:    128,
				MaxConcurrentOps: 16,
				StripMetadata:    true,
				JPEGQuality:      85,
			},
			wantErr: false,
		},
		{
			name: "invalid memory limit",
			config: processor.Config{
				MemoryLimitMB:    0,
				MaxConcurrentOps: 32,
				JPEGQuality:      90,
			},
			wantErr: true,
		},
		{
			name: "invalid quality - too low",
			config: processor.Config{
				MemoryLimitMB:    256,
				MaxConcurrentOps: 32,
				JPEGQuality:      0,
			},
			wantErr: true,
		},
		{
			name: "invalid quality - too high",
			config: processor.Config{
				MemoryLimitMB:    256,
				MaxConcurrentOps: 32,
				JPEGQuality:      101,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := processor.New(tt.config)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, p)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, p)
				if p != nil {
					p.Shutdown()
				}
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  processor.Config
		wantErr bool
	}{
		{
			name:    "valid config",
			config:  processor.DefaultConfig(),
			wantErr: false,
		},
		{
			name: "zero memory limit",
			config: processor.Config{
				MemoryLimitMB: 0,
			},
			wantErr: true,
		},
		{
			name: "zero concurrent ops",
			config: processor.Config{
				MemoryLimitMB:    256,
				MaxConcurrentOps: 0,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.config.Validate()

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsResizable(t *testing.T) {
	t.Parallel()

	assert.True(t, processor.IsResizable(bimg.JPEG))
	assert.True(t, processor.IsResizable(bimg.PNG))
	assert.True(t, processor.IsResizable(bimg.GIF))
	assert.True(t, processor.IsResizable(bimg.TIFF))
	assert.False(t, processor.IsResizable(bimg.WEBP))
	assert.False(t, processor.IsResizable(bimg.UNKNOWN))
}

// Integration tests with actual image processing
// These require libvips to be installed

func TestProcessor_ResizeForArchive_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testImagePath := filepath.Join("testdata", "test.jpg")
	if _, err := os.Stat(testImagePath); os.IsNotExist(err) {
		t.Skip("test image not found, skipping integration test")
		return
	}

	testImage, err := os.ReadFile(testImagePath)
	require.NoError(t, err, "failed to read test image")

	cfg := processor.DefaultConfig()
	p, err := processor.New(cfg)
	require.NoError(t, err)
	defer p.Shutdown()

	ctx := context.Background()
	result, err := p.ResizeForArchive(ctx, testImage, 1600)
	require.NoError(t, err)

	assert.NotEmpty(t, result.Data)
	assert.True(t, result.Width <= 1600)
	assert.True(t, result.Height <= 1600)
	assert.Equal(t, "jpeg", result.Format)
}

func TestProcessor_ResizeForArchive_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	cfg := processor.DefaultConfig()
	p, err := processor.New(cfg)
	require.NoError(t, err)
	defer p.Shutdown()

	ctx := context.Background()

	// A tiny valid WEBP header is unnecessary; bimg.DetermineImageType
	// returns UNKNOWN for arbitrary bytes, which is exactly the path
	// under test.
	_, err = p.ResizeForArchive(ctx, []byte("not an image"), 1600)
	assert.ErrorIs(t, err, processor.ErrUnsupportedFormat)
}

func TestProcessor_ResizeForArchive_ContextCancellation(t *testing.T) {
	t.Parallel()

	cfg := processor.DefaultConfig()
	p, err := processor.New(cfg)
	require.NoError(t, err)
	defer p.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	testImage := []byte("not important for this test")

	_, err = p.ResizeForArchive(ctx, testImage, 1600)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "context")
}
