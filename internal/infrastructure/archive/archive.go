// Package archive implements the Archive Builder: compressing one
// gallery folder into a CBZ, resizing its raster images to fit a
// configured box via the storage/processor package, and writing the
// result through a sink so the output can live on local disk or an
// S3-compatible bucket.
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/storage"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/storage/processor"
)

// Lookup resolves the DB's stored sha512 of a gallery's galleryinfo.txt,
// the signal the rewrite decision is built on.
type Lookup interface {
	GalleryInfoSHA512(ctx context.Context, name h2h.GalleryName) (sha512Hex string, found bool, err error)
	UploadTime(ctx context.Context, name h2h.GalleryName) (time.Time, bool, error)
}

// Sink is the minimal surface the Archive Builder needs from a storage
// backend: write a finished CBZ under a key, and read one back to
// compare against the current gallery state.
type Sink interface {
	PutBytes(ctx context.Context, key string, data []byte) error
	GetBytes(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// Config holds the Archive Builder's external knobs.
type Config struct {
	// TmpDir is where a CBZ is staged on disk before being handed to
	// the sink; empty disables staging and writes straight from memory.
	TmpDir   string
	MaxPixel int // <1 disables resize
	Grouping storage.Grouping
}

// Builder implements compress_gallery_to_cbz.
type Builder struct {
	cfg       Config
	sink      Sink
	lookup    Lookup
	processor *processor.Processor
	keys      *storage.KeyGenerator
	logger    zerolog.Logger
}

// New constructs a Builder. proc may be nil, in which case every raster
// image is copied into the archive verbatim (useful for tests or
// environments without libvips).
func New(cfg Config, sink Sink, lookup Lookup, proc *processor.Processor, logger zerolog.Logger) *Builder {
	return &Builder{
		cfg:       cfg,
		sink:      sink,
		lookup:    lookup,
		processor: proc,
		keys:      storage.NewKeyGenerator(),
		logger:    logger,
	}
}

// CompressGalleryToCBZ returns true iff a new or changed CBZ was
// written. exclude reports
// whether a file's sha512 digest is a known duplicate and should be
// dropped from the archive.
func (b *Builder) CompressGalleryToCBZ(ctx context.Context, folder string, exclude func(sha512Hex string) bool) (bool, error) {
	folderName := filepath.Base(filepath.Clean(folder))
	name, err := h2h.NewGalleryName(folderName)
	if err != nil {
		return false, err
	}

	sanitized := ArchiveSanitize(name.String())

	uploadTime, _, err := b.lookup.UploadTime(ctx, name)
	if err != nil {
		return false, err
	}
	key := b.keys.GenerateArchiveKey(b.cfg.Grouping, sanitized, uploadTime)
	if err := b.keys.ValidateKey(key); err != nil {
		return false, err
	}

	rewrite, err := b.needsRewrite(ctx, name, key)
	if err != nil {
		return false, err
	}
	if !rewrite {
		return false, nil
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return false, fmt.Errorf("%w: read gallery folder %s: %v", h2h.ErrIO, folder, err)
	}

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := b.addFile(zw, filepath.Join(folder, entry.Name()), entry.Name(), exclude); err != nil {
			_ = zw.Close()
			return false, err
		}
	}
	if err := zw.Close(); err != nil {
		return false, fmt.Errorf("close cbz writer for %s: %w", name, err)
	}

	if err := b.stageAndPut(ctx, key, buf.Bytes()); err != nil {
		return false, err
	}

	b.logger.Info().Str("gallery", name.String()).Str("key", key).Msg("cbz archive written")
	return true, nil
}

// needsRewrite compares the galleryinfo.txt embedded in the existing
// CBZ at key against the DB's stored digest. A missing archive always
// needs writing.
func (b *Builder) needsRewrite(ctx context.Context, name h2h.GalleryName, key string) (bool, error) {
	exists, err := b.sink.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check existing cbz %s: %w", key, err)
	}
	if !exists {
		return true, nil
	}

	stored, found, err := b.lookup.GalleryInfoSHA512(ctx, name)
	if err != nil {
		return false, err
	}
	if !found {
		return true, nil
	}

	data, err := b.sink.GetBytes(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read existing cbz %s: %w", key, err)
	}
	inArchive, err := galleryInfoSHA512InZip(data)
	if err != nil {
		// A corrupt or foreign CBZ gets replaced rather than blocking the pass.
		return true, nil //nolint:nilerr
	}
	return inArchive != stored, nil
}

// addFile digests src, skips it if excluded, resizes it when it's a
// raster image the processor handles, and writes the result into zw
// under a sanitized member name.
func (b *Builder) addFile(zw *zip.Writer, src, memberName string, exclude func(string) bool) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", h2h.ErrIO, src, err)
	}

	sum := sha512.Sum512(data)
	digest := hex.EncodeToString(sum[:])
	if exclude != nil && exclude(digest) {
		return nil
	}

	out := data
	if b.processor != nil && b.cfg.MaxPixel >= 1 {
		resized, err := b.processor.ResizeForArchive(context.Background(), data, b.cfg.MaxPixel)
		switch {
		case err == nil:
			out = resized.Data
			memberName = replaceExt(memberName, resized.Format)
		case errors.Is(err, processor.ErrUnsupportedFormat):
			// Not a raster type this processor handles; copy verbatim.
		default:
			return fmt.Errorf("resize %s: %w", src, err)
		}
	}

	w, err := zw.Create(storage.SanitizeFilename(memberName))
	if err != nil {
		return fmt.Errorf("create zip entry %s: %w", memberName, err)
	}
	_, err = w.Write(out)
	return err
}

// galleryInfoSHA512InZip extracts and digests the galleryinfo.txt
// member of a CBZ's raw bytes.
func galleryInfoSHA512InZip(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	for _, f := range zr.File {
		if f.Name != "galleryinfo.txt" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer func() { _ = rc.Close() }()

		h := sha512.New()
		if _, err := io.Copy(h, rc); err != nil {
			return "", err
		}
		return hex.EncodeToString(h.Sum(nil)), nil
	}
	return "", fmt.Errorf("galleryinfo.txt not found in archive")
}

// stageAndPut writes data to a scratch file under cfg.TmpDir (when
// configured) before handing it to the sink, then removes the scratch
// file. With no TmpDir configured it writes straight through.
func (b *Builder) stageAndPut(ctx context.Context, key string, data []byte) error {
	if b.cfg.TmpDir == "" {
		return b.sink.PutBytes(ctx, key, data)
	}

	if err := os.MkdirAll(b.cfg.TmpDir, 0o750); err != nil {
		return fmt.Errorf("%w: create tmp dir %s: %v", h2h.ErrIO, b.cfg.TmpDir, err)
	}
	tmpFile := filepath.Join(b.cfg.TmpDir, uuid.New().String()+".cbz")
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("%w: stage cbz %s: %v", h2h.ErrIO, tmpFile, err)
	}
	defer func() { _ = os.Remove(tmpFile) }()

	staged, err := os.ReadFile(tmpFile)
	if err != nil {
		return fmt.Errorf("%w: read staged cbz %s: %v", h2h.ErrIO, tmpFile, err)
	}
	if err := b.sink.PutBytes(ctx, key, staged); err != nil {
		return fmt.Errorf("write cbz %s: %w", key, err)
	}
	return nil
}

func replaceExt(name, format string) string {
	ext := filepath.Ext(name)
	return name[:len(name)-len(ext)] + "." + format
}
