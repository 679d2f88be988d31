package archive

import (
	"context"
	"path"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/storage/local"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/storage/s3"
)

// LocalSink adapts local.LocalStorage to the Sink interface, the
// default `cbz_path` backend (a local directory).
type LocalSink struct {
	ls *local.LocalStorage
}

// NewLocalSink wraps an already-constructed local filesystem storage
// provider as a CBZ sink.
func NewLocalSink(ls *local.LocalStorage) *LocalSink {
	return &LocalSink{ls: ls}
}

func (s *LocalSink) PutBytes(ctx context.Context, key string, data []byte) error {
	return s.ls.PutBytes(ctx, key, data, local.PutOptions{ContentType: "application/vnd.comicbook+zip"})
}

func (s *LocalSink) GetBytes(ctx context.Context, key string) ([]byte, error) {
	return s.ls.GetBytes(ctx, key)
}

func (s *LocalSink) Exists(ctx context.Context, key string) (bool, error) {
	return s.ls.Exists(ctx, key)
}

// S3Sink adapts s3.Storage to the Sink interface, so `cbz_path` can
// point at an S3-compatible bucket without the Archive Builder
// changing. prefix is prepended to every key, letting one bucket host
// archives under an "s3://bucket/prefix" cbz_path.
type S3Sink struct {
	s3     *s3.Storage
	prefix string
}

// NewS3Sink wraps an already-constructed S3-compatible storage provider
// as a CBZ sink. prefix may be "".
func NewS3Sink(store *s3.Storage, prefix string) *S3Sink {
	return &S3Sink{s3: store, prefix: prefix}
}

func (s *S3Sink) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

func (s *S3Sink) PutBytes(ctx context.Context, key string, data []byte) error {
	return s.s3.PutBytes(ctx, s.key(key), data, s3.PutOptions{ContentType: "application/vnd.comicbook+zip"})
}

func (s *S3Sink) GetBytes(ctx context.Context, key string) ([]byte, error) {
	return s.s3.GetBytes(ctx, s.key(key))
}

func (s *S3Sink) Exists(ctx context.Context, key string) (bool, error) {
	return s.s3.Exists(ctx, s.key(key))
}
