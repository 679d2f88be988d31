// Package komgasync implements the Komga Sync loop: a paginated scan
// of a Komga library that patches book and series metadata to match
// the ingested gallery data, memoizing already-synced ids so a stable
// library converges to zero work.
package komgasync

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/komga"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/persistence/mysql"
)

// GalleryLookup resolves the metadata needed to build a Komga patch for
// a gallery identified by its archive's base name.
type GalleryLookup interface {
	MetadataByName(ctx context.Context, name h2h.GalleryName) (Metadata, bool, error)
}

// Metadata is the subset of a gallery's stored attributes the Komga
// patch payloads are built from.
type Metadata struct {
	Title       string
	Summary     string
	ReleaseDate string // yyyy-MM-dd
	Tags        []h2h.TagPair
}

// Sync runs one convergent pass of the Komga library scan/patch loop.
// Exclude sets are held on the Sync value itself and persist across
// calls, so repeated passes over a stable library do no further work.
type Sync struct {
	client *komga.Client
	lookup GalleryLookup
	logger zerolog.Logger

	mu             sync.Mutex
	seriesExcluded map[string]struct{}
	booksExcluded  map[string]struct{}
}

// New constructs a Sync.
func New(client *komga.Client, lookup GalleryLookup, logger zerolog.Logger) *Sync {
	return &Sync{
		client:         client,
		lookup:         lookup,
		logger:         logger,
		seriesExcluded: make(map[string]struct{}),
		booksExcluded:  make(map[string]struct{}),
	}
}

// Run triggers a library scan and then patches every out-of-date book
// and series, paging 100 at a time, until both exclude sets have
// stabilized over the full id set.
func (s *Sync) Run(ctx context.Context) error {
	if err := s.client.TriggerScan(ctx); err != nil {
		return fmt.Errorf("trigger komga scan: %w", err)
	}

	if err := s.syncBooks(ctx); err != nil {
		return err
	}
	return s.syncSeries(ctx)
}

func (s *Sync) syncBooks(ctx context.Context) error {
	for page := 0; ; page++ {
		listed, err := s.client.ListBooksPage(ctx, page)
		if err != nil {
			return fmt.Errorf("list books page %d: %w", page, err)
		}
		for _, raw := range listed.Content {
			var summary struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(raw, &summary); err != nil {
				return err
			}
			if s.isBookExcluded(summary.ID) {
				continue
			}
			if err := s.syncOneBook(ctx, summary.ID); err != nil {
				return err
			}
		}
		if listed.Last {
			return nil
		}
	}
}

func (s *Sync) syncOneBook(ctx context.Context, bookID string) error {
	filename, err := s.client.GetBookFilename(ctx, bookID)
	if err != nil {
		return fmt.Errorf("get book %s filename: %w", bookID, err)
	}

	name, err := h2h.NewGalleryName(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	if err != nil {
		// Not a name this system produced; nothing to sync.
		s.markBookExcluded(bookID)
		return nil
	}

	meta, found, err := s.lookup.MetadataByName(ctx, name)
	if err != nil {
		return err
	}
	if !found {
		s.markBookExcluded(bookID)
		return nil
	}

	patch := komga.BookMetadataPatch{
		Title:       meta.Title,
		Summary:     meta.Summary,
		ReleaseDate: meta.ReleaseDate,
		Authors:     authorsFromTags(meta.Tags),
	}
	if err := s.client.PatchBookMetadata(ctx, bookID, patch); err != nil {
		return fmt.Errorf("patch book %s metadata: %w", bookID, err)
	}
	s.markBookExcluded(bookID)
	s.logger.Info().Str("book_id", bookID).Str("gallery", name.String()).Msg("komga book metadata synced")
	return nil
}

func (s *Sync) syncSeries(ctx context.Context) error {
	for page := 0; ; page++ {
		listed, err := s.client.ListSeriesPage(ctx, page)
		if err != nil {
			return fmt.Errorf("list series page %d: %w", page, err)
		}
		for _, raw := range listed.Content {
			var summary struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(raw, &summary); err != nil {
				return err
			}
			if s.isSeriesExcluded(summary.ID) {
				continue
			}
			if err := s.syncOneSeries(ctx, summary.ID); err != nil {
				return err
			}
		}
		if listed.Last {
			return nil
		}
	}
}

func (s *Sync) syncOneSeries(ctx context.Context, seriesID string) error {
	for page := 0; ; page++ {
		books, err := s.client.ListSeriesBooksPage(ctx, seriesID, page)
		if err != nil {
			return fmt.Errorf("list series %s books page %d: %w", seriesID, page, err)
		}
		for _, raw := range books.Content {
			var summary struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(raw, &summary); err != nil {
				return err
			}
			filename, err := s.client.GetBookFilename(ctx, summary.ID)
			if err != nil {
				return fmt.Errorf("get book %s filename: %w", summary.ID, err)
			}
			name, err := h2h.NewGalleryName(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
			if err != nil {
				continue
			}
			meta, found, err := s.lookup.MetadataByName(ctx, name)
			if err != nil {
				return err
			}
			if !found {
				continue
			}
			if err := s.client.PatchSeriesMetadata(ctx, seriesID, komga.SeriesMetadataPatch{Title: meta.ReleaseDate}); err != nil {
				return fmt.Errorf("patch series %s metadata: %w", seriesID, err)
			}
			s.markSeriesExcluded(seriesID)
			s.logger.Info().Str("series_id", seriesID).Msg("komga series metadata synced")
			return nil
		}
		if books.Last {
			s.markSeriesExcluded(seriesID)
			return nil
		}
	}
}

func authorsFromTags(tags []h2h.TagPair) []komga.Author {
	authors := make([]komga.Author, 0, len(tags))
	for _, tag := range tags {
		if tag.Name() == h2h.UntaggedNamespace {
			continue
		}
		authors = append(authors, komga.Author{Name: tag.Value(), Role: tag.Name()})
	}
	return authors
}

func (s *Sync) isBookExcluded(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.booksExcluded[id]
	return ok
}

func (s *Sync) markBookExcluded(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.booksExcluded[id] = struct{}{}
}

func (s *Sync) isSeriesExcluded(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seriesExcluded[id]
	return ok
}

func (s *Sync) markSeriesExcluded(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seriesExcluded[id] = struct{}{}
}

// storeLookup adapts *mysql.Store into GalleryLookup.
type storeLookup struct {
	store *mysql.Store
}

// NewStoreLookup constructs a GalleryLookup backed by store.
func NewStoreLookup(store *mysql.Store) GalleryLookup {
	return &storeLookup{store: store}
}

func (l *storeLookup) MetadataByName(ctx context.Context, name h2h.GalleryName) (Metadata, bool, error) {
	galleryID, err := l.store.Galleries.IDByName(ctx, name)
	if h2h.IsNotFound(err) {
		return Metadata{}, false, nil
	}
	if err != nil {
		return Metadata{}, false, err
	}

	title, err := l.store.Titles.Get(ctx, galleryID)
	if err != nil {
		return Metadata{}, false, err
	}
	comment, err := l.store.Comments.Get(ctx, galleryID)
	if err != nil {
		return Metadata{}, false, err
	}
	uploadTime, err := l.store.UploadTimes.Get(ctx, galleryID)
	if err != nil {
		return Metadata{}, false, err
	}
	tags, err := l.store.Tags.ByGallery(ctx, galleryID)
	if err != nil {
		return Metadata{}, false, err
	}

	return Metadata{
		Title:       title,
		Summary:     comment,
		ReleaseDate: uploadTime.Format("2006-01-02"),
		Tags:        tags,
	}, true, nil
}
