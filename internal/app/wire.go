// Package app wires the configuration-level types (internal/config)
// into the concrete stores, pools, and pipeline stages that
// cmd/h2hdb-sql and cmd/h2hdb-cbz both need, so neither binary repeats
// the dependency graph by hand.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/application/dedup"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/application/gidqueue"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/application/ingest"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/application/komgasync"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/application/orchestrator"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/application/scan"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/concurrency"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/config"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/archive"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/komga"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/metrics"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/persistence/mysql"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/storage/local"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/storage/processor"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/storage/s3"
)

// App holds every wired component a CLI command needs. Fields are
// nil when the corresponding feature is disabled by configuration
// (no cbz_path, no media_server).
type App struct {
	Config       config.Config
	Store        *mysql.Store
	Pools        *concurrency.Pools
	Scanner      *scan.Scanner
	Ingestor     *ingest.Ingestor
	Analyzer     *dedup.Analyzer
	Archiver     *archive.Builder
	GidQueue     *gidqueue.Queue
	Komga        *komgasync.Sync
	Metrics      *metrics.Collector
	MetricsAddr  string
	Logger       zerolog.Logger
}

// Build opens the database, applies the schema, and wires every stage
// the orchestrator needs. archiveEnabled lets h2hdb-sql opt out of CBZ
// building even when cbz_path is set, keeping the two binaries'
// behavior distinct without duplicating this function.
func Build(ctx context.Context, cfg config.Config, logger zerolog.Logger, archiveEnabled bool) (*App, error) {
	store, err := mysql.Open(ctx, cfg.MySQLConfig())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pools := concurrency.NewPools(ctx)
	scanner := scan.New(store, logger)
	ingestor := ingest.New(store, logger)
	analyzer := dedup.New(store.Duplicates, logger)
	gq := gidqueue.New(store.GidQueues)
	collector := metrics.New()

	a := &App{
		Config:      cfg,
		Store:       store,
		Pools:       pools,
		Scanner:     scanner,
		Ingestor:    ingestor,
		Analyzer:    analyzer,
		GidQueue:    gq,
		Metrics:     collector,
		MetricsAddr: cfg.Metrics.Addr,
		Logger:      logger,
	}

	if archiveEnabled && cfg.H2H.CBZPath != "" {
		builder, err := buildArchiver(ctx, cfg, store, logger)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		a.Archiver = builder
	}

	if kcfg, ok := cfg.KomgaConfig(); ok {
		client := komga.New(kcfg, nil)
		a.Komga = komgasync.New(client, komgasync.NewStoreLookup(store), logger)
	}

	return a, nil
}

func buildArchiver(ctx context.Context, cfg config.Config, store *mysql.Store, logger zerolog.Logger) (*archive.Builder, error) {
	proc, err := processor.New(processor.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("build image processor: %w", err)
	}

	var sink archive.Sink
	if s3cfg, prefix, ok := cfg.S3Config(); ok {
		s3store, err := s3.New(ctx, s3cfg)
		if err != nil {
			return nil, fmt.Errorf("open s3 cbz sink: %w", err)
		}
		sink = archive.NewS3Sink(s3store, prefix)
	} else {
		ls, err := local.New(local.Config{BasePath: cfg.H2H.CBZPath})
		if err != nil {
			return nil, fmt.Errorf("open local cbz sink: %w", err)
		}
		sink = archive.NewLocalSink(ls)
	}

	archiveCfg := archive.Config{
		TmpDir:   cfg.H2H.CBZTmpDirectory,
		MaxPixel: cfg.H2H.CBZMaxSize,
		Grouping: cfg.CBZGrouping(),
	}
	return archive.New(archiveCfg, sink, archive.NewStoreLookup(store), proc, logger), nil
}

// Orchestrator builds the Orchestrator for a's wired components.
func (a *App) Orchestrator() *orchestrator.Orchestrator {
	var builder orchestrator.ArchiveBuilder
	if a.Archiver != nil {
		builder = a.Archiver
	}
	return orchestrator.New(a.Store, a.Scanner, a.Ingestor, a.Analyzer, builder, a.Pools, orchestrator.Config{
		DownloadPath: a.Config.H2H.DownloadPath,
		CBZPath:      a.Config.H2H.CBZPath,
		Sort:         orchestrator.SortKey(a.Config.H2H.CBZSort),
	}, a.Logger)
}

// Close releases the database connection pool.
func (a *App) Close() error {
	return a.Store.Close()
}
