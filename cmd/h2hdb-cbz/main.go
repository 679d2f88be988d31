// Package main provides h2hdb-cbz: the full ingestion loop, building a
// CBZ archive for every new or changed gallery in addition to the
// MySQL indexing h2hdb-sql performs, and optionally syncing metadata
// to a configured Komga library.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/app"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/config"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/metrics"
)

var configPath string

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	if err := rootCmd(logger).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd(logger zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "h2hdb-cbz",
		Short: "Index galleries into MySQL and build CBZ archives",
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "config.json", "path to the h2hdb configuration file")

	runGroup := &cobra.Group{ID: "run", Title: "Run:"}
	queueGroup := &cobra.Group{ID: "queue", Title: "Queue:"}
	cmd.AddGroup(runGroup, queueGroup)

	run := &cobra.Command{
		Use:     "run",
		Short:   "Run the ingest+archive loop until a pass inserts nothing",
		GroupID: runGroup.ID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCBZ(cmd, args, logger)
		},
	}
	komgaSync := &cobra.Command{
		Use:     "komga-sync",
		Short:   "Run one Komga Sync pass against the configured media server",
		GroupID: runGroup.ID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKomgaSync(cmd, args, logger)
		},
	}
	daemon := &cobra.Command{
		Use:     "daemon",
		Short:   "Run the orchestrator and Komga Sync on a cron schedule via Redis/asynq, instead of looping in the foreground",
		GroupID: runGroup.ID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd, args, logger)
		},
	}
	cmd.AddCommand(run, komgaSync, daemon)
	cmd.AddCommand(app.QueueCommands(queueGroup.ID, &configPath, logger)...)
	return cmd
}

func runCBZ(_ *cobra.Command, _ []string, logger zerolog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if cfg.H2H.CBZPath == "" {
		return fmt.Errorf("h2h.cbz_path must be set to run h2hdb-cbz")
	}

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(a.MetricsAddr)
		go func() {
			if err := srv.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	return a.Orchestrator().Run(ctx)
}

func runKomgaSync(_ *cobra.Command, _ []string, logger zerolog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if a.Komga == nil {
		return fmt.Errorf("media_server.server_type must be \"komga\" to run komga-sync")
	}
	return a.Komga.Run(ctx)
}

func runDaemon(_ *cobra.Command, _ []string, logger zerolog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(a.MetricsAddr)
		go func() {
			if err := srv.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	return a.RunDaemon(ctx)
}
