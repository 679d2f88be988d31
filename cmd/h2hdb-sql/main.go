// Package main provides h2hdb-sql: the database-only ingestion loop.
// It runs the Scanner, Gallery Ingestor, and Duplicate Analyzer against
// `h2h.download_path`, but never builds CBZ archives even if cbz_path
// is configured, mirroring the upstream project's SQL-only indexer.
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
		Use:   "h2hdb-sql",
		Short: "Index galleries into MySQL without building CBZ archives",
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "config.json", "path to the h2hdb configuration file")

	runGroup := &cobra.Group{ID: "run", Title: "Run:"}
	queueGroup := &cobra.Group{ID: "queue", Title: "Queue:"}
	cmd.AddGroup(runGroup, queueGroup)

	run := &cobra.Command{
		Use:     "run",
		Short:   "Run the ingestion loop until a pass inserts nothing",
		GroupID: runGroup.ID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(cmd, args, logger)
		},
	}
	cmd.AddCommand(run)
	cmd.AddCommand(app.QueueCommands(queueGroup.ID, &configPath, logger)...)
	return cmd
}

func runSQL(_ *cobra.Command, _ []string, logger zerolog.Logger) error {
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
