// Package main provides the h2hdb-migrate CLI: applies the core goose
// migrations plus the generated per-hash-algorithm tables and views,
// the same Apply call the long-running binaries run on startup.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/config"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/persistence/mysql"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/persistence/mysql/schema"
)

var configPath string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "h2hdb-migrate",
		Short: "Apply the h2hdb schema to a MySQL database",
		RunE:  runMigrate,
	}
	cmd.Flags().StringVar(&configPath, "config", "config.json", "path to the h2hdb configuration file")
	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	db, err := mysql.NewDB(ctx, cfg.MySQLConfig())
	if err != nil {
		return err
	}
	defer func() { _ = mysql.Close(db) }()

	if err := schema.Apply(ctx, db); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	logger.Info().Str("database", cfg.Database.Database).Msg("schema applied")
	return nil
}
