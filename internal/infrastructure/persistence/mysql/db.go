// Package mysql implements the Storage Driver (connection, transactions,
// duplicate-key signalling) and the Schema Manager and per-entity tables
// that sit on top of it, for a MySQL/MariaDB backend reached through sqlx.
package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
)

// Default connection pool configuration constants.
const (
	defaultPort            = 3306
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 10 * time.Minute
	defaultPingTimeout     = 5 * time.Second

	// RequiredCharset and RequiredCollation are the only server settings
	// the Schema Manager accepts.
	RequiredCharset   = "utf8mb4"
	RequiredCollation = "utf8mb4_bin"
)

// Config holds the MySQL connection configuration.
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "localhost",
		Port:            defaultPort,
		User:            "h2hdb",
		Password:        "h2hdb",
		Database:        "h2hdb",
		MaxOpenConns:    defaultMaxOpenConns,
		MaxIdleConns:    defaultMaxIdleConns,
		ConnMaxLifetime: defaultConnMaxLifetime,
		ConnMaxIdleTime: defaultConnMaxIdleTime,
	}
}

// DSN renders cfg as a go-sql-driver/mysql data source name, requesting
// utf8mb4 and parsed time.Time scanning.
func (cfg Config) DSN() string {
	mcfg := mysql.NewConfig()
	mcfg.Net = "tcp"
	mcfg.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mcfg.User = cfg.User
	mcfg.Passwd = cfg.Password
	mcfg.DBName = cfg.Database
	mcfg.Collation = RequiredCollation
	mcfg.ParseTime = true
	mcfg.Loc = time.Local
	return mcfg.FormatDSN()
}

// NewDB opens a MySQL connection pool, configures it, and verifies both
// connectivity and the server's character set / collation.
func NewDB(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := validateCharsetAndCollation(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// validateCharsetAndCollation enforces that the server's
// character_set_database and collation_database are utf8mb4 and
// utf8mb4_bin, or the Schema Manager refuses to proceed.
func validateCharsetAndCollation(ctx context.Context, db *sqlx.DB) error {
	var charset, collation string
	row := db.QueryRowContext(ctx, `SELECT @@character_set_database, @@collation_database`)
	if err := row.Scan(&charset, &collation); err != nil {
		return fmt.Errorf("%w: read server charset/collation: %v", h2h.ErrConfig, err)
	}
	if charset != RequiredCharset {
		return fmt.Errorf("%w: server charset is %q, require %q", h2h.ErrConfig, charset, RequiredCharset)
	}
	if collation != RequiredCollation {
		return fmt.Errorf("%w: server collation is %q, require %q", h2h.ErrConfig, collation, RequiredCollation)
	}
	return nil
}

// HealthCheck verifies the database connection is healthy.
func HealthCheck(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("%w: database connection is nil", h2h.ErrConfig)
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	var result int
	if err := db.GetContext(ctx, &result, "SELECT 1"); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}
	return nil
}

// Close gracefully closes the database connection pool.
func Close(db *sqlx.DB) error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
