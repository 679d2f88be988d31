// Package config loads the JSON configuration file that drives the
// h2hdb-sql, h2hdb-cbz, and h2hdb-migrate binaries, via spf13/viper.
// Every key is also bindable from an environment variable so operators
// can override the file without editing it, matching the convenience
// the pack's own config loaders give their CLIs.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/komga"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/persistence/mysql"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/secrets"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/storage"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/storage/s3"
)

// H2H holds the download/archive layout knobs.
type H2H struct {
	DownloadPath    string `mapstructure:"download_path"`
	CBZPath         string `mapstructure:"cbz_path"`
	CBZTmpDirectory string `mapstructure:"cbz_tmp_directory"`
	CBZMaxSize      int    `mapstructure:"cbz_max_size"`
	CBZGrouping     string `mapstructure:"cbz_grouping"`
	CBZSort         string `mapstructure:"cbz_sort"`
}

// Database holds the backend connection knobs.
type Database struct {
	SQLType  string `mapstructure:"sql_type"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// Logger holds the structured-logging knobs, including the optional
// Synology Chat webhook sink.
type Logger struct {
	Level              string `mapstructure:"level"`
	DisplayOnScreen    bool   `mapstructure:"display_on_screen"`
	WriteToFile        string `mapstructure:"write_to_file"`
	MaxLogEntryLength  int    `mapstructure:"max_log_entry_length"`
	SynochatWebhook    string `mapstructure:"synochat_webhook"`
}

// MediaServer holds the Komga Sync connection knobs. ServerType is
// "komga" or "" (sync disabled).
type MediaServer struct {
	ServerType  string `mapstructure:"server_type"`
	BaseURL     string `mapstructure:"base_url"`
	APIUsername string `mapstructure:"api_username"`
	APIPassword string `mapstructure:"api_password"`
	LibraryID   string `mapstructure:"library_id"`
}

// Metrics holds the localhost-only Prometheus listener's knobs.
type Metrics struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// S3 holds the connection knobs for an S3-compatible CBZ sink, used
// only when h2h.cbz_path starts with "s3://".
type S3 struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// Daemon holds the Redis/asynq knobs for "h2hdb-cbz daemon", the
// scheduled alternative to running "run" under cron. Disabled unless
// daemon.enabled is set, since most installs are fine with cron.
type Daemon struct {
	Enabled          bool   `mapstructure:"enabled"`
	RedisAddr        string `mapstructure:"redis_addr"`
	RedisPassword    string `mapstructure:"redis_password"`
	RedisDB          int    `mapstructure:"redis_db"`
	OrchestratorCron string `mapstructure:"orchestrator_cron"`
	KomgaSyncCron    string `mapstructure:"komga_sync_cron"`
	Concurrency      int    `mapstructure:"concurrency"`
}

// Config is the fully unmarshalled configuration file.
type Config struct {
	H2H         H2H         `mapstructure:"h2h"`
	Database    Database    `mapstructure:"database"`
	Logger      Logger      `mapstructure:"logger"`
	MediaServer MediaServer `mapstructure:"media_server"`
	Metrics     Metrics     `mapstructure:"metrics"`
	S3          S3          `mapstructure:"s3"`
	Daemon      Daemon      `mapstructure:"daemon"`
}

// S3Bucket returns the bucket name and key prefix encoded in an
// "s3://bucket/prefix" cbz_path, and ok=true when cbz_path uses that
// scheme.
func (c Config) S3Bucket() (bucket, prefix string, ok bool) {
	const scheme = "s3://"
	if !strings.HasPrefix(c.H2H.CBZPath, scheme) {
		return "", "", false
	}
	rest := strings.TrimPrefix(c.H2H.CBZPath, scheme)
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return rest[:i], rest[i+1:], true
	}
	return rest, "", true
}

// Load reads path (a JSON file) via viper, applying defaults for any
// key the file omits and allowing environment variables (prefixed
// H2HDB_, with "." replaced by "_") to override file values.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	setDefaults(v)

	v.SetEnvPrefix("H2HDB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("%w: read config %s: %v", h2h.ErrConfig, path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: decode config %s: %v", h2h.ErrConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplySecrets overwrites the database password, S3 credentials, Komga
// password, and Synochat webhook with values from provider, when
// provider has them. A password baked into the config file is only a
// fallback for local development; operators who want secrets out of
// the file entirely set provider to secrets.NewProvider(secrets.SecretConfig{Provider: "docker"}).
func (c *Config) ApplySecrets(ctx context.Context, provider secrets.SecretProvider) {
	c.Database.Password = provider.GetSecretWithDefault(ctx, secrets.SecretDBPassword, c.Database.Password)
	c.MediaServer.APIPassword = provider.GetSecretWithDefault(ctx, secrets.SecretKomgaPassword, c.MediaServer.APIPassword)
	c.Logger.SynochatWebhook = provider.GetSecretWithDefault(ctx, secrets.SecretSynochatWebhook, c.Logger.SynochatWebhook)
	c.S3.AccessKeyID = provider.GetSecretWithDefault(ctx, secrets.SecretS3AccessKey, c.S3.AccessKeyID)
	c.S3.SecretAccessKey = provider.GetSecretWithDefault(ctx, secrets.SecretS3SecretKey, c.S3.SecretAccessKey)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("h2h.cbz_max_size", 2000)
	v.SetDefault("h2h.cbz_grouping", "flat")
	v.SetDefault("h2h.cbz_sort", "no")
	v.SetDefault("database.sql_type", "mysql")
	v.SetDefault("database.port", 3306)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.display_on_screen", true)
	v.SetDefault("logger.max_log_entry_length", -1)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.addr", "127.0.0.1:9100")
	v.SetDefault("daemon.redis_addr", "127.0.0.1:6379")
	v.SetDefault("daemon.redis_db", 0)
	v.SetDefault("daemon.orchestrator_cron", "@every 30m")
	v.SetDefault("daemon.komga_sync_cron", "@every 1h")
	v.SetDefault("daemon.concurrency", 5)
}

// Validate rejects configurations the Schema Manager or downstream
// components could not act on.
func (c Config) Validate() error {
	if c.H2H.DownloadPath == "" {
		return fmt.Errorf("%w: h2h.download_path is required", h2h.ErrConfig)
	}
	switch storage.Grouping(c.H2H.CBZGrouping) {
	case storage.GroupingFlat, storage.GroupingDateYear, storage.GroupingDateMonth, storage.GroupingDateDay:
	default:
		return fmt.Errorf("%w: h2h.cbz_grouping %q is not one of flat/date-yyyy/date-yyyy-mm/date-yyyy-mm-dd", h2h.ErrConfig, c.H2H.CBZGrouping)
	}
	if c.Database.Host == "" || c.Database.Database == "" {
		return fmt.Errorf("%w: database.host and database.database are required", h2h.ErrConfig)
	}
	switch c.MediaServer.ServerType {
	case "", "komga":
	default:
		return fmt.Errorf("%w: media_server.server_type %q is not komga or empty", h2h.ErrConfig, c.MediaServer.ServerType)
	}
	if c.Daemon.Enabled && c.Daemon.RedisAddr == "" {
		return fmt.Errorf("%w: daemon.redis_addr is required when daemon.enabled is true", h2h.ErrConfig)
	}
	return nil
}

// MySQLConfig projects the database section into mysql.Config.
func (c Config) MySQLConfig() mysql.Config {
	cfg := mysql.DefaultConfig()
	cfg.Host = c.Database.Host
	if c.Database.Port != 0 {
		cfg.Port = c.Database.Port
	}
	cfg.User = c.Database.User
	cfg.Password = c.Database.Password
	cfg.Database = c.Database.Database
	return cfg
}

// KomgaConfig projects the media_server section into komga.Config. ok
// is false when Komga Sync is disabled (server_type is empty).
func (c Config) KomgaConfig() (cfg komga.Config, ok bool) {
	if c.MediaServer.ServerType != "komga" {
		return komga.Config{}, false
	}
	return komga.Config{
		BaseURL:   c.MediaServer.BaseURL,
		Username:  c.MediaServer.APIUsername,
		Password:  c.MediaServer.APIPassword,
		LibraryID: c.MediaServer.LibraryID,
	}, true
}

// S3Config projects the s3 section, plus the bucket/prefix encoded in
// h2h.cbz_path, into s3.Config. ok is false when cbz_path does not use
// the "s3://" scheme.
func (c Config) S3Config() (cfg s3.Config, prefix string, ok bool) {
	bucket, prefix, ok := c.S3Bucket()
	if !ok {
		return s3.Config{}, "", false
	}
	return s3.Config{
		Endpoint:        c.S3.Endpoint,
		Region:          c.S3.Region,
		Bucket:          bucket,
		AccessKeyID:     c.S3.AccessKeyID,
		SecretAccessKey: c.S3.SecretAccessKey,
		ForcePathStyle:  c.S3.Endpoint != "",
	}, prefix, true
}

// CBZGrouping parses the h2h.cbz_grouping string into storage.Grouping,
// already validated by Validate.
func (c Config) CBZGrouping() storage.Grouping {
	return storage.Grouping(c.H2H.CBZGrouping)
}

// DaemonEnabled reports whether "h2hdb-cbz daemon" should run, i.e.
// whether orchestrator passes and Komga syncs are driven by an asynq
// schedule against Redis instead of the foreground "run" loop.
func (c Config) DaemonEnabled() bool {
	return c.Daemon.Enabled
}

// LogLevelDuration is a small helper reused by cmd/* to parse a
// duration-shaped default; kept here since config is the only package
// that needs to turn a zero value into "no timeout".
func LogLevelDuration(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d
}
