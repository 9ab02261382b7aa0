// Package config loads service configuration from an optional YAML file with
// MONEYFLOW_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. MONEYFLOW_SERVER_PORT.
const EnvPrefix = "MONEYFLOW"

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverBigQuery = "bigquery"
	DriverSQLite   = "sqlite"
)

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type AuthConfig struct {
	// Secret is the HMAC key the identity provider signs access tokens with.
	Secret   string `mapstructure:"secret"`
	Audience string `mapstructure:"audience"`
	Issuer   string `mapstructure:"issuer"`
}

type BigQueryConfig struct {
	Project string `mapstructure:"project"`
	Dataset string `mapstructure:"dataset"`
}

type SQLiteConfig struct {
	Path    string `mapstructure:"path"`
	LogMode bool   `mapstructure:"log_mode"`
}

type StorageConfig struct {
	Driver   string         `mapstructure:"driver"`
	BigQuery BigQueryConfig `mapstructure:"bigquery"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
}

type ExportsConfig struct {
	Bucket    string        `mapstructure:"bucket"`
	Workers   int           `mapstructure:"workers"`
	QueueSize int           `mapstructure:"queue_size"`
	URLExpiry time.Duration `mapstructure:"url_expiry"`
}

type GeminiConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

type NotionConfig struct {
	Token      string `mapstructure:"token"`
	DatabaseID string `mapstructure:"database_id"`
}

type AnalyticsConfig struct {
	Timezone string `mapstructure:"timezone"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Exports   ExportsConfig   `mapstructure:"exports"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Notion    NotionConfig    `mapstructure:"notion"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Log       LogConfig       `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.audience", "")
	v.SetDefault("auth.issuer", "")

	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.bigquery.project", "")
	v.SetDefault("storage.bigquery.dataset", "moneyflow")
	v.SetDefault("storage.sqlite.path", "data/moneyflow.db")
	v.SetDefault("storage.sqlite.log_mode", false)

	v.SetDefault("exports.bucket", "")
	v.SetDefault("exports.workers", 2)
	v.SetDefault("exports.queue_size", 50)
	v.SetDefault("exports.url_expiry", 15*time.Minute)

	v.SetDefault("gemini.enabled", false)
	v.SetDefault("gemini.model", "gemini-2.5-flash")

	v.SetDefault("notion.token", "")
	v.SetDefault("notion.database_id", "")

	v.SetDefault("analytics.timezone", "UTC")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads and validates the server configuration.
func Load(path string) (*Config, error) {
	c, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Read reads configuration without validating it, for tools that need only
// part of it. With an empty path it looks for config.yaml in the working
// directory and carries on with defaults when there is none.
func Read(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Validate rejects combinations the service cannot start with.
func (c *Config) Validate() error {
	if c.Auth.Secret == "" {
		return errors.New("config: auth.secret is required")
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverBigQuery:
		if c.Storage.BigQuery.Project == "" {
			return errors.New("config: storage.bigquery.project is required for the bigquery driver")
		}
	case DriverSQLite:
		if c.Storage.SQLite.Path == "" {
			return errors.New("config: storage.sqlite.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Exports.Workers < 1 {
		return errors.New("config: exports.workers must be at least 1")
	}
	if c.Exports.QueueSize < 1 {
		return errors.New("config: exports.queue_size must be at least 1")
	}
	if _, err := time.LoadLocation(c.Analytics.Timezone); err != nil {
		return fmt.Errorf("config: analytics.timezone: %w", err)
	}
	return nil
}

// Location resolves analytics.timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Analytics.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
