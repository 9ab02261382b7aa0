package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithEnvOverrides(t *testing.T) {
	t.Setenv("MONEYFLOW_AUTH_SECRET", "s3cret")
	t.Setenv("MONEYFLOW_SERVER_PORT", "9090")
	t.Setenv("MONEYFLOW_ANALYTICS_TIMEZONE", "Europe/London")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.Auth.Secret)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 2, cfg.Exports.Workers)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "Europe/London", cfg.Location().String())
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "moneyflow.yaml")
	content := `
auth:
  secret: from-file
storage:
  driver: sqlite
  sqlite:
    path: /tmp/ledger.db
exports:
  bucket: ledger-exports
  workers: 4
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Auth.Secret)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/ledger.db", cfg.Storage.SQLite.Path)
	assert.Equal(t, "ledger-exports", cfg.Exports.Bucket)
	assert.Equal(t, 4, cfg.Exports.Workers)
	assert.Equal(t, 50, cfg.Exports.QueueSize)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestRead_SkipsValidation(t *testing.T) {
	t.Setenv("MONEYFLOW_NOTION_TOKEN", "secret_abc")

	cfg, err := Read("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Auth.Secret)
	assert.Equal(t, "secret_abc", cfg.Notion.Token)

	_, err = Load("")
	assert.ErrorContains(t, err, "auth.secret")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Auth:      AuthConfig{Secret: "x"},
			Storage:   StorageConfig{Driver: DriverMemory},
			Exports:   ExportsConfig{Workers: 1, QueueSize: 1},
			Analytics: AnalyticsConfig{Timezone: "UTC"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"no secret", func(c *Config) { c.Auth.Secret = "" }, "auth.secret"},
		{"bigquery without project", func(c *Config) { c.Storage.Driver = DriverBigQuery }, "storage.bigquery.project"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "postgres" }, "unknown storage driver"},
		{"no workers", func(c *Config) { c.Exports.Workers = 0 }, "exports.workers"},
		{"bad timezone", func(c *Config) { c.Analytics.Timezone = "Mars/Olympus" }, "analytics.timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
