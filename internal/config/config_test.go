package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emptyHome(t *testing.T) Option {
	t.Helper()
	home := t.TempDir()
	return WithHomeDir(func() (string, error) { return home, nil })
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(WithSearchPaths(t.TempDir()), emptyHome(t))
	require.NoError(t, err)

	assert.Empty(t, cfg.File)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 50, cfg.Store.MaxActivePerUser)
	assert.Equal(t, 0.6, cfg.Assistant.ConfidenceThreshold)
	assert.Equal(t, 15*time.Minute, cfg.Assistant.PendingTTL)
	assert.Equal(t, "@every 1m", cfg.Scheduler.Schedule)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "info", cfg.Observability.Logging.Level)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoadReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	content := `
server:
  addr: ":9090"
  allowed_origins: ["https://app.example.com"]
store:
  driver: file
  dir: ~/reminders
assistant:
  confidence_threshold: 0.75
  pending_ttl: 5m
  timezone: America/New_York
scheduler:
  schedule: "*/5 * * * *"
observability:
  logging:
    level: debug
    format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kai.yaml"), []byte(content), 0o644))

	home := t.TempDir()
	cfg, err := Load(WithSearchPaths(dir), WithHomeDir(func() (string, error) { return home, nil }))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "kai.yaml"), cfg.File)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, DriverFile, cfg.Store.Driver)
	assert.Equal(t, filepath.Join(home, "reminders"), cfg.Store.Dir)
	assert.Equal(t, 0.75, cfg.Assistant.ConfidenceThreshold)
	assert.Equal(t, 5*time.Minute, cfg.Assistant.PendingTTL)
	assert.Equal(t, "*/5 * * * *", cfg.Scheduler.Schedule)
	assert.Equal(t, "json", cfg.Observability.Logging.Format)

	loc, err := cfg.Assistant.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kai.yaml"), []byte("store:\n  driver: file\n"), 0o644))
	t.Setenv("KAI_STORE_DRIVER", "postgres")
	t.Setenv("KAI_STORE_DSN", "postgres://kai@localhost/kai")
	t.Setenv("KAI_SCHEDULER_ENABLED", "false")

	cfg, err := Load(WithSearchPaths(dir), emptyHome(t))
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://kai@localhost/kai", cfg.Store.DSN)
	assert.False(t, cfg.Scheduler.Enabled)
}

func TestExplicitValuesOnViperWin(t *testing.T) {
	v := viper.New()
	v.Set("server.addr", ":7000")
	t.Setenv("KAI_SERVER_ADDR", ":6000")

	cfg, err := Load(WithViper(v), WithSearchPaths(t.TempDir()), emptyHome(t))
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
}

func TestExplicitConfigPathMustExist(t *testing.T) {
	_, err := Load(WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml")), emptyHome(t))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }, "store.driver"},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = DriverPostgres }, "store.dsn"},
		{"threshold too high", func(c *Config) { c.Assistant.ConfidenceThreshold = 1.5 }, "confidence_threshold"},
		{"unknown delivery", func(c *Config) { c.Assistant.DeliveryMethod = "fax" }, "delivery_method"},
		{"bad timezone", func(c *Config) { c.Assistant.Timezone = "Mars/Olympus" }, "timezone"},
		{"empty schedule", func(c *Config) { c.Scheduler.Schedule = " " }, "scheduler.schedule"},
		{"bad log format", func(c *Config) { c.Observability.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	assert.NoError(t, Default().Validate())
}
