package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 145.50, cfg.Venue.SeedBalance)
	assert.Equal(t, 800*time.Millisecond, cfg.Venue.ConnectDelay.Duration)
	assert.Equal(t, 1500*time.Millisecond, cfg.Venue.ConfirmDelay.Duration)
	assert.True(t, cfg.Venue.SeedMarkets)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Port = 0
	cfg.Venue.SeedBalance = -1
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port must be 1-65535")
	assert.Contains(t, err.Error(), "seed_balance must be >= 0")
	assert.Contains(t, err.Error(), "log_level")
}

func TestValidatePostgresOnlyWhenConfigured(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate(), "empty host means in-memory mode")

	cfg.Postgres.Host = "db.internal"
	cfg.Postgres.Database = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database must not be empty")
}

func TestLoadFromTOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
log_level = "debug"

[server]
port = 9100
cors_origins = ["https://app.example.com"]

[venue]
seed_balance = 200.0
connect_delay = "50ms"
confirm_delay = "10ms"
seed_markets = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 200.0, cfg.Venue.SeedBalance)
	assert.Equal(t, 50*time.Millisecond, cfg.Venue.ConnectDelay.Duration)
	assert.False(t, cfg.Venue.SeedMarkets)

	// Untouched sections keep their defaults.
	assert.Equal(t, 10, cfg.Server.TradeRateLimit)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 9100\n"), 0o600))

	t.Setenv("PREDD_SERVER_PORT", "9200")
	t.Setenv("PREDD_REDIS_ADDR", "redis.internal:6379")
	t.Setenv("PREDD_VENUE_CONFIRM_DELAY", "1ms")
	t.Setenv("PREDD_SERVER_CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.Server.Port)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, time.Millisecond, cfg.Venue.ConfirmDelay.Duration)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSOrigins)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv("PREDD_SERVER_PORT", "-1")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestDurationRoundTrip(t *testing.T) {
	d := duration{90 * time.Second}
	text, err := d.MarshalText()
	require.NoError(t, err)

	var back duration
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, d.Duration, back.Duration)
}
