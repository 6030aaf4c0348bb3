// Package config defines the top-level configuration for the venue and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by PREDD_* environment variables.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Venue    VenueConfig    `toml:"venue"`
	Describe DescribeConfig `toml:"describe"`
	LogLevel string         `toml:"log_level"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port              int      `toml:"port"`
	CORSOrigins       []string `toml:"cors_origins"`
	APIKey            string   `toml:"api_key"`
	AdminPasswordHash string   `toml:"admin_password_hash"`
	TradeRateLimit    int      `toml:"trade_rate_limit"`
	TradeRateWindow   duration `toml:"trade_rate_window"`
}

// PostgresConfig holds PostgreSQL connection parameters. Persistence is
// optional: when DSN and Host are both empty the venue runs on in-memory
// stores and loses state on restart.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters. Redis is optional: when
// Addr is empty the venue runs on in-memory cache and bus implementations.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters. Blob storage is
// optional: when Bucket is empty settlement archiving is disabled.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// VenueConfig holds venue trading behaviour.
type VenueConfig struct {
	// SeedBalance is the cash granted to a wallet on first connect.
	SeedBalance float64 `toml:"seed_balance"`

	// ConnectDelay simulates the wallet-extension handshake.
	ConnectDelay duration `toml:"connect_delay"`

	// ConfirmDelay simulates trade settlement latency.
	ConfirmDelay duration `toml:"confirm_delay"`

	// SeedMarkets controls whether an empty store is populated with the
	// default catalogue at startup.
	SeedMarkets bool `toml:"seed_markets"`
}

// DescribeConfig holds the Gemini description generator parameters. The
// generator is optional: with an empty APIKey, market drafts must carry
// their own descriptions.
type DescribeConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

// duration wraps time.Duration so TOML can parse strings like "5m" or "30s".
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for the TOML decoder.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns the built-in configuration used as the base layer before
// the TOML file and environment overrides are applied.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8000,
			CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
			TradeRateLimit:  10,
			TradeRateWindow: duration{10 * time.Second},
		},
		Postgres: PostgresConfig{
			Port:          5432,
			Database:      "predd",
			User:          "predd",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			PoolSize:   10,
			MaxRetries: 3,
		},
		Venue: VenueConfig{
			SeedBalance:  145.50,
			ConnectDelay: duration{800 * time.Millisecond},
			ConfirmDelay: duration{1500 * time.Millisecond},
			SeedMarkets:  true,
		},
		Describe: DescribeConfig{
			BaseURL: "https://generativelanguage.googleapis.com",
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.TradeRateLimit < 0 {
		errs = append(errs, "server: trade_rate_limit must be >= 0")
	}
	if c.Server.TradeRateLimit > 0 && c.Server.TradeRateWindow.Duration <= 0 {
		errs = append(errs, "server: trade_rate_window must be > 0 when trade_rate_limit is set")
	}

	// Postgres (optional, but if a host is given, it must be complete)
	if strings.TrimSpace(c.Postgres.DSN) == "" && c.Postgres.Host != "" {
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis (optional, but if configured, must be sane)
	if c.Redis.Addr != "" && c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3 (optional, but if configured, must be complete)
	if c.S3.Bucket != "" && c.S3.Region == "" {
		errs = append(errs, "s3: region must not be empty when bucket is set")
	}

	// Venue
	if c.Venue.SeedBalance < 0 {
		errs = append(errs, "venue: seed_balance must be >= 0")
	}
	if c.Venue.ConnectDelay.Duration < 0 {
		errs = append(errs, "venue: connect_delay must be >= 0")
	}
	if c.Venue.ConfirmDelay.Duration < 0 {
		errs = append(errs, "venue: confirm_delay must be >= 0")
	}

	// Describe (optional, but if keyed, needs a base URL)
	if c.Describe.APIKey != "" && c.Describe.BaseURL == "" {
		errs = append(errs, "describe: base_url must not be empty when api_key is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
