package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load builds the effective configuration: built-in defaults, then the TOML
// file at path (if it exists), then PREDD_* environment variables. A .env
// file in the working directory is loaded first so local development can
// keep secrets out of the TOML file.
func Load(path string) (*Config, error) {
	// Best effort; a missing .env file is not an error.
	_ = godotenv.Load()

	cfg := Defaults()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides overlays PREDD_* environment variables onto cfg.
func applyEnvOverrides(cfg *Config) {
	setStr("PREDD_LOG_LEVEL", &cfg.LogLevel)

	setInt("PREDD_SERVER_PORT", &cfg.Server.Port)
	setStringSlice("PREDD_SERVER_CORS_ORIGINS", &cfg.Server.CORSOrigins)
	setStr("PREDD_SERVER_API_KEY", &cfg.Server.APIKey)
	setStr("PREDD_ADMIN_PASSWORD_HASH", &cfg.Server.AdminPasswordHash)
	setInt("PREDD_TRADE_RATE_LIMIT", &cfg.Server.TradeRateLimit)
	setDuration("PREDD_TRADE_RATE_WINDOW", &cfg.Server.TradeRateWindow)

	setStr("PREDD_POSTGRES_DSN", &cfg.Postgres.DSN)
	setStr("PREDD_POSTGRES_HOST", &cfg.Postgres.Host)
	setInt("PREDD_POSTGRES_PORT", &cfg.Postgres.Port)
	setStr("PREDD_POSTGRES_DATABASE", &cfg.Postgres.Database)
	setStr("PREDD_POSTGRES_USER", &cfg.Postgres.User)
	setStr("PREDD_POSTGRES_PASSWORD", &cfg.Postgres.Password)
	setStr("PREDD_POSTGRES_SSL_MODE", &cfg.Postgres.SSLMode)
	setInt("PREDD_POSTGRES_POOL_MAX_CONNS", &cfg.Postgres.PoolMaxConns)
	setInt("PREDD_POSTGRES_POOL_MIN_CONNS", &cfg.Postgres.PoolMinConns)
	setBool("PREDD_POSTGRES_RUN_MIGRATIONS", &cfg.Postgres.RunMigrations)

	setStr("PREDD_REDIS_ADDR", &cfg.Redis.Addr)
	setStr("PREDD_REDIS_PASSWORD", &cfg.Redis.Password)
	setInt("PREDD_REDIS_DB", &cfg.Redis.DB)
	setInt("PREDD_REDIS_POOL_SIZE", &cfg.Redis.PoolSize)
	setBool("PREDD_REDIS_TLS_ENABLED", &cfg.Redis.TLSEnabled)

	setStr("PREDD_S3_ENDPOINT", &cfg.S3.Endpoint)
	setStr("PREDD_S3_REGION", &cfg.S3.Region)
	setStr("PREDD_S3_BUCKET", &cfg.S3.Bucket)
	setStr("PREDD_S3_ACCESS_KEY", &cfg.S3.AccessKey)
	setStr("PREDD_S3_SECRET_KEY", &cfg.S3.SecretKey)
	setBool("PREDD_S3_USE_SSL", &cfg.S3.UseSSL)
	setBool("PREDD_S3_FORCE_PATH_STYLE", &cfg.S3.ForcePathStyle)

	setFloat("PREDD_VENUE_SEED_BALANCE", &cfg.Venue.SeedBalance)
	setDuration("PREDD_VENUE_CONNECT_DELAY", &cfg.Venue.ConnectDelay)
	setDuration("PREDD_VENUE_CONFIRM_DELAY", &cfg.Venue.ConfirmDelay)
	setBool("PREDD_VENUE_SEED_MARKETS", &cfg.Venue.SeedMarkets)

	setStr("PREDD_DESCRIBE_BASE_URL", &cfg.Describe.BaseURL)
	setStr("PREDD_DESCRIBE_API_KEY", &cfg.Describe.APIKey)
}

func setStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(key string, dst *duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(key string, dst *[]string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			*dst = out
		}
	}
}
