package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/Qhawe-ma/predd/internal/blob/s3"
	"github.com/Qhawe-ma/predd/internal/cache/redis"
	"github.com/Qhawe-ma/predd/internal/config"
	"github.com/Qhawe-ma/predd/internal/describe"
	"github.com/Qhawe-ma/predd/internal/domain"
	"github.com/Qhawe-ma/predd/internal/ledger"
	"github.com/Qhawe-ma/predd/internal/livesync"
	"github.com/Qhawe-ma/predd/internal/portfolio"
	"github.com/Qhawe-ma/predd/internal/pricing"
	"github.com/Qhawe-ma/predd/internal/server"
	"github.com/Qhawe-ma/predd/internal/server/handler"
	"github.com/Qhawe-ma/predd/internal/server/ws"
	"github.com/Qhawe-ma/predd/internal/store/memory"
	"github.com/Qhawe-ma/predd/internal/store/postgres"
	"github.com/Qhawe-ma/predd/internal/trading"
	"github.com/Qhawe-ma/predd/internal/wallet"
)

// memoryCacheTTL mirrors the Redis market cache TTL so both backends age
// entries the same way.
const memoryCacheTTL = 5 * time.Minute

// Dependencies bundles everything the running application needs: the wired
// domain implementations, the assembled services, and the HTTP server. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Stores and infrastructure
	MarketStore    domain.MarketStore
	PortfolioStore domain.PortfolioStore
	MarketCache    domain.MarketCache
	SignalBus      domain.SignalBus
	AuditStore     domain.AuditStore
	RateLimiter    domain.RateLimiter

	// Services
	Ledger    *ledger.Service
	Trading   *trading.Service
	Portfolio *portfolio.Service
	Wallet    *wallet.Connector
	Bridge    *livesync.Bridge

	// Transport
	Hub    *ws.Hub
	Server *server.Server
}

// usesPostgres reports whether the configuration asks for persistent stores.
func usesPostgres(cfg *config.Config) bool {
	return cfg.Postgres.DSN != "" || cfg.Postgres.Host != ""
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// releases resources in reverse construction order.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Stores: PostgreSQL when configured, in-memory otherwise ---
	if usesPostgres(cfg) {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.MarketStore = postgres.NewMarketStore(pool)
		deps.PortfolioStore = postgres.NewPortfolioStore(pool)
		deps.AuditStore = postgres.NewAuditStore(pool)
	} else {
		logger.Info("wire: no postgres configured, using in-memory stores")
		deps.MarketStore = memory.NewMarketStore()
		deps.PortfolioStore = memory.NewPortfolioStore()
		deps.AuditStore = memory.NewAuditLog()
	}

	// --- Cache, bus, limiter: Redis when configured, in-memory otherwise ---
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.MarketCache = redis.NewMarketCache(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
	} else {
		logger.Info("wire: no redis configured, using in-memory cache and bus")
		deps.MarketCache = memory.NewCache(memoryCacheTTL)
		deps.SignalBus = memory.NewBus()
		// Rate limiting needs shared counters; without Redis it stays off.
	}

	// --- Blob storage (optional) ---
	var archiver *s3blob.Archiver
	if cfg.S3.Bucket != "" {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client))
	}

	// --- Services ---
	deps.Ledger = ledger.NewService(deps.MarketStore, deps.MarketCache, deps.SignalBus, deps.AuditStore, logger)
	if cfg.Describe.APIKey != "" {
		gen := describe.NewGenerator(cfg.Describe.BaseURL, cfg.Describe.APIKey)
		deps.Ledger = deps.Ledger.WithDescriptionGenerator(gen)
	}
	if archiver != nil {
		deps.Ledger = deps.Ledger.WithArchiver(archiver)
	}

	quoter := pricing.PostedPrice{}
	confirmer := trading.DelayConfirmer{Delay: cfg.Venue.ConfirmDelay.Duration}
	deps.Trading = trading.NewService(
		deps.MarketStore,
		deps.PortfolioStore,
		deps.MarketCache,
		deps.SignalBus,
		quoter,
		confirmer,
		logger,
	)

	deps.Portfolio = portfolio.NewService(deps.PortfolioStore, deps.MarketStore, deps.MarketCache, logger)
	deps.Wallet = wallet.NewConnector(deps.PortfolioStore, cfg.Venue.SeedBalance, cfg.Venue.ConnectDelay.Duration, logger)
	deps.Bridge = livesync.NewBridge(deps.SignalBus, logger)

	// --- Transport ---
	deps.Hub = ws.NewHub(deps.SignalBus, logger)

	handlers := server.Handlers{
		Health:    handler.NewHealthHandler(logger),
		Markets:   handler.NewMarketHandler(deps.Ledger, quoter, logger),
		Wallets:   handler.NewWalletHandler(deps.Wallet, logger),
		Trades:    handler.NewTradeHandler(deps.Trading, logger),
		Portfolio: handler.NewPortfolioHandler(deps.Portfolio, logger),
		Admin:     handler.NewAdminHandler(deps.Ledger, exporterOrNil(archiver), logger),
	}

	deps.Server = server.NewServer(server.Config{
		Port:              cfg.Server.Port,
		CORSOrigins:       cfg.Server.CORSOrigins,
		APIKey:            cfg.Server.APIKey,
		AdminPasswordHash: cfg.Server.AdminPasswordHash,
		TradeRateLimit:    cfg.Server.TradeRateLimit,
		TradeRateWindow:   cfg.Server.TradeRateWindow.Duration,
	}, handlers, deps.Hub, deps.RateLimiter, logger)

	return deps, cleanup, nil
}

// exporterOrNil converts a possibly-nil *Archiver into the handler interface
// without producing a non-nil interface wrapping a nil pointer.
func exporterOrNil(a *s3blob.Archiver) handler.Exporter {
	if a == nil {
		return nil
	}
	return a
}
