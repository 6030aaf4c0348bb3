// Package app wires the venue together and manages its lifecycle: stores,
// cache, bus, blob storage, services, the HTTP server, and the live feed all
// start here and are torn down in reverse order on shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Qhawe-ma/predd/internal/config"
)

// snapshotInterval is the live bridge's fallback refresh cadence; mutations
// trigger snapshots immediately, the ticker only heals missed events.
const snapshotInterval = 5 * time.Second

// shutdownTimeout bounds how long in-flight requests may run once shutdown
// begins.
const shutdownTimeout = 10 * time.Second

// App is the root application object. It owns the configuration, logger, and
// a list of cleanup functions called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies, seeds the market catalogue if requested, and
// runs the HTTP server, the WebSocket hub, and the snapshot publisher until
// the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.Int("port", a.cfg.Server.Port),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	if a.cfg.Venue.SeedMarkets {
		if err := deps.Ledger.SeedIfEmpty(ctx); err != nil {
			return fmt.Errorf("app: seed markets: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Server.Start()
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return deps.Server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return deps.Hub.Run(gctx)
	})

	g.Go(func() error {
		return deps.Bridge.Run(gctx, deps.Ledger, snapshotInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Close tears down all resources in reverse registration order. Safe to call
// multiple times.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
