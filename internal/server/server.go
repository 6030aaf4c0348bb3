// Package server assembles the HTTP + WebSocket API: public market and
// trading routes, admin lifecycle routes, and the live event feed.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Qhawe-ma/predd/internal/domain"
	"github.com/Qhawe-ma/predd/internal/server/handler"
	"github.com/Qhawe-ma/predd/internal/server/middleware"
	"github.com/Qhawe-ma/predd/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, API authentication is disabled

	// AdminPasswordHash is the bcrypt hash gating /api/admin routes. When
	// empty those routes return 403.
	AdminPasswordHash string

	// TradeRateLimit / TradeRateWindow bound trade submissions per client IP.
	TradeRateLimit  int
	TradeRateWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server registers.
type Handlers struct {
	Health    *handler.HealthHandler
	Markets   *handler.MarketHandler
	Wallets   *handler.WalletHandler
	Trades    *handler.TradeHandler
	Portfolio *handler.PortfolioHandler
	Admin     *handler.AdminHandler
}

// Server is the venue's HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered. limiter may be nil,
// in which case trade submissions are not rate limited.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Market discovery and quotes.
	mux.HandleFunc("GET /api/markets", handlers.Markets.ListMarkets)
	mux.HandleFunc("GET /api/markets/{id}", handlers.Markets.GetMarket)
	mux.HandleFunc("GET /api/markets/{id}/quote", handlers.Markets.Quote)

	// Wallet session.
	mux.HandleFunc("POST /api/wallet/connect", handlers.Wallets.Connect)
	mux.HandleFunc("POST /api/wallet/disconnect", handlers.Wallets.Disconnect)

	// Trading. Submission is rate limited per client IP.
	executeTrade := http.HandlerFunc(handlers.Trades.Execute)
	if limiter != nil && cfg.TradeRateLimit > 0 {
		limited := middleware.RateLimit(limiter, cfg.TradeRateLimit, cfg.TradeRateWindow)(executeTrade)
		mux.Handle("POST /api/trades", limited)
	} else {
		mux.Handle("POST /api/trades", executeTrade)
	}
	mux.HandleFunc("GET /api/trades", handlers.Trades.History)

	// Portfolio view.
	mux.HandleFunc("GET /api/portfolio", handlers.Portfolio.Get)

	// Admin lifecycle routes behind the bcrypt gate.
	adminGate := middleware.AdminAuth(cfg.AdminPasswordHash)
	mux.Handle("POST /api/admin/markets", adminGate(http.HandlerFunc(handlers.Admin.CreateMarket)))
	mux.Handle("POST /api/admin/markets/{id}/resolve", adminGate(http.HandlerFunc(handlers.Admin.ResolveMarket)))
	mux.Handle("DELETE /api/admin/markets/{id}", adminGate(http.HandlerFunc(handlers.Admin.DeleteMarket)))
	mux.Handle("POST /api/admin/export", adminGate(http.HandlerFunc(handlers.Admin.ExportMarkets)))

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	h = middleware.Logging(logger)(h)
	h = corsMiddleware(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// Handler returns the fully assembled handler chain, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// corsMiddleware sets CORS headers for the allowed origins. If no origins
// are specified, all origins are allowed.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" {
				allowed := len(allowedOrigins) == 0
				for _, o := range allowedOrigins {
					if strings.EqualFold(o, "*") || strings.EqualFold(o, origin) {
						allowed = true
						break
					}
				}

				if allowed {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Admin-Password, X-Wallet")
					w.Header().Set("Access-Control-Max-Age", "86400")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
