package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Qhawe-ma/predd/internal/portfolio"
)

// PortfolioService defines what the portfolio handler needs.
type PortfolioService interface {
	Snapshot(ctx context.Context, wallet string) (portfolio.Summary, error)
}

// PortfolioHandler serves the portfolio view.
type PortfolioHandler struct {
	portfolios PortfolioService
	logger     *slog.Logger
}

// NewPortfolioHandler creates a PortfolioHandler.
func NewPortfolioHandler(portfolios PortfolioService, logger *slog.Logger) *PortfolioHandler {
	return &PortfolioHandler{portfolios: portfolios, logger: logger}
}

// Get returns the wallet's account with live marks and derived stats.
// GET /api/portfolio?wallet=0x...
func (h *PortfolioHandler) Get(w http.ResponseWriter, r *http.Request) {
	wallet := walletParam(r)
	if wallet == "" {
		writeError(w, http.StatusBadRequest, "missing wallet")
		return
	}

	summary, err := h.portfolios.Snapshot(r.Context(), wallet)
	if err != nil {
		if writeDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: portfolio failed",
			slog.String("wallet", wallet),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load portfolio")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
