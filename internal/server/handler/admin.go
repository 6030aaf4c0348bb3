package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Qhawe-ma/predd/internal/domain"
	"github.com/Qhawe-ma/predd/internal/ledger"
)

// AdminService defines the lifecycle operations exposed to administrators.
type AdminService interface {
	CreateMarket(ctx context.Context, draft ledger.MarketDraft) (domain.Market, error)
	ResolveMarket(ctx context.Context, id string, winner domain.Outcome) (domain.Market, error)
	DeleteMarket(ctx context.Context, id string) error
	ListMarkets(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error)
}

// Exporter uploads the full market catalogue to blob storage.
type Exporter interface {
	ExportMarkets(ctx context.Context, markets []domain.Market) (string, error)
}

// AdminHandler serves the administrative market lifecycle endpoints. Routes
// using it sit behind the admin auth middleware.
type AdminHandler struct {
	admin    AdminService
	exporter Exporter
	logger   *slog.Logger
}

// NewAdminHandler creates an AdminHandler. exporter may be nil when blob
// storage is not configured; the export endpoint then reports 503.
func NewAdminHandler(admin AdminService, exporter Exporter, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, exporter: exporter, logger: logger}
}

// CreateMarket opens a new market from the posted draft.
// POST /api/admin/markets
func (h *AdminHandler) CreateMarket(w http.ResponseWriter, r *http.Request) {
	var draft ledger.MarketDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	market, err := h.admin.CreateMarket(r.Context(), draft)
	if err != nil {
		if writeDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: create market failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to create market")
		return
	}

	writeJSON(w, http.StatusCreated, market)
}

type resolveRequest struct {
	Outcome domain.Outcome `json:"outcome"`
}

// ResolveMarket declares the winning outcome of a market.
// POST /api/admin/markets/{id}/resolve
func (h *AdminHandler) ResolveMarket(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	market, err := h.admin.ResolveMarket(r.Context(), id, req.Outcome)
	if err != nil {
		if writeDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: resolve market failed",
			slog.String("market_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to resolve market")
		return
	}

	writeJSON(w, http.StatusOK, market)
}

// DeleteMarket removes a market. Unknown ids succeed as a no-op.
// DELETE /api/admin/markets/{id}
func (h *AdminHandler) DeleteMarket(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	if err := h.admin.DeleteMarket(r.Context(), id); err != nil {
		h.logger.ErrorContext(r.Context(), "handler: delete market failed",
			slog.String("market_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to delete market")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// ExportMarkets uploads the full catalogue to blob storage as JSONL.
// POST /api/admin/export
func (h *AdminHandler) ExportMarkets(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "blob storage not configured")
		return
	}

	markets, err := h.admin.ListMarkets(r.Context(), domain.ListOpts{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list markets")
		return
	}

	path, err := h.exporter.ExportMarkets(r.Context(), markets)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: export failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to export markets")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"path":  path,
		"count": len(markets),
	})
}
