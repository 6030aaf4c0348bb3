package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Qhawe-ma/predd/internal/domain"
	"github.com/Qhawe-ma/predd/internal/pricing"
)

// MarketService defines the methods the market handler requires from the
// lifecycle layer. Declared locally so the handler package does not depend on
// the concrete service implementation.
type MarketService interface {
	GetMarket(ctx context.Context, id string) (domain.Market, error)
	ListMarkets(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error)
	Count(ctx context.Context) (int64, error)
}

// MarketHandler serves market discovery and quote endpoints.
type MarketHandler struct {
	markets MarketService
	quoter  pricing.Quoter
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler.
func NewMarketHandler(markets MarketService, quoter pricing.Quoter, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		markets: markets,
		quoter:  quoter,
		logger:  logger,
	}
}

// listMarketsResponse wraps the list endpoint output with metadata.
type listMarketsResponse struct {
	Markets []domain.Market `json:"markets"`
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// ListMarkets returns markets with pagination and optional filters.
// GET /api/markets?limit=50&offset=0&category=Crypto&open=true
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)
	q := r.URL.Query()
	if c := q.Get("category"); c != "" {
		opts.Category = domain.Category(c)
	}
	if open, err := strconv.ParseBool(q.Get("open")); err == nil {
		opts.OnlyOpen = open
	}

	markets, err := h.markets.ListMarkets(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list markets failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list markets")
		return
	}

	total, err := h.markets.Count(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: count markets failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to count markets")
		return
	}

	writeJSON(w, http.StatusOK, listMarketsResponse{
		Markets: markets,
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
}

// GetMarket returns a single market by its ID.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	market, err := h.markets.GetMarket(r.Context(), id)
	if err != nil {
		if writeDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get market failed",
			slog.String("market_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get market")
		return
	}

	writeJSON(w, http.StatusOK, market)
}

// quoteResponse is the payload for the quote endpoint.
type quoteResponse struct {
	MarketID string         `json:"marketId"`
	Outcome  domain.Outcome `json:"outcome"`
	Price    float64        `json:"price"`
	Estimate any            `json:"estimate,omitempty"`
}

// Quote prices one share of an outcome, with an optional amount estimate.
// GET /api/markets/{id}/quote?outcome=YES&amount=10
func (h *MarketHandler) Quote(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	outcome := domain.Outcome(r.URL.Query().Get("outcome"))
	if !outcome.Valid() {
		writeError(w, http.StatusBadRequest, "outcome must be YES or NO")
		return
	}

	market, err := h.markets.GetMarket(r.Context(), id)
	if err != nil {
		if writeDomainError(w, err) {
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get market")
		return
	}

	price, err := h.quoter.Quote(market, outcome)
	if err != nil {
		if writeDomainError(w, err) {
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to quote")
		return
	}

	resp := quoteResponse{MarketID: id, Outcome: outcome, Price: price}
	if amountStr := r.URL.Query().Get("amount"); amountStr != "" {
		amount, err := strconv.ParseFloat(amountStr, 64)
		if err != nil || !pricing.ValidAmount(amount) {
			writeError(w, http.StatusBadRequest, "invalid amount")
			return
		}
		resp.Estimate = pricing.Estimated(amount, price)
	}

	writeJSON(w, http.StatusOK, resp)
}
