package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Qhawe-ma/predd/internal/domain"
	"github.com/Qhawe-ma/predd/internal/trading"
)

// TradeService defines what the trade handler needs from the execution layer.
type TradeService interface {
	ExecuteTrade(ctx context.Context, wallet string, req trading.TradeRequest) (trading.TradeResult, error)
	History(ctx context.Context, wallet string, opts domain.ListOpts) ([]domain.Transaction, error)
}

// TradeHandler serves trade execution and history endpoints.
type TradeHandler struct {
	trades TradeService
	logger *slog.Logger
}

// NewTradeHandler creates a TradeHandler.
func NewTradeHandler(trades TradeService, logger *slog.Logger) *TradeHandler {
	return &TradeHandler{trades: trades, logger: logger}
}

type executeTradeRequest struct {
	Wallet   string         `json:"wallet"`
	MarketID string         `json:"marketId"`
	Outcome  domain.Outcome `json:"outcome"`
	Amount   float64        `json:"amount"`
}

// Execute runs one buy for the calling wallet.
// POST /api/trades
func (h *TradeHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req executeTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Wallet == "" {
		req.Wallet = walletParam(r)
	}
	if req.Wallet == "" {
		writeError(w, http.StatusBadRequest, "missing wallet")
		return
	}

	result, err := h.trades.ExecuteTrade(r.Context(), req.Wallet, trading.TradeRequest{
		MarketID: req.MarketID,
		Outcome:  req.Outcome,
		Amount:   req.Amount,
	})
	if err != nil {
		if writeDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: trade failed",
			slog.String("wallet", req.Wallet),
			slog.String("market_id", req.MarketID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to execute trade")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// History lists the wallet's receipts, most recent first.
// GET /api/trades?wallet=0x...&limit=50&offset=0
func (h *TradeHandler) History(w http.ResponseWriter, r *http.Request) {
	wallet := walletParam(r)
	if wallet == "" {
		writeError(w, http.StatusBadRequest, "missing wallet")
		return
	}

	txs, err := h.trades.History(r.Context(), wallet, parseListOpts(r))
	if err != nil {
		if writeDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: trade history failed",
			slog.String("wallet", wallet),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list trades")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"wallet":       wallet,
		"transactions": txs,
	})
}
