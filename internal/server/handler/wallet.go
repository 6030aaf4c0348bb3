package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Qhawe-ma/predd/internal/domain"
)

// WalletService defines what the wallet handler needs from the connector.
type WalletService interface {
	Connect(ctx context.Context, address string) (domain.Account, error)
	Disconnect(ctx context.Context, address string) error
}

// WalletHandler serves wallet session endpoints.
type WalletHandler struct {
	wallets WalletService
	logger  *slog.Logger
}

// NewWalletHandler creates a WalletHandler.
func NewWalletHandler(wallets WalletService, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{wallets: wallets, logger: logger}
}

type connectRequest struct {
	Wallet string `json:"wallet"`
}

// Connect opens a wallet session. An empty body (or empty wallet field)
// mints a fresh address.
// POST /api/wallet/connect
func (h *WalletHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	account, err := h.wallets.Connect(r.Context(), req.Wallet)
	if err != nil {
		if writeDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: wallet connect failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to connect wallet")
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// Disconnect closes the session for the given wallet.
// POST /api/wallet/disconnect
func (h *WalletHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if req.Wallet == "" {
		req.Wallet = walletParam(r)
	}
	if req.Wallet == "" {
		writeError(w, http.StatusBadRequest, "missing wallet")
		return
	}

	if err := h.wallets.Disconnect(r.Context(), req.Wallet); err != nil {
		h.logger.ErrorContext(r.Context(), "handler: wallet disconnect failed",
			slog.String("wallet", req.Wallet),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to disconnect wallet")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}
