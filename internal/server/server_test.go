package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Qhawe-ma/predd/internal/ledger"
	"github.com/Qhawe-ma/predd/internal/portfolio"
	"github.com/Qhawe-ma/predd/internal/pricing"
	"github.com/Qhawe-ma/predd/internal/server/handler"
	"github.com/Qhawe-ma/predd/internal/store/memory"
	"github.com/Qhawe-ma/predd/internal/trading"
	"github.com/Qhawe-ma/predd/internal/wallet"
)

const adminPassword = "hunter2"

// newTestServer assembles the full route table over in-memory stores with
// zero simulated latency, seeded with the default catalogue.
func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	markets := memory.NewMarketStore()
	accounts := memory.NewPortfolioStore()
	cache := memory.NewCache(0)
	bus := memory.NewBus()
	audit := memory.NewAuditLog()

	ledgerSvc := ledger.NewService(markets, cache, bus, audit, logger)
	require.NoError(t, ledgerSvc.SeedIfEmpty(t.Context()))

	quoter := pricing.PostedPrice{}
	tradingSvc := trading.NewService(markets, accounts, cache, bus, quoter, trading.DelayConfirmer{}, logger)
	portfolioSvc := portfolio.NewService(accounts, markets, cache, logger)
	connector := wallet.NewConnector(accounts, 145.50, 0, logger)

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	srv := NewServer(Config{
		Port:              0,
		CORSOrigins:       []string{"http://localhost:3000"},
		AdminPasswordHash: string(hash),
	}, Handlers{
		Health:    handler.NewHealthHandler(logger),
		Markets:   handler.NewMarketHandler(ledgerSvc, quoter, logger),
		Wallets:   handler.NewWalletHandler(connector, logger),
		Trades:    handler.NewTradeHandler(tradingSvc, logger),
		Portfolio: handler.NewPortfolioHandler(portfolioSvc, logger),
		Admin:     handler.NewAdminHandler(ledgerSvc, nil, logger),
	}, nil, nil, logger)

	return srv.Handler()
}

func doJSON(t *testing.T, h http.Handler, method, target, body string, header map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestServer(t)
	rec, body := doJSON(t, h, http.MethodGet, "/api/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestListAndGetMarkets(t *testing.T) {
	h := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodGet, "/api/markets", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 5, body["total"])
	assert.Len(t, body["markets"], 5)

	rec, body = doJSON(t, h, http.MethodGet, "/api/markets/m1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Will Bitcoin hit $100k by 2026?", body["title"])

	rec, _ = doJSON(t, h, http.MethodGet, "/api/markets/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListMarketsCategoryFilter(t *testing.T) {
	h := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodGet, "/api/markets?category=Crypto", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["markets"], 2)
}

func TestQuoteEndpoint(t *testing.T) {
	h := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodGet, "/api/markets/m1/quote?outcome=YES&amount=10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.64, body["price"])
	require.NotNil(t, body["estimate"])

	rec, _ = doJSON(t, h, http.MethodGet, "/api/markets/m1/quote?outcome=MAYBE", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWalletTradePortfolioFlow(t *testing.T) {
	h := newTestServer(t)

	// Connect with a fresh generated wallet.
	rec, account := doJSON(t, h, http.MethodPost, "/api/wallet/connect", "{}", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	walletAddr, _ := account["wallet"].(string)
	require.NotEmpty(t, walletAddr)
	assert.Equal(t, 145.50, account["balance"])

	// Buy YES on m1 at 0.64.
	rec, result := doJSON(t, h, http.MethodPost, "/api/trades",
		`{"wallet":"`+walletAddr+`","marketId":"m1","outcome":"YES","amount":16}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 129.5, result["balance"])

	// Portfolio reflects the position.
	rec, summary := doJSON(t, h, http.MethodGet, "/api/portfolio?wallet="+walletAddr, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats, _ := summary["stats"].(map[string]any)
	require.NotNil(t, stats)
	assert.Equal(t, 16.0, stats["totalInvested"])

	// History carries the receipt.
	rec, history := doJSON(t, h, http.MethodGet, "/api/trades", "", map[string]string{"X-Wallet": walletAddr})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, history["transactions"], 1)
}

func TestTradeRejections(t *testing.T) {
	h := newTestServer(t)

	// Unknown wallet has never connected.
	rec, _ := doJSON(t, h, http.MethodPost, "/api/trades",
		`{"wallet":"0x0000000000000000000000000000000000000001","marketId":"m1","outcome":"YES","amount":5}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, account := doJSON(t, h, http.MethodPost, "/api/wallet/connect", "{}", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	walletAddr, _ := account["wallet"].(string)

	// More than the seeded balance.
	rec, _ = doJSON(t, h, http.MethodPost, "/api/trades",
		`{"wallet":"`+walletAddr+`","marketId":"m1","outcome":"YES","amount":1000}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Missing wallet entirely.
	rec, _ = doJSON(t, h, http.MethodPost, "/api/trades",
		`{"marketId":"m1","outcome":"YES","amount":5}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRoutesRequirePassword(t *testing.T) {
	h := newTestServer(t)

	rec, _ := doJSON(t, h, http.MethodPost, "/api/admin/markets", `{"title":"x"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doJSON(t, h, http.MethodPost, "/api/admin/markets", `{"title":"x"}`,
		map[string]string{"X-Admin-Password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminLifecycle(t *testing.T) {
	h := newTestServer(t)
	auth := map[string]string{"X-Admin-Password": adminPassword}

	rec, market := doJSON(t, h, http.MethodPost, "/api/admin/markets",
		`{"title":"Will it rain tomorrow?","description":"Settled by the local station.","category":"Tech","endDate":"2026-12-31T00:00:00Z","yesPrice":0.3}`,
		auth)
	require.Equal(t, http.StatusCreated, rec.Code)
	id, _ := market["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, 0.3, market["yesPrice"])

	rec, resolved := doJSON(t, h, http.MethodPost, "/api/admin/markets/"+id+"/resolve",
		`{"outcome":"NO"}`, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, resolved["noPrice"])
	assert.Equal(t, "NO", resolved["resolutionOutcome"])

	rec, _ = doJSON(t, h, http.MethodPost, "/api/admin/markets/"+id+"/resolve",
		`{"outcome":"YES"}`, auth)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = doJSON(t, h, http.MethodDelete, "/api/admin/markets/"+id, "", auth)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Export is unavailable without blob storage.
	rec, _ = doJSON(t, h, http.MethodPost, "/api/admin/export", "", auth)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminDisabledWithoutHash(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	markets := memory.NewMarketStore()
	ledgerSvc := ledger.NewService(markets, memory.NewCache(0), memory.NewBus(), memory.NewAuditLog(), logger)

	srv := NewServer(Config{Port: 0}, Handlers{
		Health:    handler.NewHealthHandler(logger),
		Markets:   handler.NewMarketHandler(ledgerSvc, pricing.PostedPrice{}, logger),
		Wallets:   handler.NewWalletHandler(wallet.NewConnector(memory.NewPortfolioStore(), 0, 0, logger), logger),
		Trades:    handler.NewTradeHandler(trading.NewService(markets, memory.NewPortfolioStore(), memory.NewCache(0), memory.NewBus(), pricing.PostedPrice{}, trading.DelayConfirmer{}, logger), logger),
		Portfolio: handler.NewPortfolioHandler(portfolio.NewService(memory.NewPortfolioStore(), markets, memory.NewCache(0), logger), logger),
		Admin:     handler.NewAdminHandler(ledgerSvc, nil, logger),
	}, nil, nil, logger)

	rec, body := doJSON(t, srv.Handler(), http.MethodPost, "/api/admin/markets", `{"title":"x"}`, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, body["error"], "disabled")
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/markets", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/markets", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
