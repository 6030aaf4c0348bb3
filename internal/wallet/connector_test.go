package wallet

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qhawe-ma/predd/internal/domain"
	"github.com/Qhawe-ma/predd/internal/store/memory"
)

func newConnector(t *testing.T) (*Connector, *memory.PortfolioStore) {
	t.Helper()
	store := memory.NewPortfolioStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewConnector(store, 145.50, 0, logger), store
}

func TestConnectGeneratesAddress(t *testing.T) {
	c, _ := newConnector(t)

	account, err := c.Connect(context.Background(), "")
	require.NoError(t, err)

	assert.True(t, common.IsHexAddress(account.Wallet))
	assert.True(t, account.Connected)
	assert.Equal(t, 145.50, account.Balance)
	assert.False(t, account.ConnectedAt.IsZero())
}

func TestConnectSuppliedAddress(t *testing.T) {
	c, _ := newConnector(t)

	account, err := c.Connect(context.Background(), "0x8ba1f109551bd432803012645ac136ddd64dba72")
	require.NoError(t, err)
	// Stored form is checksummed.
	assert.Equal(t, common.HexToAddress("0x8ba1f109551bd432803012645ac136ddd64dba72").Hex(), account.Wallet)
}

func TestConnectInvalidAddress(t *testing.T) {
	c, _ := newConnector(t)
	_, err := c.Connect(context.Background(), "not-an-address")
	assert.True(t, domain.IsValidation(err))
}

func TestReconnectKeepsHoldings(t *testing.T) {
	c, store := newConnector(t)
	ctx := context.Background()

	account, err := c.Connect(ctx, "")
	require.NoError(t, err)

	account.Balance = 99.25
	account.Positions = []domain.Position{{MarketID: "m1", Outcome: domain.OutcomeYes, Shares: 10, AvgPrice: 0.5, CurrentPrice: 0.5}}
	require.NoError(t, store.SaveAccount(ctx, account))
	require.NoError(t, c.Disconnect(ctx, account.Wallet))

	back, err := c.Connect(ctx, account.Wallet)
	require.NoError(t, err)
	assert.True(t, back.Connected)
	assert.Equal(t, 99.25, back.Balance)
	assert.Len(t, back.Positions, 1)
}

func TestDisconnectUnknownWallet(t *testing.T) {
	c, _ := newConnector(t)
	assert.NoError(t, c.Disconnect(context.Background(), "0x8ba1f109551bd432803012645ac136ddd64dba72"))
}

func TestConnectCancelledDuringHandshake(t *testing.T) {
	store := memory.NewPortfolioStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewConnector(store, 145.50, time.Second, logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Connect(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}
