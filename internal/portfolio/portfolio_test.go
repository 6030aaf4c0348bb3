package portfolio

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qhawe-ma/predd/internal/domain"
	"github.com/Qhawe-ma/predd/internal/store/memory"
)

const wallet = "0xAbCd000000000000000000000000000000000001"

func newService(t *testing.T) (*Service, *memory.PortfolioStore, *memory.MarketStore) {
	t.Helper()
	portfolio := memory.NewPortfolioStore()
	markets := memory.NewMarketStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(portfolio, markets, memory.NewCache(0), logger), portfolio, markets
}

func TestComputeEmptyAccount(t *testing.T) {
	stats := Compute(domain.Account{Balance: 145.50})

	assert.Equal(t, 145.50, stats.NetWorth)
	assert.Equal(t, 145.50, stats.Cash)
	assert.Zero(t, stats.PositionsValue)
	assert.Zero(t, stats.TotalInvested)
	assert.Zero(t, stats.TotalPnL)
	assert.True(t, stats.Profitable)
}

func TestCompute(t *testing.T) {
	a := domain.Account{
		Balance: 100,
		Positions: []domain.Position{
			{Shares: 20, AvgPrice: 0.50, CurrentPrice: 0.64},
			{Shares: 10, AvgPrice: 0.30, CurrentPrice: 0.25},
		},
	}

	stats := Compute(a)

	// Marks: 20*0.64 + 10*0.25 = 15.3; basis: 20*0.50 + 10*0.30 = 13.
	assert.InDelta(t, 15.3, stats.PositionsValue, 1e-9)
	assert.InDelta(t, 13, stats.TotalInvested, 1e-9)
	assert.InDelta(t, 2.3, stats.TotalPnL, 1e-9)
	assert.InDelta(t, 115.3, stats.NetWorth, 1e-9)
	assert.True(t, stats.Profitable)
}

func TestComputeUnderwater(t *testing.T) {
	a := domain.Account{
		Balance: 50,
		Positions: []domain.Position{
			{Shares: 10, AvgPrice: 0.80, CurrentPrice: 0.20},
		},
	}

	stats := Compute(a)
	assert.InDelta(t, -6, stats.TotalPnL, 1e-9)
	assert.False(t, stats.Profitable)
}

func TestSnapshotRefreshesMarks(t *testing.T) {
	svc, store, markets := newService(t)
	ctx := context.Background()

	require.NoError(t, markets.Create(ctx, domain.Market{
		ID:       "m1",
		YesPrice: 0.80,
		NoPrice:  0.20,
		Status:   domain.MarketStatusOpen,
	}))
	require.NoError(t, store.SaveAccount(ctx, domain.Account{
		Wallet:    wallet,
		Connected: true,
		Balance:   90,
		Positions: []domain.Position{
			{MarketID: "m1", Outcome: domain.OutcomeYes, Shares: 20, AvgPrice: 0.50, CurrentPrice: 0.50, OpenedAt: time.Now()},
		},
	}))

	summary, err := svc.Snapshot(ctx, wallet)
	require.NoError(t, err)

	require.Len(t, summary.Account.Positions, 1)
	assert.Equal(t, 0.80, summary.Account.Positions[0].CurrentPrice)
	assert.InDelta(t, 16, summary.Stats.PositionsValue, 1e-9)
	assert.InDelta(t, 106, summary.Stats.NetWorth, 1e-9)
}

func TestSnapshotDeletedMarketKeepsLastMark(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	require.NoError(t, store.SaveAccount(ctx, domain.Account{
		Wallet:    wallet,
		Connected: true,
		Balance:   90,
		Positions: []domain.Position{
			{MarketID: "gone", Outcome: domain.OutcomeYes, Shares: 10, AvgPrice: 0.50, CurrentPrice: 0.55},
		},
	}))

	summary, err := svc.Snapshot(ctx, wallet)
	require.NoError(t, err)
	assert.Equal(t, 0.55, summary.Account.Positions[0].CurrentPrice)
}

func TestSnapshotUnknownWallet(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Snapshot(context.Background(), "0xNobody")
	assert.ErrorIs(t, err, domain.ErrNotConnected)
}
