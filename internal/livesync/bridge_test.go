package livesync

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qhawe-ma/predd/internal/domain"
	"github.com/Qhawe-ma/predd/internal/ledger"
	"github.com/Qhawe-ma/predd/internal/store/memory"
)

func newBridge(t *testing.T) (*Bridge, *memory.Bus) {
	t.Helper()
	bus := memory.NewBus()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBridge(bus, logger), bus
}

func sample() []domain.Market {
	return []domain.Market{
		{ID: "m1", Title: "Will Bitcoin hit $100k by 2026?", YesPrice: 0.64, NoPrice: 0.36, Status: domain.MarketStatusOpen},
	}
}

func TestPublishFansOutLocally(t *testing.T) {
	b, _ := newBridge(t)

	var got [][]domain.Market
	unsub := b.Subscribe(func(ms []domain.Market) { got = append(got, ms) })
	defer unsub()

	require.NoError(t, b.Publish(context.Background(), sample()))
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0][0].ID)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b, _ := newBridge(t)

	calls := 0
	unsub := b.Subscribe(func([]domain.Market) { calls++ })

	require.NoError(t, b.Publish(context.Background(), sample()))
	unsub()
	unsub() // second call is harmless
	require.NoError(t, b.Publish(context.Background(), sample()))

	assert.Equal(t, 1, calls)
	assert.Zero(t, b.SubscriberCount())
}

func TestSubscribersGetIndependentCopies(t *testing.T) {
	b, _ := newBridge(t)

	var first, second []domain.Market
	defer b.Subscribe(func(ms []domain.Market) { ms[0].Title = "mutated"; first = ms })()
	defer b.Subscribe(func(ms []domain.Market) { second = ms })()

	require.NoError(t, b.Publish(context.Background(), sample()))
	assert.Equal(t, "mutated", first[0].Title)
	assert.Equal(t, "Will Bitcoin hit $100k by 2026?", second[0].Title)
}

// staticLister is a MarketLister stub that counts how often it is asked for
// the market set.
type staticLister struct {
	mu      sync.Mutex
	calls   int
	markets []domain.Market
}

func (l *staticLister) ListMarkets(_ context.Context, _ domain.ListOpts) ([]domain.Market, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return l.markets, nil
}

func (l *staticLister) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func TestRunSnapshotsOnMarketCreation(t *testing.T) {
	bus := memory.NewBus()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := NewBridge(bus, logger)
	svc := ledger.NewService(memory.NewMarketStore(), memory.NewCache(0), bus, memory.NewAuditLog(), logger)

	snaps := make(chan []domain.Market, 16)
	defer b.Subscribe(func(ms []domain.Market) { snaps <- ms })()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx, svc, 0)

	// Run subscribes asynchronously; nudge with no-op mutation events until
	// the first snapshot shows the loop is live.
	require.Eventually(t, func() bool {
		_ = bus.Publish(ctx, SnapshotChannel, []byte(`{"event":"nudge"}`))
		select {
		case <-snaps:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	_, err := svc.CreateMarket(ctx, ledger.MarketDraft{
		Title:       "Will it rain tomorrow?",
		Description: "Settled by the local station.",
		EndDate:     time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)

	deadline := time.After(time.Second)
	for {
		select {
		case ms := <-snaps:
			for _, m := range ms {
				if m.Title == "Will it rain tomorrow?" {
					return
				}
			}
		case <-deadline:
			t.Fatal("no snapshot carrying the created market")
		}
	}
}

func TestRunIgnoresOwnSnapshots(t *testing.T) {
	bus := memory.NewBus()
	b := NewBridge(bus, slog.New(slog.NewTextHandler(io.Discard, nil)))
	lister := &staticLister{markets: sample()}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx, lister, 0)

	require.Eventually(t, func() bool {
		_ = bus.Publish(ctx, SnapshotChannel, []byte(`{"event":"nudge"}`))
		return lister.callCount() > 0
	}, time.Second, 10*time.Millisecond)

	// Let queued nudges drain, then feed the loop its own output.
	time.Sleep(50 * time.Millisecond)
	seen := lister.callCount()

	snap, err := json.Marshal(Snapshot{Event: "markets_snapshot", Markets: sample()})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(ctx, SnapshotChannel, snap))
	}

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, seen, lister.callCount())
}

func TestRunRefreshesOnTradeEvents(t *testing.T) {
	bus := memory.NewBus()
	b := NewBridge(bus, slog.New(slog.NewTextHandler(io.Discard, nil)))
	lister := &staticLister{markets: sample()}

	snaps := make(chan []domain.Market, 16)
	defer b.Subscribe(func(ms []domain.Market) { snaps <- ms })()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx, lister, 0)

	require.Eventually(t, func() bool {
		_ = bus.Publish(ctx, tradeChannel, []byte(`{"event":"trade_executed"}`))
		select {
		case ms := <-snaps:
			return len(ms) == 1 && ms[0].ID == "m1"
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestPublishReachesBus(t *testing.T) {
	b, bus := newBridge(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx, SnapshotChannel)
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, sample()))

	select {
	case payload := <-ch:
		var snap Snapshot
		require.NoError(t, json.Unmarshal(payload, &snap))
		assert.Equal(t, "markets_snapshot", snap.Event)
		require.Len(t, snap.Markets, 1)
		assert.Equal(t, 0.64, snap.Markets[0].YesPrice)
	case <-time.After(time.Second):
		t.Fatal("no snapshot on bus")
	}
}
