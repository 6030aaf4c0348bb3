// Package livesync fans full market-set snapshots out to in-process
// observers and to the signal bus, so every connected view converges on the
// same state without polling.
package livesync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Qhawe-ma/predd/internal/domain"
)

// SnapshotChannel is the bus channel carrying full market-set snapshots and
// market lifecycle events.
const SnapshotChannel = "markets"

// tradeChannel carries confirmed trade events; trades change market volume,
// so they refresh the snapshot too.
const tradeChannel = "trades"

// snapshotEvent tags a full market-set snapshot on the bus so Run can tell
// its own output apart from mutation events on the same channel.
const snapshotEvent = "markets_snapshot"

// Snapshot is one published market-set state.
type Snapshot struct {
	Event   string          `json:"event"`
	Markets []domain.Market `json:"markets"`
}

// Bridge distributes market snapshots. In-process subscribers get a direct
// callback; remote consumers receive the same payload over the bus.
type Bridge struct {
	bus    domain.SignalBus
	logger *slog.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]func([]domain.Market)
}

// NewBridge creates a Bridge over the given bus.
func NewBridge(bus domain.SignalBus, logger *slog.Logger) *Bridge {
	return &Bridge{
		bus:    bus,
		logger: logger,
		subs:   make(map[int]func([]domain.Market)),
	}
}

// Subscribe registers fn to receive every subsequent snapshot. The returned
// function cancels the subscription; calling it more than once is harmless.
func (b *Bridge) Subscribe(fn func([]domain.Market)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish delivers the snapshot to every local subscriber and then to the
// bus. Subscribers receive their own copy of the slice so none can corrupt
// another's view.
func (b *Bridge) Publish(ctx context.Context, markets []domain.Market) error {
	b.mu.Lock()
	subs := make([]func([]domain.Market), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(append([]domain.Market(nil), markets...))
	}

	payload, err := json.Marshal(Snapshot{Event: snapshotEvent, Markets: markets})
	if err != nil {
		return fmt.Errorf("livesync: encode snapshot: %w", err)
	}
	if err := b.bus.Publish(ctx, SnapshotChannel, payload); err != nil {
		b.logger.WarnContext(ctx, "livesync: bus publish failed",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("livesync: publish snapshot: %w", err)
	}
	return nil
}

// MarketLister provides the full market set for snapshotting.
type MarketLister interface {
	ListMarkets(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error)
}

// Run keeps every subscriber current: it republishes the full market set
// whenever a mutation event arrives on the markets or trades channels. When
// interval is positive it also refreshes on that cadence as a fallback, so a
// missed event heals on the next tick. Run blocks until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context, markets MarketLister, interval time.Duration) error {
	marketEvents, err := b.bus.Subscribe(ctx, SnapshotChannel)
	if err != nil {
		return fmt.Errorf("livesync: subscribe %s: %w", SnapshotChannel, err)
	}
	tradeEvents, err := b.bus.Subscribe(ctx, tradeChannel)
	if err != nil {
		return fmt.Errorf("livesync: subscribe %s: %w", tradeChannel, err)
	}

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-marketEvents:
			if !ok {
				return nil
			}
			// Snapshots come back on the same channel they go out on;
			// refreshing on them would loop forever.
			if isSnapshot(payload) {
				continue
			}
			b.refresh(ctx, markets)
		case _, ok := <-tradeEvents:
			if !ok {
				return nil
			}
			b.refresh(ctx, markets)
		case <-tick:
			b.refresh(ctx, markets)
		}
	}
}

// refresh loads the full market set and publishes it as one snapshot.
func (b *Bridge) refresh(ctx context.Context, markets MarketLister) {
	set, err := markets.ListMarkets(ctx, domain.ListOpts{})
	if err != nil {
		b.logger.WarnContext(ctx, "livesync: list markets failed",
			slog.String("error", err.Error()),
		)
		return
	}
	if err := b.Publish(ctx, set); err != nil {
		b.logger.WarnContext(ctx, "livesync: refresh publish failed",
			slog.String("error", err.Error()),
		)
	}
}

// isSnapshot reports whether a markets-channel payload is one of the
// bridge's own snapshots rather than a mutation event.
func isSnapshot(payload []byte) bool {
	var tag struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(payload, &tag); err != nil {
		return false
	}
	return tag.Event == snapshotEvent
}

// SubscriberCount reports how many local subscribers are registered.
func (b *Bridge) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
