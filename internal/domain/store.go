package domain

import (
	"context"
	"io"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit    int
	Offset   int
	Category Category
	OnlyOpen bool
}

// MarketStore is the authoritative persistence layer for Market entities.
// Delete is tolerant: removing an id that does not exist is a no-op, not an
// error.
type MarketStore interface {
	Create(ctx context.Context, m Market) error
	Update(ctx context.Context, m Market) error
	GetByID(ctx context.Context, id string) (Market, error)
	List(ctx context.Context, opts ListOpts) ([]Market, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// PortfolioStore persists accounts together with the positions and receipts
// they own. ApplyTrade commits the full effect of one confirmed buy (balance
// debit, receipt append, position upsert) atomically: either all of it
// becomes visible or none of it does.
type PortfolioStore interface {
	GetAccount(ctx context.Context, wallet string) (Account, error)
	SaveAccount(ctx context.Context, a Account) error
	ApplyTrade(ctx context.Context, wallet string, tx Transaction, pos Position) error
	ListTransactions(ctx context.Context, wallet string, opts ListOpts) ([]Transaction, error)
}

// MarketCache provides fast market lookups in front of the MarketStore.
type MarketCache interface {
	Set(ctx context.Context, m Market) error
	Get(ctx context.Context, id string) (Market, error)
	Invalidate(ctx context.Context, id string) error
}

// StreamMessage represents a single entry read back from a durable stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus is the venue's fan-out channel: ephemeral pub/sub for live
// snapshots plus durable streams for ordered event history.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// AuditStore persists an append-only audit log of venue actions.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
}

// BlobWriter uploads a serialized object to durable blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}
