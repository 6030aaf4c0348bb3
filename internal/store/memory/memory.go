// Package memory provides mutex-guarded in-memory implementations of the
// domain storage interfaces. They back unit tests and local development runs
// where postgres and redis are not available.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Qhawe-ma/predd/internal/domain"
)

// MarketStore is an in-memory domain.MarketStore.
type MarketStore struct {
	mu      sync.RWMutex
	markets map[string]domain.Market
}

// NewMarketStore creates an empty in-memory market store.
func NewMarketStore() *MarketStore {
	return &MarketStore{markets: make(map[string]domain.Market)}
}

func (s *MarketStore) Create(_ context.Context, m domain.Market) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markets[m.ID] = m
	return nil
}

func (s *MarketStore) Update(_ context.Context, m domain.Market) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.markets[m.ID]; !ok {
		return domain.ErrNotFound
	}
	s.markets[m.ID] = m
	return nil
}

func (s *MarketStore) GetByID(_ context.Context, id string) (domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.markets[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return m, nil
}

func (s *MarketStore) List(_ context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Market, 0, len(s.markets))
	for _, m := range s.markets {
		if opts.Category != "" && m.Category != opts.Category {
			continue
		}
		if opts.OnlyOpen && !m.Open() {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

// Delete removes the market if present. Unknown ids are a no-op.
func (s *MarketStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markets, id)
	return nil
}

func (s *MarketStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.markets)), nil
}

// PortfolioStore is an in-memory domain.PortfolioStore.
type PortfolioStore struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
}

// NewPortfolioStore creates an empty in-memory portfolio store.
func NewPortfolioStore() *PortfolioStore {
	return &PortfolioStore{accounts: make(map[string]domain.Account)}
}

func (s *PortfolioStore) GetAccount(_ context.Context, wallet string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[wallet]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return cloneAccount(a), nil
}

func (s *PortfolioStore) SaveAccount(_ context.Context, a domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.Wallet] = cloneAccount(a)
	return nil
}

// ApplyTrade commits the debit, receipt, and position upsert under one lock
// so a concurrent reader never observes a partial trade.
func (s *PortfolioStore) ApplyTrade(_ context.Context, wallet string, tx domain.Transaction, pos domain.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[wallet]
	if !ok {
		return domain.ErrNotFound
	}
	if a.Balance < tx.Amount {
		return domain.ErrInsufficientBalance
	}

	a.Balance -= tx.Amount
	a.History = append([]domain.Transaction{tx}, a.History...)
	if i := a.PositionFor(pos.MarketID, pos.Outcome); i >= 0 {
		a.Positions[i] = pos
	} else {
		a.Positions = append(a.Positions, pos)
	}

	s.accounts[wallet] = a
	return nil
}

func (s *PortfolioStore) ListTransactions(_ context.Context, wallet string, opts domain.ListOpts) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[wallet]
	if !ok {
		return nil, domain.ErrNotFound
	}

	history := append([]domain.Transaction(nil), a.History...)
	if opts.Offset > 0 {
		if opts.Offset >= len(history) {
			return nil, nil
		}
		history = history[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(history) {
		history = history[:opts.Limit]
	}
	return history, nil
}

func cloneAccount(a domain.Account) domain.Account {
	a.Positions = append([]domain.Position(nil), a.Positions...)
	a.History = append([]domain.Transaction(nil), a.History...)
	return a
}

// Cache is an in-memory domain.MarketCache with per-entry TTL.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	market  domain.Market
	expires time.Time
}

// NewCache creates an in-memory market cache. A non-positive ttl means
// entries never expire.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, entries: make(map[string]cacheEntry)}
}

func (c *Cache) Set(_ context.Context, m domain.Market) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := cacheEntry{market: m}
	if c.ttl > 0 {
		e.expires = time.Now().Add(c.ttl)
	}
	c.entries[m.ID] = e
	return nil
}

func (c *Cache) Get(_ context.Context, id string) (domain.Market, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok || (!e.expires.IsZero() && time.Now().After(e.expires)) {
		return domain.Market{}, domain.ErrNotFound
	}
	return e.market, nil
}

func (c *Cache) Invalidate(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	return nil
}

// Bus is an in-memory domain.SignalBus: channel fan-out for pub/sub plus an
// append-only slice per stream.
type Bus struct {
	mu      sync.Mutex
	subs    map[string][]chan []byte
	streams map[string][]domain.StreamMessage
	nextID  int64
}

// NewBus creates an empty in-memory signal bus.
func NewBus() *Bus {
	return &Bus{
		subs:    make(map[string][]chan []byte),
		streams: make(map[string][]domain.StreamMessage),
	}
}

func (b *Bus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[channel] {
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

func (b *Bus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[channel]
		for i, sub := range subs {
			if sub == ch {
				b.subs[channel] = append(subs[:i], subs[i+1:]...)
				close(ch)
				return
			}
		}
	}()
	return ch, nil
}

func (b *Bus) StreamAppend(_ context.Context, stream string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.streams[stream] = append(b.streams[stream], domain.StreamMessage{
		ID:      strconv.FormatInt(b.nextID, 10),
		Payload: payload,
	})
	return nil
}

func (b *Bus) StreamRead(_ context.Context, stream string, lastID string, count int) ([]domain.StreamMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	msgs := b.streams[stream]
	start := 0
	if lastID != "" {
		for i, m := range msgs {
			if m.ID == lastID {
				start = i + 1
				break
			}
		}
	}
	out := append([]domain.StreamMessage(nil), msgs[start:]...)
	if count > 0 && count < len(out) {
		out = out[:count]
	}
	return out, nil
}

// AuditLog is an in-memory domain.AuditStore that records events in order.
type AuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// AuditEntry is one recorded audit event.
type AuditEntry struct {
	Event  string
	Detail map[string]any
	At     time.Time
}

// NewAuditLog creates an empty in-memory audit log.
func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

func (l *AuditLog) Log(_ context.Context, event string, detail map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, AuditEntry{Event: event, Detail: detail, At: time.Now().UTC()})
	return nil
}

// Entries returns a copy of everything logged so far.
func (l *AuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]AuditEntry(nil), l.entries...)
}

// Compile-time interface checks.
var (
	_ domain.MarketStore    = (*MarketStore)(nil)
	_ domain.PortfolioStore = (*PortfolioStore)(nil)
	_ domain.MarketCache    = (*Cache)(nil)
	_ domain.SignalBus      = (*Bus)(nil)
	_ domain.AuditStore     = (*AuditLog)(nil)
)
