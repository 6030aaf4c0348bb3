// Package ledger owns the market lifecycle: creation, resolution, and
// deletion. RESOLVED is terminal; resolution collapses the two prices to
// {1, 0} exactly once and can never be repeated or undone.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Qhawe-ma/predd/internal/domain"
)

// seedLiquidity is the display-only depth assigned to newly created markets.
const seedLiquidity = 1000

// DescriptionGenerator produces a market description from its title. It is
// best-effort: any failure degrades to a fixed fallback rather than blocking
// creation.
type DescriptionGenerator interface {
	Generate(ctx context.Context, title string) (string, error)
}

// SettlementArchiver persists a snapshot of a resolved market to cold
// storage. Declared locally so the ledger never depends on a concrete blob
// implementation.
type SettlementArchiver interface {
	ArchiveResolution(ctx context.Context, m domain.Market) (string, error)
}

// MarketDraft carries the administrative inputs for creating a market.
type MarketDraft struct {
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Category       domain.Category `json:"category"`
	ImageURL       string          `json:"imageUrl"`
	YesProbability float64         `json:"yesPrice"`
	EndDate        time.Time       `json:"endDate"`
}

// Service is the market lifecycle state machine.
type Service struct {
	markets  domain.MarketStore
	cache    domain.MarketCache
	bus      domain.SignalBus
	audit    domain.AuditStore
	gen      DescriptionGenerator
	archiver SettlementArchiver
	logger   *slog.Logger
}

// NewService creates a lifecycle Service with its required dependencies.
func NewService(
	markets domain.MarketStore,
	cache domain.MarketCache,
	bus domain.SignalBus,
	audit domain.AuditStore,
	logger *slog.Logger,
) *Service {
	return &Service{
		markets: markets,
		cache:   cache,
		bus:     bus,
		audit:   audit,
		logger:  logger,
	}
}

// WithDescriptionGenerator attaches a best-effort description generator used
// when a draft arrives without a description.
func (s *Service) WithDescriptionGenerator(gen DescriptionGenerator) *Service {
	s.gen = gen
	return s
}

// WithArchiver attaches a settlement archiver invoked after each resolution.
func (s *Service) WithArchiver(a SettlementArchiver) *Service {
	s.archiver = a
	return s
}

// CreateMarket validates the draft, fills defaults, seeds the price history,
// and writes the new OPEN market to the store.
func (s *Service) CreateMarket(ctx context.Context, draft MarketDraft) (domain.Market, error) {
	if draft.Title == "" {
		return domain.Market{}, &domain.ValidationError{Field: "title", Reason: "is required"}
	}
	if draft.EndDate.IsZero() {
		return domain.Market{}, &domain.ValidationError{Field: "endDate", Reason: "is required"}
	}
	if draft.Category != "" && !draft.Category.Valid() {
		return domain.Market{}, &domain.ValidationError{Field: "category", Reason: "is not recognised"}
	}

	if draft.Description == "" && s.gen != nil {
		draft.Description = s.describe(ctx, draft.Title)
	}
	if draft.Description == "" {
		return domain.Market{}, &domain.ValidationError{Field: "description", Reason: "is required"}
	}

	p := draft.YesProbability
	if p == 0 {
		p = 0.5
	}
	if p <= 0 || p >= 1 {
		return domain.Market{}, &domain.ValidationError{Field: "yesPrice", Reason: "must lie strictly between 0 and 1"}
	}

	category := draft.Category
	if category == "" {
		category = domain.CategoryCrypto
	}

	now := time.Now().UTC()
	m := domain.Market{
		ID:          uuid.NewString(),
		Title:       draft.Title,
		Description: draft.Description,
		Category:    category,
		ImageURL:    draft.ImageURL,
		YesPrice:    p,
		NoPrice:     1 - p,
		Volume:      0,
		Liquidity:   seedLiquidity,
		EndDate:     draft.EndDate,
		Hot:         true,
		Status:      domain.MarketStatusOpen,
		Chart:       generateChart(p, 0.05, 24, now),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.markets.Create(ctx, m); err != nil {
		return domain.Market{}, fmt.Errorf("ledger: create market: %w", err)
	}

	if cacheErr := s.cache.Set(ctx, m); cacheErr != nil {
		s.logger.WarnContext(ctx, "ledger: cache set failed",
			slog.String("market_id", m.ID),
			slog.String("error", cacheErr.Error()),
		)
	}

	s.publish(ctx, "markets", map[string]any{
		"event":     "market_created",
		"market_id": m.ID,
		"title":     m.Title,
		"yes_price": m.YesPrice,
	})
	s.auditLog(ctx, "market_created", map[string]any{
		"market_id": m.ID,
		"title":     m.Title,
		"category":  string(m.Category),
		"yes_price": m.YesPrice,
		"end_date":  m.EndDate.Format(time.RFC3339),
	})

	s.logger.InfoContext(ctx, "ledger: market created",
		slog.String("market_id", m.ID),
		slog.String("title", m.Title),
		slog.Float64("yes_price", m.YesPrice),
	)

	return m, nil
}

// ResolveMarket declares the winning outcome of an OPEN market, collapsing
// its prices to {1, 0}. Resolution is single-shot: a second call fails with
// ErrAlreadyResolved and changes nothing.
func (s *Service) ResolveMarket(ctx context.Context, id string, winner domain.Outcome) (domain.Market, error) {
	if !winner.Valid() {
		return domain.Market{}, &domain.ValidationError{Field: "outcome", Reason: "must be YES or NO"}
	}

	m, err := s.markets.GetByID(ctx, id)
	if err != nil {
		return domain.Market{}, fmt.Errorf("ledger: resolve market %q: %w", id, err)
	}
	if m.Status == domain.MarketStatusResolved {
		return domain.Market{}, domain.ErrAlreadyResolved
	}

	now := time.Now().UTC()
	m.Status = domain.MarketStatusResolved
	m.Resolution = winner
	if winner == domain.OutcomeYes {
		m.YesPrice, m.NoPrice = 1, 0
	} else {
		m.YesPrice, m.NoPrice = 0, 1
	}
	m.Chart = append(m.Chart, domain.PricePoint{Timestamp: now, Value: m.YesPrice})
	m.UpdatedAt = now

	if err := s.markets.Update(ctx, m); err != nil {
		return domain.Market{}, fmt.Errorf("ledger: persist resolution %q: %w", id, err)
	}

	if cacheErr := s.cache.Invalidate(ctx, id); cacheErr != nil {
		s.logger.WarnContext(ctx, "ledger: cache invalidate failed",
			slog.String("market_id", id),
			slog.String("error", cacheErr.Error()),
		)
	}

	s.publish(ctx, "markets", map[string]any{
		"event":     "market_resolved",
		"market_id": m.ID,
		"outcome":   string(winner),
	})
	s.auditLog(ctx, "market_resolved", map[string]any{
		"market_id": m.ID,
		"outcome":   string(winner),
	})

	if s.archiver != nil {
		if path, archErr := s.archiver.ArchiveResolution(ctx, m); archErr != nil {
			s.logger.WarnContext(ctx, "ledger: settlement archive failed",
				slog.String("market_id", m.ID),
				slog.String("error", archErr.Error()),
			)
		} else {
			s.logger.InfoContext(ctx, "ledger: settlement archived",
				slog.String("market_id", m.ID),
				slog.String("path", path),
			)
		}
	}

	s.logger.InfoContext(ctx, "ledger: market resolved",
		slog.String("market_id", m.ID),
		slog.String("outcome", string(winner)),
	)

	return m, nil
}

// DeleteMarket removes a market in any state. Deleting an unknown id is a
// benign no-op. Positions and receipts already recorded against the market
// are left alone; reconciling orphaned references is out of scope.
func (s *Service) DeleteMarket(ctx context.Context, id string) error {
	if err := s.markets.Delete(ctx, id); err != nil {
		return fmt.Errorf("ledger: delete market %q: %w", id, err)
	}

	if cacheErr := s.cache.Invalidate(ctx, id); cacheErr != nil {
		s.logger.WarnContext(ctx, "ledger: cache invalidate failed",
			slog.String("market_id", id),
			slog.String("error", cacheErr.Error()),
		)
	}

	s.publish(ctx, "markets", map[string]any{
		"event":     "market_deleted",
		"market_id": id,
	})
	s.auditLog(ctx, "market_deleted", map[string]any{"market_id": id})

	s.logger.InfoContext(ctx, "ledger: market deleted", slog.String("market_id", id))
	return nil
}

// GetMarket retrieves a market by id, cache first, store on a miss.
func (s *Service) GetMarket(ctx context.Context, id string) (domain.Market, error) {
	m, err := s.cache.Get(ctx, id)
	if err == nil {
		return m, nil
	}

	m, err = s.markets.GetByID(ctx, id)
	if err != nil {
		return domain.Market{}, fmt.Errorf("ledger: get market %q: %w", id, err)
	}

	if cacheErr := s.cache.Set(ctx, m); cacheErr != nil {
		s.logger.WarnContext(ctx, "ledger: cache set failed",
			slog.String("market_id", id),
			slog.String("error", cacheErr.Error()),
		)
	}
	return m, nil
}

// ListMarkets returns markets from the store with pagination and filtering.
func (s *Service) ListMarkets(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	markets, err := s.markets.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("ledger: list markets: %w", err)
	}
	return markets, nil
}

// Count returns the total number of markets.
func (s *Service) Count(ctx context.Context) (int64, error) {
	n, err := s.markets.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("ledger: count markets: %w", err)
	}
	return n, nil
}

// SeedIfEmpty populates the store with the default market catalogue when it
// holds no markets at all. Used once at startup.
func (s *Service) SeedIfEmpty(ctx context.Context) error {
	n, err := s.markets.Count(ctx)
	if err != nil {
		return fmt.Errorf("ledger: seed count: %w", err)
	}
	if n > 0 {
		return nil
	}

	seeds := seedCatalogue(time.Now().UTC())
	for _, m := range seeds {
		if err := s.markets.Create(ctx, m); err != nil {
			return fmt.Errorf("ledger: seed market %q: %w", m.Title, err)
		}
	}

	s.logger.InfoContext(ctx, "ledger: seeded default markets", slog.Int("count", len(seeds)))
	return nil
}

// describe asks the generator for a description, falling back to the fixed
// resolution-source boilerplate on any failure.
func (s *Service) describe(ctx context.Context, title string) string {
	text, err := s.gen.Generate(ctx, title)
	if err != nil || text == "" {
		s.logger.WarnContext(ctx, "ledger: description generation failed, using fallback",
			slog.String("title", title),
		)
		return fallbackDescription
	}
	return text
}

// fallbackDescription is used when description generation fails.
const fallbackDescription = "Market resolution will be determined by official consensus from reliable reporting agencies."

func (s *Service) publish(ctx context.Context, channel string, event map[string]any) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if pubErr := s.bus.Publish(ctx, channel, payload); pubErr != nil {
		s.logger.WarnContext(ctx, "ledger: publish event failed",
			slog.String("channel", channel),
			slog.String("error", pubErr.Error()),
		)
	}
}

func (s *Service) auditLog(ctx context.Context, event string, detail map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, event, detail); err != nil {
		s.logger.WarnContext(ctx, "ledger: audit log failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
