package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qhawe-ma/predd/internal/domain"
	"github.com/Qhawe-ma/predd/internal/store/memory"
)

type fixture struct {
	svc     *Service
	markets *memory.MarketStore
	audit   *memory.AuditLog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	markets := memory.NewMarketStore()
	audit := memory.NewAuditLog()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(markets, memory.NewCache(0), memory.NewBus(), audit, logger)
	return &fixture{svc: svc, markets: markets, audit: audit}
}

func validDraft() MarketDraft {
	return MarketDraft{
		Title:       "Will ETH pass $10k this cycle?",
		Description: "Resolves Yes if ETH trades at or above $10,000 on any major venue.",
		Category:    domain.CategoryCrypto,
		EndDate:     time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateMarketDefaults(t *testing.T) {
	f := newFixture(t)

	m, err := f.svc.CreateMarket(context.Background(), validDraft())
	require.NoError(t, err)

	assert.NotEmpty(t, m.ID)
	assert.Equal(t, domain.MarketStatusOpen, m.Status)
	assert.Equal(t, 0.5, m.YesPrice)
	assert.Equal(t, 0.5, m.NoPrice)
	assert.Equal(t, float64(seedLiquidity), m.Liquidity)
	assert.Zero(t, m.Volume)
	assert.True(t, m.Hot)

	require.Len(t, m.Chart, 24)
	for _, pt := range m.Chart {
		assert.GreaterOrEqual(t, pt.Value, 0.01)
		assert.LessOrEqual(t, pt.Value, 0.99)
	}
	assert.Equal(t, 0.5, m.Chart[len(m.Chart)-1].Value)

	stored, err := f.markets.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.Title, stored.Title)
}

func TestCreateMarketExplicitPrice(t *testing.T) {
	f := newFixture(t)

	draft := validDraft()
	draft.YesProbability = 0.64

	m, err := f.svc.CreateMarket(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, 0.64, m.YesPrice)
	assert.InDelta(t, 0.36, m.NoPrice, 1e-9)
}

func TestCreateMarketValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(*MarketDraft)
	}{
		{"missing title", func(d *MarketDraft) { d.Title = "" }},
		{"missing description", func(d *MarketDraft) { d.Description = "" }},
		{"missing end date", func(d *MarketDraft) { d.EndDate = time.Time{} }},
		{"unknown category", func(d *MarketDraft) { d.Category = "Weather" }},
		{"price at one", func(d *MarketDraft) { d.YesProbability = 1 }},
		{"negative price", func(d *MarketDraft) { d.YesProbability = -0.2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validDraft()
			tt.mutate(&draft)
			_, err := f.svc.CreateMarket(context.Background(), draft)
			assert.True(t, domain.IsValidation(err), "want validation error, got %v", err)
		})
	}
}

type staticGenerator struct {
	text string
	err  error
}

func (g staticGenerator) Generate(context.Context, string) (string, error) {
	return g.text, g.err
}

func TestCreateMarketGeneratedDescription(t *testing.T) {
	f := newFixture(t)
	f.svc.WithDescriptionGenerator(staticGenerator{text: "Generated rules text."})

	draft := validDraft()
	draft.Description = ""

	m, err := f.svc.CreateMarket(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, "Generated rules text.", m.Description)
}

func TestCreateMarketGeneratorFallback(t *testing.T) {
	f := newFixture(t)
	f.svc.WithDescriptionGenerator(staticGenerator{err: errors.New("upstream down")})

	draft := validDraft()
	draft.Description = ""

	m, err := f.svc.CreateMarket(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, fallbackDescription, m.Description)
}

func TestResolveMarket(t *testing.T) {
	f := newFixture(t)

	m, err := f.svc.CreateMarket(context.Background(), validDraft())
	require.NoError(t, err)
	chartLen := len(m.Chart)

	resolved, err := f.svc.ResolveMarket(context.Background(), m.ID, domain.OutcomeYes)
	require.NoError(t, err)

	assert.Equal(t, domain.MarketStatusResolved, resolved.Status)
	assert.Equal(t, domain.OutcomeYes, resolved.Resolution)
	assert.Equal(t, 1.0, resolved.YesPrice)
	assert.Equal(t, 0.0, resolved.NoPrice)
	assert.Len(t, resolved.Chart, chartLen+1)
	assert.Equal(t, 1.0, resolved.Chart[len(resolved.Chart)-1].Value)
}

func TestResolveMarketNo(t *testing.T) {
	f := newFixture(t)

	m, err := f.svc.CreateMarket(context.Background(), validDraft())
	require.NoError(t, err)

	resolved, err := f.svc.ResolveMarket(context.Background(), m.ID, domain.OutcomeNo)
	require.NoError(t, err)
	assert.Equal(t, 0.0, resolved.YesPrice)
	assert.Equal(t, 1.0, resolved.NoPrice)
}

func TestResolveMarketSingleShot(t *testing.T) {
	f := newFixture(t)

	m, err := f.svc.CreateMarket(context.Background(), validDraft())
	require.NoError(t, err)

	first, err := f.svc.ResolveMarket(context.Background(), m.ID, domain.OutcomeYes)
	require.NoError(t, err)

	_, err = f.svc.ResolveMarket(context.Background(), m.ID, domain.OutcomeNo)
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)

	// The failed second attempt must not have touched the stored record.
	stored, err := f.markets.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Resolution, stored.Resolution)
	assert.Equal(t, first.YesPrice, stored.YesPrice)
}

func TestResolveMarketUnknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ResolveMarket(context.Background(), "missing", domain.OutcomeYes)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolveMarketInvalidOutcome(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ResolveMarket(context.Background(), "m1", domain.Outcome("MAYBE"))
	assert.True(t, domain.IsValidation(err))
}

func TestDeleteMarketTolerant(t *testing.T) {
	f := newFixture(t)

	m, err := f.svc.CreateMarket(context.Background(), validDraft())
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteMarket(context.Background(), m.ID))
	_, err = f.markets.GetByID(context.Background(), m.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting an id that never existed is a no-op.
	assert.NoError(t, f.svc.DeleteMarket(context.Background(), "m9"))
}

func TestSeedIfEmpty(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.svc.SeedIfEmpty(context.Background()))
	n, err := f.svc.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	// A second seed pass on a populated store changes nothing.
	require.NoError(t, f.svc.SeedIfEmpty(context.Background()))
	n, err = f.svc.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	m, err := f.svc.GetMarket(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "Will Bitcoin hit $100k by 2026?", m.Title)
	assert.Equal(t, 0.64, m.YesPrice)
}

func TestListMarketsFiltering(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.SeedIfEmpty(context.Background()))

	crypto, err := f.svc.ListMarkets(context.Background(), domain.ListOpts{Category: domain.CategoryCrypto})
	require.NoError(t, err)
	assert.Len(t, crypto, 2)

	_, err = f.svc.ResolveMarket(context.Background(), "m2", domain.OutcomeNo)
	require.NoError(t, err)

	open, err := f.svc.ListMarkets(context.Background(), domain.ListOpts{OnlyOpen: true})
	require.NoError(t, err)
	assert.Len(t, open, 4)
}

func TestAuditTrail(t *testing.T) {
	f := newFixture(t)

	m, err := f.svc.CreateMarket(context.Background(), validDraft())
	require.NoError(t, err)
	_, err = f.svc.ResolveMarket(context.Background(), m.ID, domain.OutcomeYes)
	require.NoError(t, err)

	entries := f.audit.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "market_created", entries[0].Event)
	assert.Equal(t, "market_resolved", entries[1].Event)
}
