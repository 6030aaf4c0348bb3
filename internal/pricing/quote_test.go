package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qhawe-ma/predd/internal/domain"
)

func openMarket(yes float64) domain.Market {
	return domain.Market{
		ID:       "m1",
		Title:    "Will Bitcoin hit $100k by 2026?",
		YesPrice: yes,
		NoPrice:  1 - yes,
		Status:   domain.MarketStatusOpen,
	}
}

func TestPostedPriceQuote(t *testing.T) {
	m := openMarket(0.64)
	q := PostedPrice{}

	yes, err := q.Quote(m, domain.OutcomeYes)
	require.NoError(t, err)
	assert.Equal(t, 0.64, yes)

	no, err := q.Quote(m, domain.OutcomeNo)
	require.NoError(t, err)
	assert.InDelta(t, 0.36, no, 1e-9)
}

func TestPostedPriceQuoteResolved(t *testing.T) {
	m := openMarket(0.64)
	m.Status = domain.MarketStatusResolved
	m.Resolution = domain.OutcomeNo

	_, err := PostedPrice{}.Quote(m, domain.OutcomeYes)
	assert.ErrorIs(t, err, domain.ErrMarketClosed)
}

func TestPostedPriceQuoteInvalidOutcome(t *testing.T) {
	_, err := PostedPrice{}.Quote(openMarket(0.64), domain.Outcome("MAYBE"))
	require.Error(t, err)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "outcome", ve.Field)
}

func TestEstimated(t *testing.T) {
	tests := []struct {
		name       string
		amount     float64
		price      float64
		wantShares float64
		wantProfit float64
		wantROI    float64
	}{
		{
			name:       "scenario from order entry",
			amount:     10,
			price:      0.64,
			wantShares: 15.625,
			wantProfit: 5.625,
			wantROI:    0.5625,
		},
		{
			name:       "even odds",
			amount:     50,
			price:      0.5,
			wantShares: 100,
			wantProfit: 50,
			wantROI:    1,
		},
		{
			name:   "zero amount yields zeros not NaN",
			amount: 0,
			price:  0.64,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := Estimated(tt.amount, tt.price)
			assert.InDelta(t, tt.wantShares, est.Shares, 1e-9)
			assert.InDelta(t, tt.wantProfit, est.Profit, 1e-9)
			assert.InDelta(t, tt.wantROI, est.ROI, 1e-9)
			assert.False(t, math.IsNaN(est.Shares))
			assert.False(t, math.IsNaN(est.ROI))
		})
	}
}

func TestValidAmount(t *testing.T) {
	assert.True(t, ValidAmount(10))
	assert.True(t, ValidAmount(0.01))
	assert.False(t, ValidAmount(0))
	assert.False(t, ValidAmount(-5))
	assert.False(t, ValidAmount(math.NaN()))
	assert.False(t, ValidAmount(math.Inf(1)))
}

func TestConserved(t *testing.T) {
	assert.True(t, Conserved(openMarket(0.64)))
	assert.True(t, Conserved(domain.Market{YesPrice: 1, NoPrice: 0}))

	broken := domain.Market{YesPrice: 0.6, NoPrice: 0.5}
	assert.False(t, Conserved(broken))
}
