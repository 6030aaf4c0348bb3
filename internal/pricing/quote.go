// Package pricing computes per-share quotes and derived trade estimates.
//
// The venue uses a posted-price policy: every trade, regardless of size,
// executes at the market's current stored price for the chosen side. Volume
// is tracked for display only and never feeds back into the price. The Quoter
// interface exists so a path-dependent model (constant-product, order book)
// can replace the posted-price policy without touching trade execution.
package pricing

import (
	"math"

	"github.com/Qhawe-ma/predd/internal/domain"
)

// Quoter prices one share of a given outcome at the current instant.
type Quoter interface {
	Quote(m domain.Market, o domain.Outcome) (float64, error)
}

// PostedPrice is the stateless default Quoter: the quote for a side is simply
// the market's stored price for that side.
type PostedPrice struct{}

// Quote returns the posted per-share price for the given side. Quoting a
// resolved market fails with ErrMarketClosed; trades against settled prices
// are never meaningful.
func (PostedPrice) Quote(m domain.Market, o domain.Outcome) (float64, error) {
	if !o.Valid() {
		return 0, &domain.ValidationError{Field: "outcome", Reason: "must be YES or NO"}
	}
	if !m.Open() {
		return 0, domain.ErrMarketClosed
	}
	return m.PriceFor(o), nil
}

// Estimate holds the derived quantities for a proposed trade of a given cash
// amount at a given price.
type Estimate struct {
	Shares float64 `json:"shares"`
	Profit float64 `json:"profit"`
	ROI    float64 `json:"roi"`
}

// Estimated computes shares = amount/price, profit = shares - amount and
// roi = profit/amount for a proposed order. A zero amount yields all zeros
// rather than propagating NaN into display code.
func Estimated(amount, price float64) Estimate {
	if amount == 0 || price == 0 {
		return Estimate{}
	}
	shares := amount / price
	profit := shares - amount
	return Estimate{
		Shares: shares,
		Profit: profit,
		ROI:    profit / amount,
	}
}

// ValidAmount reports whether a is a finite, strictly positive trade amount.
func ValidAmount(a float64) bool {
	return a > 0 && !math.IsInf(a, 0) && !math.IsNaN(a)
}

// Conserved reports whether a market's two prices still sum to one within
// floating tolerance.
func Conserved(m domain.Market) bool {
	return math.Abs(m.YesPrice+m.NoPrice-1) <= 1e-9
}

// Compile-time interface check.
var _ Quoter = PostedPrice{}
