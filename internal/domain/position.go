package domain

import "time"

// Position is a user's accumulated stake in one (market, outcome) pair.
// A wallet holds at most one position per pair; repeat buys are merged by
// weighted-average entry price. Shares is strictly positive for any position
// that exists.
type Position struct {
	MarketID     string    `json:"marketId"`
	MarketTitle  string    `json:"marketTitle"`
	Outcome      Outcome   `json:"outcome"`
	Shares       float64   `json:"shares"`
	AvgPrice     float64   `json:"avgPrice"`
	CurrentPrice float64   `json:"currentPrice"`
	OpenedAt     time.Time `json:"openedAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Value returns the mark value of the position at its current price.
func (p Position) Value() float64 {
	return p.Shares * p.CurrentPrice
}

// CostBasis returns the capital originally committed to the position.
func (p Position) CostBasis() float64 {
	return p.Shares * p.AvgPrice
}

// Merge folds an additional fill into the position, recomputing the entry
// price as the cost-weighted average of the old stake and the new fill.
func (p Position) Merge(shares, price float64, at time.Time) Position {
	totalShares := p.Shares + shares
	if totalShares > 0 {
		p.AvgPrice = (p.Shares*p.AvgPrice + shares*price) / totalShares
	}
	p.Shares = totalShares
	p.CurrentPrice = price
	p.UpdatedAt = at
	return p
}
