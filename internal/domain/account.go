package domain

import "time"

// Account is a trader's venue-side record: wallet identity, cash balance, and
// the positions and receipts owned by that wallet. It is always passed
// explicitly into operations; there is no ambient current-user state.
type Account struct {
	Wallet      string        `json:"wallet"`
	Connected   bool          `json:"connected"`
	Balance     float64       `json:"balance"`
	Positions   []Position    `json:"positions"`
	History     []Transaction `json:"history"`
	ConnectedAt time.Time     `json:"connectedAt"`
}

// PositionFor returns the index of the account's position in the given
// (market, outcome) pair, or -1 when none exists.
func (a Account) PositionFor(marketID string, outcome Outcome) int {
	for i, p := range a.Positions {
		if p.MarketID == marketID && p.Outcome == outcome {
			return i
		}
	}
	return -1
}
