package domain

import "time"

// TransactionType indicates the direction of a trade.
type TransactionType string

const (
	TransactionTypeBuy TransactionType = "BUY"
	// TransactionTypeSell is reserved; no sell/close path exists yet.
	TransactionTypeSell TransactionType = "SELL"
)

// TransactionStatus tracks settlement of a receipt.
type TransactionStatus string

const (
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusPending   TransactionStatus = "pending"
)

// Transaction is an immutable receipt of one trade. Once written it is never
// mutated; a wallet's history is ordered most-recent-first.
type Transaction struct {
	ID          string            `json:"id"`
	Type        TransactionType   `json:"type"`
	MarketID    string            `json:"marketId"`
	MarketTitle string            `json:"marketTitle"`
	Outcome     Outcome           `json:"outcome"`
	Amount      float64           `json:"amount"`
	Price       float64           `json:"price"`
	Timestamp   time.Time         `json:"timestamp"`
	Status      TransactionStatus `json:"status"`
}

// Shares returns the number of shares this receipt purchased.
func (t Transaction) Shares() float64 {
	if t.Price == 0 {
		return 0
	}
	return t.Amount / t.Price
}
