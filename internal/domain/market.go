package domain

import "time"

// MarketStatus represents the lifecycle state of a market.
type MarketStatus string

const (
	MarketStatusOpen     MarketStatus = "OPEN"
	MarketStatusResolved MarketStatus = "RESOLVED"
)

// Outcome is one side of a binary market.
type Outcome string

const (
	OutcomeYes Outcome = "YES"
	OutcomeNo  Outcome = "NO"
)

// Valid reports whether o is one of the two recognised sides.
func (o Outcome) Valid() bool {
	return o == OutcomeYes || o == OutcomeNo
}

// Opposite returns the complementary side.
func (o Outcome) Opposite() Outcome {
	if o == OutcomeYes {
		return OutcomeNo
	}
	return OutcomeYes
}

// Category classifies a market for discovery and filtering.
type Category string

const (
	CategoryCrypto     Category = "Crypto"
	CategoryPolitics   Category = "Politics"
	CategorySports     Category = "Sports"
	CategoryTech       Category = "Tech"
	CategoryPopCulture Category = "Pop Culture"
)

// Categories lists every recognised market category.
var Categories = []Category{
	CategoryCrypto,
	CategoryPolitics,
	CategorySports,
	CategoryTech,
	CategoryPopCulture,
}

// Valid reports whether c is a recognised category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// PricePoint is one sample of a market's historical YES price.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Market is a binary-outcome proposition with two complementary prices.
// YesPrice + NoPrice is always 1; while OPEN both lie strictly inside (0, 1),
// and once RESOLVED the winning side is exactly 1 and the losing side 0.
type Market struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    Category     `json:"category"`
	ImageURL    string       `json:"imageUrl"`
	YesPrice    float64      `json:"yesPrice"`
	NoPrice     float64      `json:"noPrice"`
	Volume      float64      `json:"volume"`
	Liquidity   float64      `json:"liquidity"`
	EndDate     time.Time    `json:"endDate"`
	Hot         bool         `json:"isHot"`
	Status      MarketStatus `json:"status"`
	Resolution  Outcome      `json:"resolutionOutcome,omitempty"`
	Chart       []PricePoint `json:"chartData,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Open reports whether the market still accepts trades.
func (m Market) Open() bool {
	return m.Status == MarketStatusOpen
}

// PriceFor returns the posted per-share price for the given side.
func (m Market) PriceFor(o Outcome) float64 {
	if o == OutcomeYes {
		return m.YesPrice
	}
	return m.NoPrice
}
