package ledger

import (
	"time"

	"github.com/Qhawe-ma/predd/internal/domain"
)

// seedCatalogue returns the default markets written into an empty store at
// startup so a fresh deployment has something to trade against. IDs are
// stable so repeated deployments stay addressable.
func seedCatalogue(now time.Time) []domain.Market {
	markets := []domain.Market{
		{
			ID:          "m1",
			Title:       "Will Bitcoin hit $100k by 2026?",
			Description: `This market resolves to "Yes" if the price of Bitcoin (BTC) reaches $100,000.00 or greater on CoinGecko before January 1, 2026. If it does not reach this price by the deadline, the market resolves to "No".`,
			Category:    domain.CategoryCrypto,
			ImageURL:    "https://picsum.photos/400/300?grayscale",
			YesPrice:    0.64,
			NoPrice:     0.36,
			Volume:      12_500_000,
			Liquidity:   450_000,
			EndDate:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			Hot:         true,
			Chart:       generateChart(0.55, 0.05, 48, now),
		},
		{
			ID:          "m2",
			Title:       "Will Solana Flip Ethereum Market Cap in 2025?",
			Description: "Resolves to Yes if Solana market capitalization exceeds Ethereum market capitalization at any point during the calendar year 2025.",
			Category:    domain.CategoryCrypto,
			ImageURL:    "https://picsum.photos/401/300?grayscale",
			YesPrice:    0.12,
			NoPrice:     0.88,
			Volume:      3_400_000,
			Liquidity:   120_000,
			EndDate:     time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC),
			Chart:       generateChart(0.08, 0.02, 48, now),
		},
		{
			ID:          "m3",
			Title:       "Will the US Fed cut rates in Q4 2025?",
			Description: "Market resolves based on the Federal Reserve interest rate decision meeting in Q4 2025.",
			Category:    domain.CategoryPolitics,
			ImageURL:    "https://picsum.photos/402/300?grayscale",
			YesPrice:    0.75,
			NoPrice:     0.25,
			Volume:      8_900_000,
			Liquidity:   2_000_000,
			EndDate:     time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
			Hot:         true,
			Chart:       generateChart(0.60, 0.03, 48, now),
		},
		{
			ID:          "m4",
			Title:       "Will GTA VI be released before Holiday 2025?",
			Description: "Resolves Yes if Rockstar Games releases Grand Theft Auto VI for public purchase on any platform before Dec 25, 2025.",
			Category:    domain.CategoryTech,
			ImageURL:    "https://picsum.photos/403/300?grayscale",
			YesPrice:    0.45,
			NoPrice:     0.55,
			Volume:      1_200_000,
			Liquidity:   80_000,
			EndDate:     time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC),
			Chart:       generateChart(0.50, 0.04, 48, now),
		},
		{
			ID:          "m5",
			Title:       "Will France win the 2026 World Cup?",
			Description: "Resolves Yes if the French National Team wins the 2026 FIFA World Cup final.",
			Category:    domain.CategorySports,
			ImageURL:    "https://picsum.photos/404/300?grayscale",
			YesPrice:    0.15,
			NoPrice:     0.85,
			Volume:      500_000,
			Liquidity:   45_000,
			EndDate:     time.Date(2026, 7, 19, 0, 0, 0, 0, time.UTC),
			Chart:       generateChart(0.14, 0.01, 48, now),
		},
	}

	for i := range markets {
		markets[i].Status = domain.MarketStatusOpen
		markets[i].CreatedAt = now
		markets[i].UpdatedAt = now
	}
	return markets
}
