// Package portfolio computes wallet-level accounting: live position marks,
// net worth, capital committed, and unrealized profit.
package portfolio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Qhawe-ma/predd/internal/domain"
)

// Stats aggregates one wallet's holdings at current market prices.
type Stats struct {
	NetWorth       float64 `json:"netWorth"`
	Cash           float64 `json:"cash"`
	PositionsValue float64 `json:"positionsValue"`
	TotalInvested  float64 `json:"totalInvested"`
	TotalPnL       float64 `json:"totalPnL"`
	Profitable     bool    `json:"profitable"`
}

// Summary is the full portfolio view returned to a wallet.
type Summary struct {
	Account domain.Account `json:"account"`
	Stats   Stats          `json:"stats"`
}

// Service reads accounts and marks their positions against live prices.
type Service struct {
	portfolio domain.PortfolioStore
	markets   domain.MarketStore
	cache     domain.MarketCache
	logger    *slog.Logger
}

// NewService creates a portfolio Service.
func NewService(portfolio domain.PortfolioStore, markets domain.MarketStore, cache domain.MarketCache, logger *slog.Logger) *Service {
	return &Service{portfolio: portfolio, markets: markets, cache: cache, logger: logger}
}

// Snapshot returns the wallet's account with every position marked to the
// market's current price, plus the derived stats. A wallet with no account
// yet fails with ErrNotConnected.
func (s *Service) Snapshot(ctx context.Context, wallet string) (Summary, error) {
	account, err := s.portfolio.GetAccount(ctx, wallet)
	if err != nil {
		return Summary{}, domain.ErrNotConnected
	}

	for i := range account.Positions {
		s.refresh(ctx, &account.Positions[i])
	}

	return Summary{
		Account: account,
		Stats:   Compute(account),
	}, nil
}

// Compute derives the aggregate stats for an account whose positions already
// carry current prices. An account with no positions has net worth equal to
// its cash and zero profit, which counts as profitable.
func Compute(a domain.Account) Stats {
	var value, invested float64
	for _, p := range a.Positions {
		value += p.Value()
		invested += p.CostBasis()
	}
	pnl := value - invested
	return Stats{
		NetWorth:       a.Balance + value,
		Cash:           a.Balance,
		PositionsValue: value,
		TotalInvested:  invested,
		TotalPnL:       pnl,
		Profitable:     pnl >= 0,
	}
}

// refresh updates the position's mark from the live market. A market that no
// longer exists leaves the last known mark in place; stale is better than
// pretending the stake is worthless.
func (s *Service) refresh(ctx context.Context, p *domain.Position) {
	m, err := s.cache.Get(ctx, p.MarketID)
	if err != nil {
		m, err = s.markets.GetByID(ctx, p.MarketID)
		if err != nil {
			s.logger.DebugContext(ctx, "portfolio: mark refresh skipped",
				slog.String("market_id", p.MarketID),
				slog.String("error", err.Error()),
			)
			return
		}
	}
	p.CurrentPrice = m.PriceFor(p.Outcome)
}

// Positions returns the wallet's positions marked to current prices.
func (s *Service) Positions(ctx context.Context, wallet string) ([]domain.Position, error) {
	summary, err := s.Snapshot(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("portfolio: positions for %q: %w", wallet, err)
	}
	return summary.Account.Positions, nil
}
