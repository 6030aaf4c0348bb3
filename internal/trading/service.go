// Package trading executes buys against open markets: it quotes the posted
// price, simulates settlement, debits the account, and merges the fill into
// the wallet's position for that side.
package trading

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Qhawe-ma/predd/internal/domain"
	"github.com/Qhawe-ma/predd/internal/pricing"
)

// TradeRequest is one proposed buy.
type TradeRequest struct {
	MarketID string         `json:"marketId"`
	Outcome  domain.Outcome `json:"outcome"`
	Amount   float64        `json:"amount"`
}

// TradeResult reports a confirmed trade back to the caller.
type TradeResult struct {
	Transaction domain.Transaction `json:"transaction"`
	Position    domain.Position    `json:"position"`
	Balance     float64            `json:"balance"`
}

// Service executes trades. Preconditions are checked in a fixed order so a
// request that fails several at once reports a deterministic error: wallet
// connection, then amount validity, then balance, then market state.
type Service struct {
	markets   domain.MarketStore
	portfolio domain.PortfolioStore
	cache     domain.MarketCache
	bus       domain.SignalBus
	quoter    pricing.Quoter
	confirmer Confirmer
	logger    *slog.Logger
}

// NewService creates a trade execution Service.
func NewService(
	markets domain.MarketStore,
	portfolio domain.PortfolioStore,
	cache domain.MarketCache,
	bus domain.SignalBus,
	quoter pricing.Quoter,
	confirmer Confirmer,
	logger *slog.Logger,
) *Service {
	return &Service{
		markets:   markets,
		portfolio: portfolio,
		cache:     cache,
		bus:       bus,
		quoter:    quoter,
		confirmer: confirmer,
		logger:    logger,
	}
}

// ExecuteTrade runs the full buy path for one wallet. On success the account
// has been debited, a confirmed receipt prepended to its history, the position
// for (market, outcome) merged at the fill price, and the market's volume
// increased by the trade amount.
func (s *Service) ExecuteTrade(ctx context.Context, wallet string, req TradeRequest) (TradeResult, error) {
	account, err := s.portfolio.GetAccount(ctx, wallet)
	if err != nil || !account.Connected {
		return TradeResult{}, domain.ErrNotConnected
	}
	if !req.Outcome.Valid() {
		return TradeResult{}, &domain.ValidationError{Field: "outcome", Reason: "must be YES or NO"}
	}
	if !pricing.ValidAmount(req.Amount) {
		return TradeResult{}, domain.ErrInvalidAmount
	}
	if req.Amount > account.Balance {
		return TradeResult{}, domain.ErrInsufficientBalance
	}

	market, err := s.lookupMarket(ctx, req.MarketID)
	if err != nil {
		return TradeResult{}, err
	}

	price, err := s.quoter.Quote(market, req.Outcome)
	if err != nil {
		return TradeResult{}, err
	}

	if err := s.confirmer.Confirm(ctx); err != nil {
		return TradeResult{}, fmt.Errorf("trading: confirm: %w", err)
	}

	now := time.Now().UTC()
	tx := domain.Transaction{
		ID:          uuid.NewString(),
		Type:        domain.TransactionTypeBuy,
		MarketID:    market.ID,
		MarketTitle: market.Title,
		Outcome:     req.Outcome,
		Amount:      req.Amount,
		Price:       price,
		Timestamp:   now,
		Status:      domain.TransactionStatusConfirmed,
	}
	shares := tx.Shares()

	var pos domain.Position
	if i := account.PositionFor(market.ID, req.Outcome); i >= 0 {
		pos = account.Positions[i].Merge(shares, price, now)
	} else {
		pos = domain.Position{
			MarketID:     market.ID,
			MarketTitle:  market.Title,
			Outcome:      req.Outcome,
			Shares:       shares,
			AvgPrice:     price,
			CurrentPrice: price,
			OpenedAt:     now,
			UpdatedAt:    now,
		}
	}

	if err := s.portfolio.ApplyTrade(ctx, wallet, tx, pos); err != nil {
		return TradeResult{}, fmt.Errorf("trading: apply trade: %w", err)
	}

	s.bumpVolume(ctx, market, req.Amount)
	s.announce(ctx, wallet, tx, shares)

	s.logger.InfoContext(ctx, "trading: trade executed",
		slog.String("wallet", wallet),
		slog.String("market_id", market.ID),
		slog.String("outcome", string(req.Outcome)),
		slog.Float64("amount", req.Amount),
		slog.Float64("price", price),
		slog.Float64("shares", shares),
	)

	return TradeResult{
		Transaction: tx,
		Position:    pos,
		Balance:     account.Balance - req.Amount,
	}, nil
}

// History returns the wallet's receipts, most recent first.
func (s *Service) History(ctx context.Context, wallet string, opts domain.ListOpts) ([]domain.Transaction, error) {
	txs, err := s.portfolio.ListTransactions(ctx, wallet, opts)
	if err != nil {
		return nil, fmt.Errorf("trading: list transactions: %w", err)
	}
	return txs, nil
}

func (s *Service) lookupMarket(ctx context.Context, id string) (domain.Market, error) {
	m, err := s.cache.Get(ctx, id)
	if err == nil {
		return m, nil
	}
	m, err = s.markets.GetByID(ctx, id)
	if err != nil {
		return domain.Market{}, fmt.Errorf("trading: lookup market %q: %w", id, err)
	}
	return m, nil
}

// bumpVolume records the traded notional on the market. Volume is a display
// aggregate, so a failure here is logged but never rolls back the trade.
func (s *Service) bumpVolume(ctx context.Context, m domain.Market, amount float64) {
	m.Volume += amount
	m.UpdatedAt = time.Now().UTC()
	if err := s.markets.Update(ctx, m); err != nil {
		s.logger.WarnContext(ctx, "trading: volume update failed",
			slog.String("market_id", m.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := s.cache.Invalidate(ctx, m.ID); err != nil {
		s.logger.WarnContext(ctx, "trading: cache invalidate failed",
			slog.String("market_id", m.ID),
			slog.String("error", err.Error()),
		)
	}
}

// announce publishes the confirmed trade to the live channel and appends it
// to the durable trade stream.
func (s *Service) announce(ctx context.Context, wallet string, tx domain.Transaction, shares float64) {
	payload, err := json.Marshal(map[string]any{
		"event":     "trade_executed",
		"wallet":    wallet,
		"market_id": tx.MarketID,
		"outcome":   string(tx.Outcome),
		"amount":    tx.Amount,
		"price":     tx.Price,
		"shares":    shares,
		"tx_id":     tx.ID,
	})
	if err != nil {
		return
	}
	if pubErr := s.bus.Publish(ctx, "trades", payload); pubErr != nil {
		s.logger.WarnContext(ctx, "trading: publish trade failed",
			slog.String("error", pubErr.Error()),
		)
	}
	if streamErr := s.bus.StreamAppend(ctx, "trades", payload); streamErr != nil {
		s.logger.WarnContext(ctx, "trading: stream append failed",
			slog.String("error", streamErr.Error()),
		)
	}
}
