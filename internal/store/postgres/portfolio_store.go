package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Qhawe-ma/predd/internal/domain"
)

// PortfolioStore implements domain.PortfolioStore using PostgreSQL. Accounts,
// positions, and transactions live in separate tables keyed by wallet.
type PortfolioStore struct {
	pool *pgxpool.Pool
}

// NewPortfolioStore creates a new PortfolioStore backed by the given pool.
func NewPortfolioStore(pool *pgxpool.Pool) *PortfolioStore {
	return &PortfolioStore{pool: pool}
}

// GetAccount loads the account row plus its positions and full history.
func (s *PortfolioStore) GetAccount(ctx context.Context, wallet string) (domain.Account, error) {
	var a domain.Account
	err := s.pool.QueryRow(ctx,
		`SELECT wallet, connected, balance, COALESCE(connected_at, 'epoch'::timestamptz)
		 FROM accounts WHERE wallet = $1`, wallet,
	).Scan(&a.Wallet, &a.Connected, &a.Balance, &a.ConnectedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Account{}, domain.ErrNotFound
		}
		return domain.Account{}, fmt.Errorf("postgres: get account %s: %w", wallet, err)
	}

	positions, err := s.loadPositions(ctx, wallet)
	if err != nil {
		return domain.Account{}, err
	}
	a.Positions = positions

	history, err := s.ListTransactions(ctx, wallet, domain.ListOpts{})
	if err != nil {
		return domain.Account{}, err
	}
	a.History = history

	return a, nil
}

// SaveAccount upserts the account row and rewrites its positions. History is
// append-only and not touched here; receipts enter via ApplyTrade.
func (s *PortfolioStore) SaveAccount(ctx context.Context, a domain.Account) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin save account: %w", err)
	}
	defer tx.Rollback(ctx)

	const upsert = `
		INSERT INTO accounts (wallet, connected, balance, connected_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, 'epoch'::timestamptz), NOW())
		ON CONFLICT (wallet) DO UPDATE SET
			connected    = EXCLUDED.connected,
			balance      = EXCLUDED.balance,
			connected_at = EXCLUDED.connected_at,
			updated_at   = NOW()`
	if _, err := tx.Exec(ctx, upsert, a.Wallet, a.Connected, a.Balance, a.ConnectedAt); err != nil {
		return fmt.Errorf("postgres: upsert account %s: %w", a.Wallet, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM positions WHERE wallet = $1`, a.Wallet); err != nil {
		return fmt.Errorf("postgres: clear positions %s: %w", a.Wallet, err)
	}
	for _, p := range a.Positions {
		if err := insertPosition(ctx, tx, a.Wallet, p); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit save account: %w", err)
	}
	return nil
}

// ApplyTrade commits the full effect of one confirmed buy in a single
// transaction: balance debit, receipt insert, position upsert. The balance
// check runs against the locked row, so concurrent trades cannot overdraw.
func (s *PortfolioStore) ApplyTrade(ctx context.Context, wallet string, txn domain.Transaction, pos domain.Position) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin trade: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance float64
	err = tx.QueryRow(ctx,
		`SELECT balance FROM accounts WHERE wallet = $1 FOR UPDATE`, wallet,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("postgres: lock account %s: %w", wallet, err)
	}
	if balance < txn.Amount {
		return domain.ErrInsufficientBalance
	}

	if _, err := tx.Exec(ctx,
		`UPDATE accounts SET balance = balance - $2, updated_at = NOW() WHERE wallet = $1`,
		wallet, txn.Amount,
	); err != nil {
		return fmt.Errorf("postgres: debit account %s: %w", wallet, err)
	}

	const insertTx = `
		INSERT INTO transactions (id, wallet, type, market_id, market_title, outcome, amount, price, status, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := tx.Exec(ctx, insertTx,
		txn.ID, wallet, string(txn.Type), txn.MarketID, txn.MarketTitle,
		string(txn.Outcome), txn.Amount, txn.Price, string(txn.Status), txn.Timestamp,
	); err != nil {
		return fmt.Errorf("postgres: insert transaction %s: %w", txn.ID, err)
	}

	const upsertPos = `
		INSERT INTO positions (wallet, market_id, market_title, outcome, shares, avg_price, current_price, opened_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (wallet, market_id, outcome) DO UPDATE SET
			market_title  = EXCLUDED.market_title,
			shares        = EXCLUDED.shares,
			avg_price     = EXCLUDED.avg_price,
			current_price = EXCLUDED.current_price,
			updated_at    = EXCLUDED.updated_at`
	if _, err := tx.Exec(ctx, upsertPos,
		wallet, pos.MarketID, pos.MarketTitle, string(pos.Outcome),
		pos.Shares, pos.AvgPrice, pos.CurrentPrice, pos.OpenedAt, pos.UpdatedAt,
	); err != nil {
		return fmt.Errorf("postgres: upsert position %s/%s: %w", pos.MarketID, pos.Outcome, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit trade: %w", err)
	}
	return nil
}

// ListTransactions returns the wallet's receipts, most recent first.
func (s *PortfolioStore) ListTransactions(ctx context.Context, wallet string, opts domain.ListOpts) ([]domain.Transaction, error) {
	query := `
		SELECT id, type, market_id, market_title, outcome, amount, price, status, ts
		FROM transactions WHERE wallet = $1 ORDER BY ts DESC, id`
	args := []any{wallet}
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", len(args)+1)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list transactions %s: %w", wallet, err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var (
			t       domain.Transaction
			typ     string
			outcome string
			status  string
		)
		if err := rows.Scan(&t.ID, &typ, &t.MarketID, &t.MarketTitle, &outcome, &t.Amount, &t.Price, &status, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("postgres: scan transaction: %w", err)
		}
		t.Type = domain.TransactionType(typ)
		t.Outcome = domain.Outcome(outcome)
		t.Status = domain.TransactionStatus(status)
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list transactions %s: %w", wallet, err)
	}
	return txs, nil
}

func (s *PortfolioStore) loadPositions(ctx context.Context, wallet string) ([]domain.Position, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT market_id, market_title, outcome, shares, avg_price, current_price, opened_at, updated_at
		FROM positions WHERE wallet = $1 ORDER BY opened_at, market_id`, wallet)
	if err != nil {
		return nil, fmt.Errorf("postgres: load positions %s: %w", wallet, err)
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		var (
			p       domain.Position
			outcome string
		)
		if err := rows.Scan(&p.MarketID, &p.MarketTitle, &outcome, &p.Shares, &p.AvgPrice, &p.CurrentPrice, &p.OpenedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan position: %w", err)
		}
		p.Outcome = domain.Outcome(outcome)
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: load positions %s: %w", wallet, err)
	}
	return positions, nil
}

func insertPosition(ctx context.Context, tx pgx.Tx, wallet string, p domain.Position) error {
	const query = `
		INSERT INTO positions (wallet, market_id, market_title, outcome, shares, avg_price, current_price, opened_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := tx.Exec(ctx, query,
		wallet, p.MarketID, p.MarketTitle, string(p.Outcome),
		p.Shares, p.AvgPrice, p.CurrentPrice, p.OpenedAt, p.UpdatedAt,
	); err != nil {
		return fmt.Errorf("postgres: insert position %s/%s: %w", p.MarketID, p.Outcome, err)
	}
	return nil
}

var _ domain.PortfolioStore = (*PortfolioStore)(nil)
