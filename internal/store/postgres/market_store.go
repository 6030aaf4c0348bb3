package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Qhawe-ma/predd/internal/domain"
)

// MarketStore implements domain.MarketStore using PostgreSQL.
type MarketStore struct {
	pool *pgxpool.Pool
}

// NewMarketStore creates a new MarketStore backed by the given connection pool.
func NewMarketStore(pool *pgxpool.Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

const marketCols = `id, title, description, category, image_url,
	yes_price, no_price, volume, liquidity, end_date,
	is_hot, status, resolution, chart, created_at, updated_at`

// Create inserts a new market row.
func (s *MarketStore) Create(ctx context.Context, m domain.Market) error {
	chart, err := json.Marshal(m.Chart)
	if err != nil {
		return fmt.Errorf("postgres: encode chart for %s: %w", m.ID, err)
	}

	const query = `
		INSERT INTO markets (
			id, title, description, category, image_url,
			yes_price, no_price, volume, liquidity, end_date,
			is_hot, status, resolution, chart, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, NULLIF($13, ''), $14, $15, $16
		)`

	_, err = s.pool.Exec(ctx, query,
		m.ID, m.Title, m.Description, string(m.Category), m.ImageURL,
		m.YesPrice, m.NoPrice, m.Volume, m.Liquidity, m.EndDate,
		m.Hot, string(m.Status), string(m.Resolution), chart, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create market %s: %w", m.ID, err)
	}
	return nil
}

// Update rewrites an existing market row.
func (s *MarketStore) Update(ctx context.Context, m domain.Market) error {
	chart, err := json.Marshal(m.Chart)
	if err != nil {
		return fmt.Errorf("postgres: encode chart for %s: %w", m.ID, err)
	}

	const query = `
		UPDATE markets SET
			title       = $2,
			description = $3,
			category    = $4,
			image_url   = $5,
			yes_price   = $6,
			no_price    = $7,
			volume      = $8,
			liquidity   = $9,
			end_date    = $10,
			is_hot      = $11,
			status      = $12,
			resolution  = NULLIF($13, ''),
			chart       = $14,
			updated_at  = $15
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query,
		m.ID, m.Title, m.Description, string(m.Category), m.ImageURL,
		m.YesPrice, m.NoPrice, m.Volume, m.Liquidity, m.EndDate,
		m.Hot, string(m.Status), string(m.Resolution), chart, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update market %s: %w", m.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID retrieves a market by its primary key.
func (s *MarketStore) GetByID(ctx context.Context, id string) (domain.Market, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+marketCols+` FROM markets WHERE id = $1`, id)
	m, err := scanMarket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("postgres: get market %s: %w", id, err)
	}
	return m, nil
}

// List returns markets ordered by creation time, oldest first.
func (s *MarketStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	query := `SELECT ` + marketCols + ` FROM markets WHERE 1=1`
	args := []any{}
	i := 1

	if opts.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", i)
		args = append(args, string(opts.Category))
		i++
	}
	if opts.OnlyOpen {
		query += fmt.Sprintf(" AND status = $%d", i)
		args = append(args, string(domain.MarketStatusOpen))
		i++
	}
	query += " ORDER BY created_at, id"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", i)
		args = append(args, opts.Limit)
		i++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", i)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list markets: %w", err)
	}
	defer rows.Close()

	var markets []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan market: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list markets: %w", err)
	}
	return markets, nil
}

// Delete removes a market. Unknown ids are a no-op.
func (s *MarketStore) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM markets WHERE id = $1`, id); err != nil {
		return fmt.Errorf("postgres: delete market %s: %w", id, err)
	}
	return nil
}

// Count returns the total number of markets.
func (s *MarketStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM markets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count markets: %w", err)
	}
	return n, nil
}

// scanMarket scans a single market row into a domain.Market.
func scanMarket(row pgx.Row) (domain.Market, error) {
	var (
		m          domain.Market
		category   string
		status     string
		resolution *string
		chart      []byte
	)
	err := row.Scan(
		&m.ID, &m.Title, &m.Description, &category, &m.ImageURL,
		&m.YesPrice, &m.NoPrice, &m.Volume, &m.Liquidity, &m.EndDate,
		&m.Hot, &status, &resolution, &chart, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return domain.Market{}, err
	}
	m.Category = domain.Category(category)
	m.Status = domain.MarketStatus(status)
	if resolution != nil {
		m.Resolution = domain.Outcome(*resolution)
	}
	if len(chart) > 0 {
		if err := json.Unmarshal(chart, &m.Chart); err != nil {
			return domain.Market{}, fmt.Errorf("decode chart: %w", err)
		}
	}
	return m, nil
}

var _ domain.MarketStore = (*MarketStore)(nil)
