package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cryptolens/womtracker/internal/domain"
)

// TokenStore implements domain.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *pgxpool.Pool
}

// NewTokenStore creates a TokenStore backed by the given pool.
func NewTokenStore(pool *pgxpool.Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

const upsertTokenQuery = `
	INSERT INTO tokens (
		symbol, name, address, age_hours, volume_usd, maker_count,
		liquidity_usd, market_cap_usd, price_change_1h, dex_url,
		wom_score, post_count, created_at
	) VALUES (
		$1, $2, $3, $4, $5, $6,
		$7, $8, $9, $10,
		$11, $12, NOW()
	)
	ON CONFLICT (symbol) DO UPDATE SET
		name            = EXCLUDED.name,
		address         = EXCLUDED.address,
		age_hours       = EXCLUDED.age_hours,
		volume_usd      = EXCLUDED.volume_usd,
		maker_count     = EXCLUDED.maker_count,
		liquidity_usd   = EXCLUDED.liquidity_usd,
		market_cap_usd  = EXCLUDED.market_cap_usd,
		price_change_1h = EXCLUDED.price_change_1h,
		dex_url         = EXCLUDED.dex_url,
		wom_score       = EXCLUDED.wom_score,
		post_count      = EXCLUDED.post_count`

// Upsert inserts or replaces tokens in one batch. The conflict clause
// deliberately omits created_at: a re-discovered symbol keeps its
// original creation time so eviction stays anchored to first sighting.
func (s *TokenStore) Upsert(ctx context.Context, tokens []domain.TrackedToken) error {
	if len(tokens) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, t := range tokens {
		batch.Queue(upsertTokenQuery,
			t.Symbol, t.Name, t.Address, t.AgeHours, t.VolumeUSD, t.MakerCount,
			t.LiquidityUSD, t.MarketCapUSD, t.PriceChange1h, t.DexURL,
			t.WomScore, t.PostCount,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range tokens {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert token %s: %w", tokens[i].Symbol, err)
		}
	}
	return nil
}

// EvictExpired deletes tokens created at or before now minus window.
func (s *TokenStore) EvictExpired(ctx context.Context, now time.Time, window time.Duration) (int64, error) {
	cutoff := now.Add(-window)
	tag, err := s.pool.Exec(ctx, `DELETE FROM tokens WHERE created_at <= $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: evict expired tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

const tokenCols = `symbol, name, address, age_hours, volume_usd, maker_count,
	liquidity_usd, market_cap_usd, price_change_1h, dex_url,
	wom_score, post_count, created_at`

// GetAll returns every tracked token. Order is unspecified; callers sort
// if they need ranking.
func (s *TokenStore) GetAll(ctx context.Context) ([]domain.TrackedToken, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+tokenCols+` FROM tokens`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []domain.TrackedToken
	for rows.Next() {
		var t domain.TrackedToken
		if err := rows.Scan(
			&t.Symbol, &t.Name, &t.Address, &t.AgeHours, &t.VolumeUSD, &t.MakerCount,
			&t.LiquidityUSD, &t.MarketCapUSD, &t.PriceChange1h, &t.DexURL,
			&t.WomScore, &t.PostCount, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list tokens rows: %w", err)
	}
	return tokens, nil
}

// UpdateScore mutates only the score and post-count columns of an
// existing row.
func (s *TokenStore) UpdateScore(ctx context.Context, symbol string, score *float64, postCount int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tokens SET wom_score = $2, post_count = $3 WHERE symbol = $1`,
		symbol, score, postCount,
	)
	if err != nil {
		return fmt.Errorf("postgres: update score for %s: %w", symbol, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: update score for %s: %w", symbol, domain.ErrNotFound)
	}
	return nil
}

var _ domain.TokenStore = (*TokenStore)(nil)
