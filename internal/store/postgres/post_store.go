package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cryptolens/womtracker/internal/domain"
)

// PostStore implements domain.PostStore using PostgreSQL.
type PostStore struct {
	pool *pgxpool.Pool
}

// NewPostStore creates a PostStore backed by the given pool.
func NewPostStore(pool *pgxpool.Pool) *PostStore {
	return &PostStore{pool: pool}
}

const upsertPostQuery = `
	INSERT INTO posts (
		id, token_symbol, text, follower_count, author_name,
		author_avatar, created_at, score, qualifies
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO UPDATE SET
		token_symbol   = EXCLUDED.token_symbol,
		text           = EXCLUDED.text,
		follower_count = EXCLUDED.follower_count,
		author_name    = EXCLUDED.author_name,
		author_avatar  = EXCLUDED.author_avatar,
		created_at     = EXCLUDED.created_at,
		score          = EXCLUDED.score,
		qualifies      = EXCLUDED.qualifies`

// UpsertBatch stores posts keyed by their feed ID. Non-qualifying posts
// are stored too; they are kept for audit and excluded from scoring by
// the qualifies flag, not by absence.
func (s *PostStore) UpsertBatch(ctx context.Context, posts []domain.SocialPost) error {
	if len(posts) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range posts {
		var createdAt *time.Time
		if !p.CreatedAt.IsZero() {
			createdAt = &p.CreatedAt
		}
		batch.Queue(upsertPostQuery,
			p.ID, p.TokenSymbol, p.Text, p.FollowerCount, p.AuthorName,
			p.AuthorAvatar, createdAt, p.Score, p.Qualifies,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range posts {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert post %s: %w", posts[i].ID, err)
		}
	}
	return nil
}

// ListByToken returns stored posts for a symbol, newest first.
func (s *PostStore) ListByToken(ctx context.Context, symbol string, limit int) ([]domain.SocialPost, error) {
	query := `
		SELECT id, token_symbol, text, follower_count, author_name,
		       author_avatar, created_at, score, qualifies
		FROM posts
		WHERE token_symbol = $1
		ORDER BY created_at DESC NULLS LAST`
	args := []any{symbol}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list posts for %s: %w", symbol, err)
	}
	defer rows.Close()

	var posts []domain.SocialPost
	for rows.Next() {
		var p domain.SocialPost
		var createdAt *time.Time
		if err := rows.Scan(
			&p.ID, &p.TokenSymbol, &p.Text, &p.FollowerCount, &p.AuthorName,
			&p.AuthorAvatar, &createdAt, &p.Score, &p.Qualifies,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan post: %w", err)
		}
		if createdAt != nil {
			p.CreatedAt = *createdAt
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list posts rows: %w", err)
	}
	return posts, nil
}

// CountRecent returns the number of posts for symbol created within the
// trailing window.
func (s *PostStore) CountRecent(ctx context.Context, symbol string, window time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-window)

	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM posts WHERE token_symbol = $1 AND created_at >= $2`,
		symbol, cutoff,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: count recent posts for %s: %w", symbol, err)
	}
	return count, nil
}

var _ domain.PostStore = (*PostStore)(nil)
