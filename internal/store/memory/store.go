// Package memory provides in-memory implementations of the domain store
// interfaces. They back the storage = "memory" development mode and the
// pipeline tests; the semantics match the postgres implementations,
// including creation-timestamp preservation on upsert.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cryptolens/womtracker/internal/domain"
)

// TokenStore is a mutex-guarded map keyed by symbol. The single mutex
// gives single-writer-per-key discipline for free.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]domain.TrackedToken
}

// NewTokenStore creates an empty TokenStore.
func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: make(map[string]domain.TrackedToken)}
}

// Upsert inserts or replaces tokens; an existing symbol keeps its
// CreatedAt. Tokens arriving with a zero CreatedAt are stamped now.
func (s *TokenStore) Upsert(_ context.Context, tokens []domain.TrackedToken) error {
	if len(tokens) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, t := range tokens {
		if existing, ok := s.tokens[t.Symbol]; ok {
			t.CreatedAt = existing.CreatedAt
		} else if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		s.tokens[t.Symbol] = t
	}
	return nil
}

// EvictExpired removes tokens created at or before now minus window.
func (s *TokenStore) EvictExpired(_ context.Context, now time.Time, window time.Duration) (int64, error) {
	cutoff := now.Add(-window)

	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted int64
	for sym, t := range s.tokens {
		if !t.CreatedAt.After(cutoff) {
			delete(s.tokens, sym)
			evicted++
		}
	}
	return evicted, nil
}

// GetAll returns a snapshot of all tracked tokens, sorted by symbol for
// deterministic iteration in tests. Callers must not rely on any order.
func (s *TokenStore) GetAll(_ context.Context) ([]domain.TrackedToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.TrackedToken, 0, len(s.tokens))
	for _, t := range s.tokens {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

// UpdateScore mutates only the score and post-count fields.
func (s *TokenStore) UpdateScore(_ context.Context, symbol string, score *float64, postCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[symbol]
	if !ok {
		return fmt.Errorf("memory: update score for %s: %w", symbol, domain.ErrNotFound)
	}
	t.WomScore = score
	t.PostCount = postCount
	s.tokens[symbol] = t
	return nil
}

var _ domain.TokenStore = (*TokenStore)(nil)

// PostStore is the in-memory counterpart of the posts table.
type PostStore struct {
	mu    sync.RWMutex
	posts map[string]domain.SocialPost
}

// NewPostStore creates an empty PostStore.
func NewPostStore() *PostStore {
	return &PostStore{posts: make(map[string]domain.SocialPost)}
}

// UpsertBatch stores posts keyed by ID.
func (s *PostStore) UpsertBatch(_ context.Context, posts []domain.SocialPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range posts {
		s.posts[p.ID] = p
	}
	return nil
}

// ListByToken returns stored posts for a symbol, newest first.
func (s *PostStore) ListByToken(_ context.Context, symbol string, limit int) ([]domain.SocialPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.SocialPost
	for _, p := range s.posts {
		if p.TokenSymbol == symbol {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountRecent returns the number of posts for symbol created within the
// trailing window.
func (s *PostStore) CountRecent(_ context.Context, symbol string, window time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-window)

	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, p := range s.posts {
		if p.TokenSymbol == symbol && p.CreatedAt.After(cutoff) {
			count++
		}
	}
	return count, nil
}

var _ domain.PostStore = (*PostStore)(nil)
