package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cryptolens/womtracker/internal/domain"
)

const snapshotKey = "tokens:snapshot"

// TokenCache implements domain.TokenCache with one JSON-serialized
// snapshot of the full tracked set. The pipeline refreshes it after
// every cycle; the API serves it so listing tokens avoids a store
// round-trip on every request.
type TokenCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTokenCache creates a TokenCache. A zero ttl keeps snapshots until
// the next refresh.
func NewTokenCache(c *Client, ttl time.Duration) *TokenCache {
	return &TokenCache{rdb: c.Underlying(), ttl: ttl}
}

// SetSnapshot replaces the cached snapshot wholesale.
func (tc *TokenCache) SetSnapshot(ctx context.Context, tokens []domain.TrackedToken) error {
	data, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("redis: marshal token snapshot: %w", err)
	}
	if err := tc.rdb.Set(ctx, snapshotKey, data, tc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set token snapshot: %w", err)
	}
	return nil
}

// GetSnapshot returns the cached snapshot, or domain.ErrNotFound when
// none exists.
func (tc *TokenCache) GetSnapshot(ctx context.Context) ([]domain.TrackedToken, error) {
	data, err := tc.rdb.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get token snapshot: %w", err)
	}

	var tokens []domain.TrackedToken
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("redis: unmarshal token snapshot: %w", err)
	}
	return tokens, nil
}

// Invalidate drops the cached snapshot.
func (tc *TokenCache) Invalidate(ctx context.Context) error {
	if err := tc.rdb.Del(ctx, snapshotKey).Err(); err != nil {
		return fmt.Errorf("redis: invalidate token snapshot: %w", err)
	}
	return nil
}

var _ domain.TokenCache = (*TokenCache)(nil)
