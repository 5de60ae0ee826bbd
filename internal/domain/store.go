package domain

import (
	"context"
	"time"
)

// TokenStore owns the TrackedToken lifecycle. Implementations must
// serialize writes to the same symbol; reads may run concurrently with
// writes and return eventually-consistent snapshots.
type TokenStore interface {
	// Upsert inserts each token or, when the symbol already exists,
	// replaces every field except CreatedAt. An empty batch is a no-op.
	Upsert(ctx context.Context, tokens []TrackedToken) error

	// EvictExpired deletes every token whose CreatedAt is at or before
	// now minus window and returns the number of rows removed. Zero
	// matches is not an error.
	EvictExpired(ctx context.Context, now time.Time, window time.Duration) (int64, error)

	// GetAll returns all tracked tokens in unspecified order.
	GetAll(ctx context.Context) ([]TrackedToken, error)

	// UpdateScore mutates only the score and post-count fields of an
	// existing token. A nil score persists as "no signal". Returns
	// ErrNotFound when the symbol is absent.
	UpdateScore(ctx context.Context, symbol string, score *float64, postCount int) error
}

// PostStore persists social posts for audit and the stored-posts API.
type PostStore interface {
	UpsertBatch(ctx context.Context, posts []SocialPost) error
	ListByToken(ctx context.Context, symbol string, limit int) ([]SocialPost, error)
	// CountRecent returns the number of stored posts for symbol created
	// within the trailing window.
	CountRecent(ctx context.Context, symbol string, window time.Duration) (int, error)
}

// TokenCache holds the latest token snapshot served to API clients.
type TokenCache interface {
	SetSnapshot(ctx context.Context, tokens []TrackedToken) error
	// GetSnapshot returns ErrNotFound when no snapshot is cached.
	GetSnapshot(ctx context.Context) ([]TrackedToken, error)
	Invalidate(ctx context.Context) error
}

// LockManager provides distributed locks used to serialize cycle starts
// across processes.
type LockManager interface {
	// Acquire obtains the lock for key with the given TTL and returns an
	// unlock function, or ErrLockHeld when another holder owns it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// SignalBus is a lightweight pub/sub fabric used to push token snapshots
// to connected dashboard clients.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe returns a channel that emits payloads until ctx is
	// cancelled, at which point it is closed.
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
