// Package pipeline sequences the discovery, eviction, filtering,
// storage, and scoring stages into cycles. The Orchestrator is the only
// component that triggers store mutations and the failure boundary for
// everything below it: no feed, classifier, or store error escapes a
// cycle.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cryptolens/womtracker/internal/discovery"
	"github.com/cryptolens/womtracker/internal/domain"
	"github.com/cryptolens/womtracker/internal/notify"
	"github.com/cryptolens/womtracker/internal/sentiment"
)

// TokenChannel is the signal-bus channel carrying token snapshots after
// each completed cycle.
const TokenChannel = "tokens"

// cycleLockKey is the distributed lock serializing cycle starts across
// processes sharing one store.
const cycleLockKey = "pipeline:cycle"

// CandidateFetcher retrieves one discovery batch from the external feed.
type CandidateFetcher interface {
	FetchCandidates(ctx context.Context) ([]domain.CandidateToken, error)
}

// PostFetcher retrieves recent social posts for a search term.
type PostFetcher interface {
	FetchPosts(ctx context.Context, searchTerm string) ([]domain.SocialPost, error)
}

// Config holds the orchestration parameters for one pipeline instance.
type Config struct {
	Chain           string
	Criteria        discovery.Criteria
	RetentionWindow time.Duration
	MinFollowers    int
	ScoreWorkers    int
	LockTTL         time.Duration
}

// Deps bundles the collaborators injected into the Orchestrator. Feed,
// Posts, Scorer, and Tokens are required; the rest degrade gracefully
// when nil.
type Deps struct {
	Feed      CandidateFetcher
	Posts     PostFetcher
	Scorer    *sentiment.Scorer
	Tokens    domain.TokenStore
	PostStore domain.PostStore
	Cache     domain.TokenCache
	Locks     domain.LockManager
	Bus       domain.SignalBus
	Notifier  *notify.Notifier
}

// CycleResult reports what one cycle did.
type CycleResult struct {
	CycleID         string `json:"cycle_id"`
	Discovered      int    `json:"discovered"`
	Admitted        int    `json:"admitted"`
	Evicted         int64  `json:"evicted"`
	TokensProcessed int    `json:"tokens_processed"`
	TokensFailed    int    `json:"tokens_failed"`
}

// Orchestrator owns the cycle lifecycle. A local guard plus an optional
// distributed lock guarantee that two cycles never run concurrently
// against the same store.
type Orchestrator struct {
	deps    Deps
	cfg     Config
	running atomic.Bool
	logger  *slog.Logger
}

// NewOrchestrator creates an Orchestrator with the given collaborators.
func NewOrchestrator(deps Deps, cfg Config, logger *slog.Logger) *Orchestrator {
	if cfg.RetentionWindow <= 0 {
		cfg.RetentionWindow = 24 * time.Hour
	}
	if cfg.MinFollowers <= 0 {
		cfg.MinFollowers = sentiment.DefaultMinFollowers
	}
	if cfg.ScoreWorkers <= 0 {
		cfg.ScoreWorkers = 4
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 15 * time.Minute
	}
	return &Orchestrator{
		deps:   deps,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "pipeline")),
	}
}

// RunCycle executes one full cycle: discover, evict, filter, store,
// score. It returns domain.ErrCycleRunning when another cycle holds the
// guard. Completed sub-steps are retained on failure; every store
// operation is idempotent, so the next cycle safely re-runs from
// scratch.
func (o *Orchestrator) RunCycle(ctx context.Context) (CycleResult, error) {
	if !o.running.CompareAndSwap(false, true) {
		return CycleResult{}, domain.ErrCycleRunning
	}
	defer o.running.Store(false)

	if o.deps.Locks != nil {
		unlock, err := o.deps.Locks.Acquire(ctx, cycleLockKey, o.cfg.LockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrLockHeld) {
				return CycleResult{}, domain.ErrCycleRunning
			}
			return CycleResult{}, fmt.Errorf("acquire cycle lock: %w", err)
		}
		defer unlock()
	}

	res := CycleResult{CycleID: uuid.New().String()}
	logger := o.logger.With(slog.String("cycle_id", res.CycleID))
	start := time.Now()
	logger.InfoContext(ctx, "cycle started")

	// 1. Discovery: one logical job, bounded by the feed's poll limit.
	candidates, err := o.deps.Feed.FetchCandidates(ctx)
	if err != nil {
		return res, fmt.Errorf("discovery: %w", err)
	}
	res.Discovered = len(candidates)

	// 2. Eviction runs every cycle, independent of the batch contents.
	evicted, err := o.deps.Tokens.EvictExpired(ctx, time.Now().UTC(), o.cfg.RetentionWindow)
	if err != nil {
		return res, fmt.Errorf("eviction: %w", err)
	}
	res.Evicted = evicted

	// 3. Normalize, filter, dedup.
	admitted := make([]domain.CandidateToken, 0, len(candidates))
	for _, cand := range candidates {
		cand.Symbol = discovery.Normalize(cand.RawLabel)
		if o.cfg.Criteria.Admit(cand) {
			admitted = append(admitted, cand)
		}
	}
	admitted = discovery.Dedup(admitted)
	res.Admitted = len(admitted)

	// Symbols known before the upsert, to detect newly tracked tokens.
	// Without this set every upserted symbol would look new, so a failed
	// read suppresses alerts for the cycle instead of re-announcing.
	known := make(map[string]bool)
	knownOK := true
	if existing, err := o.deps.Tokens.GetAll(ctx); err != nil {
		knownOK = false
		logger.WarnContext(ctx, "known-symbol read failed, skipping new-token alerts",
			slog.String("error", err.Error()))
	} else {
		for _, t := range existing {
			known[t.Symbol] = true
		}
	}

	// 4. Upsert survivors.
	rows := make([]domain.TrackedToken, 0, len(admitted))
	for _, cand := range admitted {
		rows = append(rows, discovery.ToTracked(cand, o.cfg.Chain))
	}
	if err := o.deps.Tokens.Upsert(ctx, rows); err != nil {
		return res, fmt.Errorf("upsert: %w", err)
	}

	// 5. Score every currently tracked token, not just this batch.
	tracked, err := o.deps.Tokens.GetAll(ctx)
	if err != nil {
		return res, fmt.Errorf("list tracked: %w", err)
	}

	for _, sc := range o.scoreAll(ctx, tracked) {
		if sc.err != nil {
			res.TokensFailed++
			logger.ErrorContext(ctx, "token scoring failed",
				slog.String("symbol", sc.symbol),
				slog.String("error", sc.err.Error()),
			)
			continue
		}
		if err := o.deps.Tokens.UpdateScore(ctx, sc.symbol, sc.score, sc.postCount); err != nil {
			res.TokensFailed++
			logger.ErrorContext(ctx, "score write-back failed",
				slog.String("symbol", sc.symbol),
				slog.String("error", err.Error()),
			)
			continue
		}
		if o.deps.PostStore != nil && len(sc.posts) > 0 {
			if err := o.deps.PostStore.UpsertBatch(ctx, sc.posts); err != nil {
				logger.WarnContext(ctx, "post persistence failed",
					slog.String("symbol", sc.symbol),
					slog.String("error", err.Error()),
				)
			}
		}
		res.TokensProcessed++
	}

	o.publishSnapshot(ctx, logger)
	if knownOK {
		o.notifyNewTokens(ctx, rows, known)
	}

	logger.InfoContext(ctx, "cycle complete",
		slog.Int("discovered", res.Discovered),
		slog.Int("admitted", res.Admitted),
		slog.Int64("evicted", res.Evicted),
		slog.Int("processed", res.TokensProcessed),
		slog.Int("failed", res.TokensFailed),
		slog.Duration("duration", time.Since(start)),
	)
	return res, nil
}

// tokenScore is the outcome of scoring one tracked token.
type tokenScore struct {
	symbol    string
	score     *float64 // nil means no signal
	postCount int
	posts     []domain.SocialPost
	err       error
}

// scoreAll fans scoring out across a bounded worker pool. Results are
// collected here and written back sequentially by the caller so no two
// workers interleave writes to the same symbol.
func (o *Orchestrator) scoreAll(ctx context.Context, tracked []domain.TrackedToken) []tokenScore {
	results := make([]tokenScore, len(tracked))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.ScoreWorkers)
	for i, tok := range tracked {
		g.Go(func() error {
			results[i] = o.scoreToken(gctx, tok)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// scoreToken fetches and scores the recent posts of one token. A feed or
// classifier failure marks only this token as failed; the cycle
// continues for the others.
func (o *Orchestrator) scoreToken(ctx context.Context, tok domain.TrackedToken) tokenScore {
	res := tokenScore{symbol: tok.Symbol}

	posts, err := o.deps.Posts.FetchPosts(ctx, discovery.SearchTerm(tok.Symbol))
	if err != nil {
		res.err = fmt.Errorf("fetch posts: %w", err)
		return res
	}

	var values []float64
	for i := range posts {
		posts[i].TokenSymbol = tok.Symbol
		text := sentiment.Preprocess(posts[i].Text)
		if !sentiment.Qualifies(text, posts[i].FollowerCount, o.cfg.MinFollowers) {
			continue // stored for audit, excluded from aggregation
		}

		value, err := o.deps.Scorer.Bullishness(ctx, text)
		if err != nil {
			if errors.Is(err, domain.ErrNoSignal) {
				continue // no directional mass in this post
			}
			res.err = err
			return res
		}

		posts[i].Score = &value
		posts[i].Qualifies = true
		values = append(values, value)
	}

	res.posts = posts
	res.postCount = len(values)
	if score, ok := sentiment.Aggregate(values); ok {
		res.score = &score
	}
	return res
}

// publishSnapshot refreshes the cache and pushes the new snapshot on the
// signal bus. Both are best-effort; a cold cache only costs the API one
// store read.
func (o *Orchestrator) publishSnapshot(ctx context.Context, logger *slog.Logger) {
	if o.deps.Cache == nil && o.deps.Bus == nil {
		return
	}

	tokens, err := o.deps.Tokens.GetAll(ctx)
	if err != nil {
		logger.WarnContext(ctx, "snapshot refresh failed", slog.String("error", err.Error()))
		return
	}

	if o.deps.Cache != nil {
		if err := o.deps.Cache.SetSnapshot(ctx, tokens); err != nil {
			logger.WarnContext(ctx, "cache refresh failed", slog.String("error", err.Error()))
		}
	}
	if o.deps.Bus != nil {
		if payload, err := json.Marshal(tokens); err == nil {
			if err := o.deps.Bus.Publish(ctx, TokenChannel, payload); err != nil {
				logger.WarnContext(ctx, "snapshot publish failed", slog.String("error", err.Error()))
			}
		}
	}
}

// notifyNewTokens alerts operators about symbols that entered the
// tracked set this cycle.
func (o *Orchestrator) notifyNewTokens(ctx context.Context, rows []domain.TrackedToken, known map[string]bool) {
	if o.deps.Notifier == nil {
		return
	}

	var fresh []string
	for _, t := range rows {
		if !known[t.Symbol] {
			fresh = append(fresh, t.Symbol)
		}
	}
	if len(fresh) == 0 {
		return
	}

	title := fmt.Sprintf("%d new token(s) tracked", len(fresh))
	if err := o.deps.Notifier.Notify(ctx, title, strings.Join(fresh, ", ")); err != nil {
		o.logger.WarnContext(ctx, "new-token notification failed", slog.String("error", err.Error()))
	}
}

// RunLoop runs cycles on a fixed interval until the context is
// cancelled. The first cycle starts immediately. A receive on triggers
// runs an extra cycle between ticks; triggers may be nil.
func (o *Orchestrator) RunLoop(ctx context.Context, interval time.Duration, triggers <-chan struct{}) error {
	o.runOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("pipeline loop stopped")
			return ctx.Err()
		case <-ticker.C:
			o.runOnce(ctx)
		case <-triggers:
			o.logger.InfoContext(ctx, "cycle trigger received")
			o.runOnce(ctx)
		}
	}
}

// runOnce wraps RunCycle for the loop: failures are logged, never fatal,
// and a cycle still in flight just skips this tick.
func (o *Orchestrator) runOnce(ctx context.Context) {
	res, err := o.RunCycle(ctx)
	switch {
	case errors.Is(err, domain.ErrCycleRunning):
		o.logger.InfoContext(ctx, "cycle skipped, previous run still in progress")
	case err != nil:
		o.logger.ErrorContext(ctx, "cycle failed", slog.String("error", err.Error()))
	default:
		o.logger.InfoContext(ctx, "cycle finished",
			slog.Int("processed", res.TokensProcessed),
			slog.Int("failed", res.TokensFailed),
		)
	}
}
