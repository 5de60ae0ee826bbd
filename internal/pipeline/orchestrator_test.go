package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptolens/womtracker/internal/discovery"
	"github.com/cryptolens/womtracker/internal/domain"
	"github.com/cryptolens/womtracker/internal/notify"
	"github.com/cryptolens/womtracker/internal/sentiment"
	"github.com/cryptolens/womtracker/internal/store/memory"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeFeed struct {
	batches [][]domain.CandidateToken
	err     error
	calls   int
	block   chan struct{} // when non-nil, FetchCandidates waits on it
	parked  chan struct{} // when non-nil, receives before blocking on block
}

func (f *fakeFeed) FetchCandidates(ctx context.Context) ([]domain.CandidateToken, error) {
	if f.block != nil {
		if f.parked != nil {
			select {
			case f.parked <- struct{}{}:
			default:
			}
		}
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	idx := f.calls
	f.calls++
	if idx >= len(f.batches) {
		return nil, nil
	}
	return f.batches[idx], nil
}

type fakePosts struct {
	byTerm map[string][]domain.SocialPost
	errFor map[string]error
}

func (f *fakePosts) FetchPosts(_ context.Context, searchTerm string) ([]domain.SocialPost, error) {
	if err := f.errFor[searchTerm]; err != nil {
		return nil, err
	}
	// Copy so the orchestrator's in-place mutation never leaks between cycles.
	src := f.byTerm[searchTerm]
	out := make([]domain.SocialPost, len(src))
	copy(out, src)
	return out, nil
}

type fakeClassifier struct {
	byText map[string]sentiment.Classification
}

func (f *fakeClassifier) Classify(_ context.Context, text string) (sentiment.Classification, error) {
	if cl, ok := f.byText[text]; ok {
		return cl, nil
	}
	return sentiment.Classification{Neutral: 1}, nil
}

// flakyTokenStore fails the first getAllFailures GetAll calls, then
// delegates.
type flakyTokenStore struct {
	domain.TokenStore
	getAllFailures int
}

func (s *flakyTokenStore) GetAll(ctx context.Context) ([]domain.TrackedToken, error) {
	if s.getAllFailures > 0 {
		s.getAllFailures--
		return nil, errors.New("connection reset")
	}
	return s.TokenStore.GetAll(ctx)
}

type recordingSender struct {
	messages []string
}

func (r *recordingSender) Send(_ context.Context, _, message string) error {
	r.messages = append(r.messages, message)
	return nil
}

func (r *recordingSender) Name() string { return "recording" }

type fakeLocks struct {
	err      error
	acquired int
}

func (f *fakeLocks) Acquire(_ context.Context, _ string, _ time.Duration) (func(), error) {
	if f.err != nil {
		return nil, f.err
	}
	f.acquired++
	return func() {}, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func age(h float64) *float64 { return &h }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	return Config{
		Chain: "solana",
		Criteria: discovery.Criteria{
			MinMakerCount: 7000,
			MaxAgeHours:   24,
		},
		RetentionWindow: 24 * time.Hour,
		MinFollowers:    150,
		ScoreWorkers:    2,
	}
}

func newTestOrchestrator(t *testing.T, deps Deps) *Orchestrator {
	t.Helper()
	if deps.Scorer == nil {
		deps.Scorer = sentiment.NewScorer(&fakeClassifier{})
	}
	if deps.Posts == nil {
		deps.Posts = &fakePosts{}
	}
	return NewOrchestrator(deps, testConfig(), testLogger())
}

// ---------------------------------------------------------------------------
// Cycle flow
// ---------------------------------------------------------------------------

func TestRunCycleAdmitsAndDedupes(t *testing.T) {
	tokens := memory.NewTokenStore()
	feed := &fakeFeed{batches: [][]domain.CandidateToken{{
		{RawLabel: "Foo DLMM XYZ", AgeHours: age(3), MakerCount: 8000},
		{RawLabel: "Foo XYZ", AgeHours: age(5), MakerCount: 9500},      // dup; first seen wins
		{RawLabel: "Old ABC", AgeHours: age(30), MakerCount: 9000},     // too old
		{RawLabel: "Thin DEF", AgeHours: age(2), MakerCount: 100},      // too few makers
		{RawLabel: "NoAge GHI", AgeHours: nil, MakerCount: 9000},       // missing age
		{RawLabel: "justoneword", AgeHours: age(1), MakerCount: 9000},  // malformed label
	}}}

	o := newTestOrchestrator(t, Deps{Feed: feed, Tokens: tokens})
	res, err := o.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, res.Discovered)
	assert.Equal(t, 1, res.Admitted)

	stored, err := tokens.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "$XYZ", stored[0].Symbol)
	assert.Equal(t, 8000, stored[0].MakerCount)
}

func TestRunCyclePreservesCreatedAtAcrossCycles(t *testing.T) {
	ctx := context.Background()
	tokens := memory.NewTokenStore()
	feed := &fakeFeed{batches: [][]domain.CandidateToken{
		{{RawLabel: "Foo XYZ", AgeHours: age(3), MakerCount: 8000}},
		{{RawLabel: "Foo XYZ", AgeHours: age(9), MakerCount: 9500}},
	}}

	o := newTestOrchestrator(t, Deps{Feed: feed, Tokens: tokens})

	_, err := o.RunCycle(ctx)
	require.NoError(t, err)
	first, err := tokens.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	_, err = o.RunCycle(ctx)
	require.NoError(t, err)
	second, err := tokens.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, second, 1)

	assert.Equal(t, 9500, second[0].MakerCount, "later discovery replaces metrics")
	assert.True(t, second[0].CreatedAt.Equal(first[0].CreatedAt), "creation timestamp survives re-discovery")
}

func TestRunCycleEvictsExpiredTokens(t *testing.T) {
	ctx := context.Background()
	tokens := memory.NewTokenStore()
	require.NoError(t, tokens.Upsert(ctx, []domain.TrackedToken{
		{Symbol: "$OLD", CreatedAt: time.Now().UTC().Add(-25 * time.Hour)},
	}))

	feed := &fakeFeed{}
	o := newTestOrchestrator(t, Deps{Feed: feed, Tokens: tokens})
	res, err := o.RunCycle(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.Evicted)
	stored, err := tokens.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestRunCycleDiscoveryFailureFailsCycle(t *testing.T) {
	feed := &fakeFeed{err: errors.New("actor timed out")}
	o := newTestOrchestrator(t, Deps{Feed: feed, Tokens: memory.NewTokenStore()})

	_, err := o.RunCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discovery")
}

// ---------------------------------------------------------------------------
// Scoring
// ---------------------------------------------------------------------------

func TestRunCycleScoresTrackedTokens(t *testing.T) {
	ctx := context.Background()
	tokens := memory.NewTokenStore()
	postStore := memory.NewPostStore()

	feed := &fakeFeed{batches: [][]domain.CandidateToken{
		{{RawLabel: "Foo XYZ", AgeHours: age(3), MakerCount: 8000}},
	}}
	posts := &fakePosts{byTerm: map[string][]domain.SocialPost{
		"$XYZ": {
			{ID: "p1", Text: "this token is going to run hard", FollowerCount: 500, CreatedAt: time.Now().UTC()},
			{ID: "p2", Text: "solid accumulation pattern here", FollowerCount: 2000, CreatedAt: time.Now().UTC()},
			{ID: "p3", Text: "massive breakout incoming today", FollowerCount: 10, CreatedAt: time.Now().UTC()}, // below follower floor
		},
	}}
	classifier := &fakeClassifier{byText: map[string]sentiment.Classification{
		"this token is going to run hard": {Bullish: 0.9, Bearish: 0.1},
		"solid accumulation pattern here": {Bullish: 0.7, Bearish: 0.3},
		"massive breakout incoming today": {Bullish: 1.0},
	}}

	o := newTestOrchestrator(t, Deps{
		Feed:      feed,
		Posts:     posts,
		Scorer:    sentiment.NewScorer(classifier),
		Tokens:    tokens,
		PostStore: postStore,
	})

	res, err := o.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TokensProcessed)
	assert.Zero(t, res.TokensFailed)

	stored, err := tokens.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.NotNil(t, stored[0].WomScore)
	assert.InDelta(t, 0.80, *stored[0].WomScore, 1e-9)
	assert.Equal(t, 2, stored[0].PostCount, "post below the follower floor is excluded")

	// All three posts are persisted; only the qualifying two are flagged.
	persisted, err := postStore.ListByToken(ctx, "$XYZ", 0)
	require.NoError(t, err)
	require.Len(t, persisted, 3)
	qualifying := 0
	for _, p := range persisted {
		if p.Qualifies {
			qualifying++
			require.NotNil(t, p.Score)
		}
	}
	assert.Equal(t, 2, qualifying)
}

func TestRunCycleNoQualifyingPostsMeansNoSignal(t *testing.T) {
	ctx := context.Background()
	tokens := memory.NewTokenStore()
	feed := &fakeFeed{batches: [][]domain.CandidateToken{
		{{RawLabel: "Foo XYZ", AgeHours: age(3), MakerCount: 8000}},
	}}
	// Every post classifies fully neutral: no directional mass anywhere.
	posts := &fakePosts{byTerm: map[string][]domain.SocialPost{
		"$XYZ": {{ID: "p1", Text: "interesting chart shape today", FollowerCount: 500}},
	}}

	o := newTestOrchestrator(t, Deps{Feed: feed, Posts: posts, Tokens: tokens})
	res, err := o.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TokensProcessed)

	stored, err := tokens.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Nil(t, stored[0].WomScore, "absence of signal is stored as nil, not zero")
	assert.Zero(t, stored[0].PostCount)
}

func TestRunCycleIsolatesPerTokenFailures(t *testing.T) {
	ctx := context.Background()
	tokens := memory.NewTokenStore()
	require.NoError(t, tokens.Upsert(ctx, []domain.TrackedToken{
		{Symbol: "$AAA", CreatedAt: time.Now().UTC()},
		{Symbol: "$BBB", CreatedAt: time.Now().UTC()},
	}))

	feed := &fakeFeed{}
	posts := &fakePosts{
		byTerm: map[string][]domain.SocialPost{"$BBB": {}},
		errFor: map[string]error{"$AAA": errors.New("scraper run aborted")},
	}

	o := newTestOrchestrator(t, Deps{Feed: feed, Posts: posts, Tokens: tokens})
	res, err := o.RunCycle(ctx)
	require.NoError(t, err, "a per-token failure must not fail the cycle")
	assert.Equal(t, 1, res.TokensFailed)
	assert.Equal(t, 1, res.TokensProcessed)
}

// ---------------------------------------------------------------------------
// Notifications
// ---------------------------------------------------------------------------

func TestRunCycleNotifiesOnlyNewTokens(t *testing.T) {
	ctx := context.Background()
	tokens := memory.NewTokenStore()
	require.NoError(t, tokens.Upsert(ctx, []domain.TrackedToken{
		{Symbol: "$OLD", CreatedAt: time.Now().UTC()},
	}))

	feed := &fakeFeed{batches: [][]domain.CandidateToken{{
		{RawLabel: "Old OLD", AgeHours: age(2), MakerCount: 8000},
		{RawLabel: "New XYZ", AgeHours: age(3), MakerCount: 9000},
	}}}
	sender := &recordingSender{}

	o := newTestOrchestrator(t, Deps{
		Feed:     feed,
		Tokens:   tokens,
		Notifier: notify.NewNotifier([]notify.Sender{sender}, testLogger()),
	})
	_, err := o.RunCycle(ctx)
	require.NoError(t, err)

	require.Len(t, sender.messages, 1)
	assert.Equal(t, "$XYZ", sender.messages[0], "already tracked symbol is not re-announced")
}

func TestRunCycleSkipsAlertsWhenKnownReadFails(t *testing.T) {
	ctx := context.Background()
	tokens := &flakyTokenStore{TokenStore: memory.NewTokenStore(), getAllFailures: 1}
	require.NoError(t, tokens.Upsert(ctx, []domain.TrackedToken{
		{Symbol: "$OLD", CreatedAt: time.Now().UTC()},
	}))

	feed := &fakeFeed{batches: [][]domain.CandidateToken{{
		{RawLabel: "Old OLD", AgeHours: age(2), MakerCount: 8000},
	}}}
	sender := &recordingSender{}

	o := newTestOrchestrator(t, Deps{
		Feed:     feed,
		Tokens:   tokens,
		Notifier: notify.NewNotifier([]notify.Sender{sender}, testLogger()),
	})
	res, err := o.RunCycle(ctx)
	require.NoError(t, err, "a failed known-symbol read must not fail the cycle")
	assert.Equal(t, 1, res.TokensProcessed)
	assert.Empty(t, sender.messages, "alerts are suppressed rather than re-announcing every symbol")
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

func TestRunCycleLocalGuardRejectsConcurrentCycle(t *testing.T) {
	feed := &fakeFeed{block: make(chan struct{}), parked: make(chan struct{}, 1)}
	o := newTestOrchestrator(t, Deps{Feed: feed, Tokens: memory.NewTokenStore()})

	done := make(chan error, 1)
	go func() {
		_, err := o.RunCycle(context.Background())
		done <- err
	}()

	// Wait for the first cycle to park inside discovery.
	<-feed.parked
	require.Eventually(t, func() bool {
		_, err := o.RunCycle(context.Background())
		return errors.Is(err, domain.ErrCycleRunning)
	}, time.Second, 5*time.Millisecond)

	close(feed.block)
	require.NoError(t, <-done)
}

func TestRunCycleDistributedLockHeld(t *testing.T) {
	feed := &fakeFeed{}
	locks := &fakeLocks{err: domain.ErrLockHeld}
	o := newTestOrchestrator(t, Deps{Feed: feed, Tokens: memory.NewTokenStore(), Locks: locks})

	_, err := o.RunCycle(context.Background())
	assert.ErrorIs(t, err, domain.ErrCycleRunning)
}

func TestRunCycleAcquiresAndReleasesLock(t *testing.T) {
	feed := &fakeFeed{}
	locks := &fakeLocks{}
	o := newTestOrchestrator(t, Deps{Feed: feed, Tokens: memory.NewTokenStore(), Locks: locks})

	_, err := o.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, locks.acquired)
}
