package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cryptolens/womtracker/internal/cache/redis"
	"github.com/cryptolens/womtracker/internal/config"
	"github.com/cryptolens/womtracker/internal/domain"
	"github.com/cryptolens/womtracker/internal/notify"
	"github.com/cryptolens/womtracker/internal/platform/apify"
	"github.com/cryptolens/womtracker/internal/platform/dexscreener"
	"github.com/cryptolens/womtracker/internal/sentiment"
	"github.com/cryptolens/womtracker/internal/store/memory"
	"github.com/cryptolens/womtracker/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Stores
	Tokens domain.TokenStore
	Posts  domain.PostStore

	// Redis-backed collaborators; nil when Redis is disabled.
	Cache domain.TokenCache
	Locks domain.LockManager
	Bus   domain.SignalBus

	// Feeds and scoring; nil in serve mode.
	Feed     *apify.DiscoveryFeed
	PostFeed *apify.PostFeed
	Scorer   *sentiment.Scorer

	// Direct token lookup for the search endpoint.
	Lookup *dexscreener.Client

	// Notifications
	Notifier *notify.Notifier
}

// runsPipeline returns true for modes that execute discovery/scoring cycles.
func runsPipeline(mode string) bool {
	switch strings.ToLower(mode) {
	case "track", "full":
		return true
	default:
		return false
	}
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Token/post storage ---
	switch strings.ToLower(cfg.Storage.Backend) {
	case "memory":
		deps.Tokens = memory.NewTokenStore()
		deps.Posts = memory.NewPostStore()
	default:
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.Tokens = postgres.NewTokenStore(pool)
		deps.Posts = postgres.NewPostStore(pool)
	}

	// --- Redis: snapshot cache, cycle lock, signal bus ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		// Snapshots stay useful slightly past one cycle interval so a
		// slow cycle does not leave the API cold.
		snapshotTTL := 2 * cfg.Pipeline.Interval.Duration
		if snapshotTTL <= 0 {
			snapshotTTL = time.Hour
		}
		deps.Cache = redis.NewTokenCache(redisClient, snapshotTTL)
		deps.Locks = redis.NewLockManager(redisClient)
		deps.Bus = redis.NewSignalBus(redisClient)
	}

	// --- Feeds and classifier (pipeline modes only) ---
	if runsPipeline(cfg.Mode) {
		apifyClient := apify.New(cfg.Apify.BaseURL, cfg.Apify.Token)
		deps.Feed = apify.NewDiscoveryFeed(apifyClient, apify.DiscoveryConfig{
			ActorID:      cfg.Apify.DiscoveryActor,
			Chain:        cfg.Discovery.Chain,
			FilterArgs:   cfg.Discovery.FilterArgs,
			PollInterval: cfg.Apify.PollInterval.Duration,
			MaxPollWait:  cfg.Apify.MaxPollWait.Duration,
		}, logger)
		deps.PostFeed = apify.NewPostFeed(apifyClient, apify.PostConfig{
			ActorID:      cfg.Apify.PostsActor,
			MaxItems:     cfg.Sentiment.MaxPosts,
			Language:     cfg.Sentiment.Language,
			PollInterval: cfg.Apify.PollInterval.Duration,
			MaxPollWait:  cfg.Apify.MaxPollWait.Duration,
		}, logger)

		classifier := sentiment.NewOpenAIClassifier(cfg.Sentiment.OpenAIAPIKey, cfg.Sentiment.Model)
		deps.Scorer = sentiment.NewScorer(classifier)
	}

	// --- Direct token lookup ---
	deps.Lookup = dexscreener.New(cfg.Discovery.DexBaseURL)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) > 0 {
		deps.Notifier = notify.NewNotifier(senders, logger)
	}

	return deps, cleanup, nil
}
