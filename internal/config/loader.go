package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies WOM_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known WOM_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Apify ──
	setStr(&cfg.Apify.BaseURL, "WOM_APIFY_BASE_URL")
	setStr(&cfg.Apify.Token, "WOM_APIFY_TOKEN")
	setStr(&cfg.Apify.DiscoveryActor, "WOM_APIFY_DISCOVERY_ACTOR")
	setStr(&cfg.Apify.PostsActor, "WOM_APIFY_POSTS_ACTOR")
	setDuration(&cfg.Apify.PollInterval, "WOM_APIFY_POLL_INTERVAL")
	setDuration(&cfg.Apify.MaxPollWait, "WOM_APIFY_MAX_POLL_WAIT")

	// ── Discovery ──
	setStr(&cfg.Discovery.Chain, "WOM_DISCOVERY_CHAIN")
	setStringSlice(&cfg.Discovery.FilterArgs, "WOM_DISCOVERY_FILTER_ARGS")
	setFloat64(&cfg.Discovery.MaxAgeHours, "WOM_DISCOVERY_MAX_AGE_HOURS")
	setInt(&cfg.Discovery.MinMakerCount, "WOM_DISCOVERY_MIN_MAKER_COUNT")
	setFloat64(&cfg.Discovery.MinVolumeUSD, "WOM_DISCOVERY_MIN_VOLUME_USD")
	setFloat64(&cfg.Discovery.MinLiquidityUSD, "WOM_DISCOVERY_MIN_LIQUIDITY_USD")
	setFloat64(&cfg.Discovery.MinMarketCapUSD, "WOM_DISCOVERY_MIN_MARKET_CAP_USD")
	setStr(&cfg.Discovery.DexBaseURL, "WOM_DISCOVERY_DEX_BASE_URL")

	// ── Sentiment ──
	setStr(&cfg.Sentiment.OpenAIAPIKey, "WOM_SENTIMENT_OPENAI_API_KEY")
	setStr(&cfg.Sentiment.OpenAIAPIKey, "OPENAI_API_KEY") // compatibility alias
	setStr(&cfg.Sentiment.Model, "WOM_SENTIMENT_MODEL")
	setInt(&cfg.Sentiment.MinFollowers, "WOM_SENTIMENT_MIN_FOLLOWERS")
	setInt(&cfg.Sentiment.MaxPosts, "WOM_SENTIMENT_MAX_POSTS")
	setStr(&cfg.Sentiment.Language, "WOM_SENTIMENT_LANGUAGE")

	// ── Pipeline ──
	setDuration(&cfg.Pipeline.Interval, "WOM_PIPELINE_INTERVAL")
	setInt(&cfg.Pipeline.RetentionHours, "WOM_PIPELINE_RETENTION_HOURS")
	setInt(&cfg.Pipeline.ScoreWorkers, "WOM_PIPELINE_SCORE_WORKERS")
	setDuration(&cfg.Pipeline.LockTTL, "WOM_PIPELINE_LOCK_TTL")

	// ── Storage ──
	setStr(&cfg.Storage.Backend, "WOM_STORAGE_BACKEND")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "WOM_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, "WOM_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "WOM_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "WOM_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "WOM_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "WOM_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "WOM_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "WOM_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "WOM_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "WOM_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "WOM_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "WOM_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "WOM_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "WOM_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "WOM_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "WOM_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "WOM_REDIS_TLS_ENABLED")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "WOM_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "WOM_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "WOM_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.ScheduleKey, "WOM_SERVER_SCHEDULE_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "WOM_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "WOM_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "WOM_NOTIFY_DISCORD_WEBHOOK_URL")

	// ── Top-level ──
	setStr(&cfg.Mode, "WOM_MODE")
	setStr(&cfg.LogLevel, "WOM_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
