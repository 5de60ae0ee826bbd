// Package config defines the top-level configuration for the wom
// tracker and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by WOM_* environment variables.
type Config struct {
	Apify     ApifyConfig     `toml:"apify"`
	Discovery DiscoveryConfig `toml:"discovery"`
	Sentiment SentimentConfig `toml:"sentiment"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
	Storage   StorageConfig   `toml:"storage"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	Server    ServerConfig    `toml:"server"`
	Notify    NotifyConfig    `toml:"notify"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// ApifyConfig holds Apify API credentials and actor identifiers.
type ApifyConfig struct {
	BaseURL        string   `toml:"base_url"`
	Token          string   `toml:"token"`
	DiscoveryActor string   `toml:"discovery_actor"`
	PostsActor     string   `toml:"posts_actor"`
	PollInterval   duration `toml:"poll_interval"`
	MaxPollWait    duration `toml:"max_poll_wait"`
}

// DiscoveryConfig holds the candidate admission thresholds and the chain
// the discovery feed scrapes.
type DiscoveryConfig struct {
	Chain           string   `toml:"chain"`
	FilterArgs      []string `toml:"filter_args"`
	MaxAgeHours     float64  `toml:"max_age_hours"`
	MinMakerCount   int      `toml:"min_maker_count"`
	MinVolumeUSD    float64  `toml:"min_volume_usd"`
	MinLiquidityUSD float64  `toml:"min_liquidity_usd"`
	MinMarketCapUSD float64  `toml:"min_market_cap_usd"`
	DexBaseURL      string   `toml:"dex_base_url"`
}

// SentimentConfig holds classifier credentials and post-filter
// parameters.
type SentimentConfig struct {
	OpenAIAPIKey string `toml:"openai_api_key"`
	Model        string `toml:"model"`
	MinFollowers int    `toml:"min_followers"`
	MaxPosts     int    `toml:"max_posts"`
	Language     string `toml:"language"`
}

// PipelineConfig holds cycle scheduling parameters.
type PipelineConfig struct {
	Interval       duration `toml:"interval"`
	RetentionHours int      `toml:"retention_hours"`
	ScoreWorkers   int      `toml:"score_workers"`
	LockTTL        duration `toml:"lock_ttl"`
}

// StorageConfig selects the token/post store backend.
type StorageConfig struct {
	// Backend is "postgres" or "memory".
	Backend string `toml:"backend"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// ScheduleKey protects POST /api/cycle/trigger. Empty disables the
	// endpoint.
	ScheduleKey string `toml:"schedule_key"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string `toml:"telegram_token"`
	TelegramChatID    string `toml:"telegram_chat_id"`
	DiscordWebhookURL string `toml:"discord_webhook_url"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Apify: ApifyConfig{
			BaseURL:        "https://api.apify.com",
			DiscoveryActor: "crypto-scraper~dexscreener-scraper",
			PostsActor:     "apidojo~tweet-scraper",
			PollInterval:   duration{5 * time.Second},
			MaxPollWait:    duration{5 * time.Minute},
		},
		Discovery: DiscoveryConfig{
			Chain:         "solana",
			FilterArgs:    []string{"trendingScoreH6", "desc", "1"},
			MaxAgeHours:   24,
			MinMakerCount: 7000,
			DexBaseURL:    "https://api.dexscreener.com/tokens/v1",
		},
		Sentiment: SentimentConfig{
			Model:        "gpt-4o-mini",
			MinFollowers: 150,
			MaxPosts:     50,
			Language:     "en",
		},
		Pipeline: PipelineConfig{
			Interval:       duration{30 * time.Minute},
			RetentionHours: 24,
			ScoreWorkers:   4,
			LockTTL:        duration{15 * time.Minute},
		},
		Storage: StorageConfig{
			Backend: "postgres",
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "womtracker",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    true,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"serve": true,
	"track": true,
	"full":  true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validBackends enumerates the accepted values for Storage.Backend.
var validBackends = map[string]bool{
	"postgres": true,
	"memory":   true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: serve, track, full)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Apify — required whenever the pipeline runs.
	runsPipeline := c.Mode == "track" || c.Mode == "full"
	if runsPipeline {
		if c.Apify.Token == "" {
			errs = append(errs, "apify: token is required for mode "+c.Mode)
		}
		if c.Apify.DiscoveryActor == "" {
			errs = append(errs, "apify: discovery_actor must not be empty")
		}
		if c.Apify.PostsActor == "" {
			errs = append(errs, "apify: posts_actor must not be empty")
		}
		if c.Sentiment.OpenAIAPIKey == "" {
			errs = append(errs, "sentiment: openai_api_key is required for mode "+c.Mode)
		}
	}
	if c.Apify.BaseURL == "" {
		errs = append(errs, "apify: base_url must not be empty")
	}

	// Discovery
	if c.Discovery.Chain == "" {
		errs = append(errs, "discovery: chain must not be empty")
	}
	if c.Discovery.MaxAgeHours <= 0 {
		errs = append(errs, "discovery: max_age_hours must be > 0")
	}
	if c.Discovery.MinMakerCount < 0 {
		errs = append(errs, "discovery: min_maker_count must be >= 0")
	}

	// Sentiment
	if c.Sentiment.MinFollowers < 0 {
		errs = append(errs, "sentiment: min_followers must be >= 0")
	}
	if c.Sentiment.MaxPosts < 1 {
		errs = append(errs, "sentiment: max_posts must be >= 1")
	}

	// Pipeline
	if c.Pipeline.Interval.Duration < time.Minute {
		errs = append(errs, "pipeline: interval must be at least 1m")
	}
	if c.Pipeline.RetentionHours < 1 {
		errs = append(errs, "pipeline: retention_hours must be >= 1")
	}
	if c.Pipeline.ScoreWorkers < 1 {
		errs = append(errs, "pipeline: score_workers must be >= 1")
	}

	// Storage
	if !validBackends[strings.ToLower(c.Storage.Backend)] {
		errs = append(errs, fmt.Sprintf("storage: unknown backend %q (valid: postgres, memory)", c.Storage.Backend))
	}

	// Postgres — only when selected.
	if strings.ToLower(c.Storage.Backend) == "postgres" {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis — only when enabled.
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	// Notify — telegram needs both halves.
	tt := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
