package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
mode = "serve"
log_level = "debug"

[discovery]
chain = "base"
min_maker_count = 5000

[pipeline]
interval = "15m"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "serve", cfg.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "base", cfg.Discovery.Chain)
	assert.Equal(t, 5000, cfg.Discovery.MinMakerCount)
	assert.Equal(t, 15*time.Minute, cfg.Pipeline.Interval.Duration)

	// Untouched sections keep their defaults.
	assert.Equal(t, float64(24), cfg.Discovery.MaxAgeHours)
	assert.Equal(t, 150, cfg.Sentiment.MinFollowers)
	assert.Equal(t, "postgres", cfg.Storage.Backend)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := writeConfig(t, `mode = "serve"`)

	t.Setenv("WOM_APIFY_TOKEN", "tok-123")
	t.Setenv("WOM_STORAGE_BACKEND", "memory")
	t.Setenv("WOM_PIPELINE_SCORE_WORKERS", "8")
	t.Setenv("WOM_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tok-123", cfg.Apify.Token)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 8, cfg.Pipeline.ScoreWorkers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestValidateServeModeSkipsPipelineSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "serve"
	cfg.Storage.Backend = "memory"

	assert.NoError(t, cfg.Validate())
}

func TestValidateTrackModeRequiresSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "track"
	cfg.Storage.Backend = "memory"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apify: token")
	assert.Contains(t, err.Error(), "openai_api_key")
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "launch"
	cfg.Storage.Backend = "sqlite"
	cfg.Server.Port = 99999
	cfg.Notify.TelegramToken = "tok" // chat id missing

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "unknown backend")
	assert.Contains(t, err.Error(), "port must be")
	assert.Contains(t, err.Error(), "telegram_token and telegram_chat_id")
}

func TestRedactedConfigMasksSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Apify.Token = "apify-secret"
	cfg.Sentiment.OpenAIAPIKey = "sk-secret"
	cfg.Postgres.Password = "pg-secret"
	cfg.Notify.DiscordWebhookURL = "https://discord.example/hook"

	red := RedactedConfig(&cfg)
	assert.Equal(t, "***", red.Apify.Token)
	assert.Equal(t, "***", red.Sentiment.OpenAIAPIKey)
	assert.Equal(t, "***", red.Postgres.Password)
	assert.Equal(t, "***", red.Notify.DiscordWebhookURL)

	// The original is untouched.
	assert.Equal(t, "apify-secret", cfg.Apify.Token)
}
