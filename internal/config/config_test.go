package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"JWT_ACCESS_EXPIRY", "OPENAI_API_KEY", "OPENAI_KEY", "REDIS_ADDR", "STRIPE_SECRET_KEY", "GENERATE_RATE_LIMIT", "METRICS_TOKEN"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, 168*time.Hour, cfg.JWTRefreshExpiry)
	assert.Equal(t, "hook_session", cfg.SessionCookieName)
	assert.Equal(t, 60*time.Second, cfg.AITimeout)
	assert.Equal(t, 10, cfg.GenerateRateLimit)
	assert.False(t, cfg.RedisEnabled())
	assert.False(t, cfg.StripeEnabled())
	assert.Empty(t, cfg.MetricsToken)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_KEY", "legacy-key")
	t.Setenv("JWT_ACCESS_EXPIRY", "not-a-duration")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("GENERATE_RATE_LIMIT", "3")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("METRICS_TOKEN", "scrape-me")

	cfg := Load()
	assert.Equal(t, "legacy-key", cfg.OpenAIAPIKey)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessExpiry, "invalid durations fall back")
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 3, cfg.GenerateRateLimit)
	assert.True(t, cfg.RedisEnabled())
	assert.True(t, cfg.StripeEnabled())
	assert.Equal(t, "scrape-me", cfg.MetricsToken)
	assert.Contains(t, cfg.DSN(), "host=db")
	assert.Contains(t, cfg.DSN(), "password=secret")
	assert.Contains(t, cfg.DSN(), "TimeZone=UTC")
}
