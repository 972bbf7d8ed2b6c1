package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ACTION_TOKEN_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.VerifyEmailTTL)
	assert.Equal(t, time.Hour, cfg.PasswordResetTTL)
	assert.Equal(t, 5, cfg.AuthRateLimit)
	assert.Equal(t, time.Hour, cfg.AuthRateWindow)
	assert.Equal(t, "noop", cfg.Email.Provider)
	assert.Equal(t, devSecret, cfg.JWTSecret)
	assert.Equal(t, cfg.JWTSecret, cfg.ActionTokenSecret)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "jwt")
	t.Setenv("ACTION_TOKEN_SECRET", "action")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("AUTH_RATE_LIMIT", "10")
	t.Setenv("EMAIL_PROVIDER", "ses")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "jwt", cfg.JWTSecret)
	assert.Equal(t, "action", cfg.ActionTokenSecret)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 10, cfg.AuthRateLimit)
	assert.Equal(t, "ses", cfg.Email.Provider)
}

func TestLoad_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ACTION_TOKEN_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "jwt")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACTION_TOKEN_SECRET")

	t.Setenv("ACTION_TOKEN_SECRET", "action")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("ACCESS_TOKEN_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_RejectsNonPositiveRateLimit(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("AUTH_RATE_LIMIT", "0")

	_, err := Load()
	require.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}
