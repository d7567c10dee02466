package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/quiz")
	t.Setenv("JWT_SECRET", "secret")

	s, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "8080", s.Port)
	assert.Equal(t, 15*time.Minute, s.AccessTokenTTL)
	assert.Equal(t, 720*time.Hour, s.RefreshTokenTTL)
	assert.Equal(t, "gpt-4o-mini", s.OpenAIModel)
	assert.Equal(t, 24*time.Hour, s.AttemptAbandonAfter)
	assert.False(t, s.IsProduction())
}

func TestParseMissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestParseRejectsInvertedTTLs(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/quiz")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ACCESS_TOKEN_TTL", "2h")
	t.Setenv("REFRESH_TOKEN_TTL", "1h")

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REFRESH_TOKEN_TTL")
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/quiz")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_ENV", "production")
	t.Setenv("AI_REQUESTS_PER_MINUTE", "5")

	s, err := Parse()
	require.NoError(t, err)
	assert.True(t, s.IsProduction())
	assert.Equal(t, 5, s.AIRequestsPerMinute)
}
