package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/quizfoundry/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseAccessToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 15*time.Minute, 24*time.Hour)
	userID, sessionID := uuid.New(), uuid.New()

	raw, expiresAt, err := issuer.IssueAccessToken(userID, models.RoleAdmin, sessionID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 2*time.Second)

	claims, err := issuer.ParseAccessToken(raw)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, sessionID, claims.SessionID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, expiresAt.Unix(), claims.ExpiresAt.Unix())
}

func TestParseAccessTokenRejects(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 15*time.Minute, 24*time.Hour)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenIssuer("other-secret", 15*time.Minute, 24*time.Hour)
		raw, _, err := other.IssueAccessToken(uuid.New(), models.RoleUser, uuid.New())
		require.NoError(t, err)

		_, err = issuer.ParseAccessToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past := NewTokenIssuer("test-secret", 15*time.Minute, 24*time.Hour)
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		raw, _, err := past.IssueAccessToken(uuid.New(), models.RoleUser, uuid.New())
		require.NoError(t, err)

		_, err = issuer.ParseAccessToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.ParseAccessToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing session id", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": uuid.NewString(),
			"role":    models.RoleUser,
			"exp":     time.Now().Add(time.Minute).Unix(),
		})
		raw, err := token.SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = issuer.ParseAccessToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestRefreshTokens(t *testing.T) {
	a, err := NewRefreshToken()
	require.NoError(t, err)
	b, err := NewRefreshToken()
	require.NoError(t, err)

	assert.Len(t, a, refreshTokenBytes*2)
	assert.NotEqual(t, a, b)

	assert.Len(t, HashRefreshToken(a), 64)
	assert.Equal(t, HashRefreshToken(a), HashRefreshToken(a))
	assert.NotEqual(t, HashRefreshToken(a), HashRefreshToken(b))
}

func TestPlanRefresh(t *testing.T) {
	now := time.Now()
	revoked := now.Add(-time.Minute)

	tests := []struct {
		name       string
		session    models.UserSession
		wantAction RefreshAction
		wantErr    error
	}{
		{"live", models.UserSession{RefreshExpiresAt: now.Add(time.Hour)}, RefreshRotate, nil},
		{"expired", models.UserSession{RefreshExpiresAt: now.Add(-time.Second)}, RefreshReject, ErrSessionExpired},
		{"expires exactly now", models.UserSession{RefreshExpiresAt: now}, RefreshReject, ErrSessionExpired},
		{"reused", models.UserSession{RefreshExpiresAt: now.Add(time.Hour), RevokedAt: &revoked}, RefreshRevokeAll, ErrRefreshTokenReused},
		{"reused after expiry", models.UserSession{RefreshExpiresAt: now.Add(-time.Hour), RevokedAt: &revoked}, RefreshRevokeAll, ErrRefreshTokenReused},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := PlanRefresh(tt.session, now)
			assert.Equal(t, tt.wantAction, action)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
