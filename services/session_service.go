package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/quizfoundry/backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionMeta struct {
	UserAgent string
	IPAddress string
}

// RefreshAction is what RotateSession does with a presented refresh token.
type RefreshAction int

const (
	RefreshRotate RefreshAction = iota
	RefreshReject
	// RefreshRevokeAll answers a token that was already rotated or revoked:
	// every live session of its owner is revoked.
	RefreshRevokeAll
)

// PlanRefresh decides how a stored session is handled at now. Reuse is
// checked before expiry so a stolen, expired token still trips revocation.
func PlanRefresh(session models.UserSession, now time.Time) (RefreshAction, error) {
	if session.RevokedAt != nil {
		return RefreshRevokeAll, ErrRefreshTokenReused
	}
	if !now.Before(session.RefreshExpiresAt) {
		return RefreshReject, ErrSessionExpired
	}
	return RefreshRotate, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// CreateSession persists a new session for user and returns its token pair.
func CreateSession(tx *gorm.DB, issuer *TokenIssuer, user models.User, meta SessionMeta) (*TokenPair, error) {
	refreshToken, err := NewRefreshToken()
	if err != nil {
		return nil, err
	}

	sessionID := uuid.New()
	accessToken, accessExpiresAt, err := issuer.IssueAccessToken(user.ID, user.Role, sessionID)
	if err != nil {
		return nil, err
	}

	session := models.UserSession{
		ID:               sessionID,
		UserID:           user.ID,
		RefreshTokenHash: HashRefreshToken(refreshToken),
		AccessExpiresAt:  accessExpiresAt,
		RefreshExpiresAt: issuer.now().Add(issuer.refreshTTL),
		UserAgent:        truncate(meta.UserAgent, 255),
		IPAddress:        truncate(meta.IPAddress, 64),
	}
	if err := tx.Create(&session).Error; err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		TokenType:        "Bearer",
		ExpiresAt:        accessExpiresAt,
		RefreshExpiresAt: session.RefreshExpiresAt,
	}, nil
}

// RotateSession exchanges a refresh token for a new pair. Presenting an
// already rotated token revokes every live session of its owner.
func RotateSession(db *gorm.DB, issuer *TokenIssuer, refreshToken string, meta SessionMeta) (*TokenPair, error) {
	hash := HashRefreshToken(refreshToken)
	now := issuer.now()

	var pair *TokenPair
	var reusedBy uuid.UUID
	err := db.Transaction(func(tx *gorm.DB) error {
		var session models.UserSession
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("refresh_token_hash = ?", hash).
			First(&session).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidRefreshToken
			}
			return err
		}

		switch action, err := PlanRefresh(session, now); action {
		case RefreshRevokeAll:
			reusedBy = session.UserID
			return revokeAll(tx, session.UserID, now)
		case RefreshReject:
			return err
		}

		var user models.User
		if err := tx.First(&user, "id = ?", session.UserID).Error; err != nil {
			return ErrInvalidRefreshToken
		}
		if !user.IsActive {
			return ErrAccountDisabled
		}

		session.RevokedAt = &now
		if err := tx.Save(&session).Error; err != nil {
			return err
		}

		var err error
		pair, err = CreateSession(tx, issuer, user, meta)
		return err
	})
	if err != nil {
		return nil, err
	}
	if reusedBy != uuid.Nil {
		log.Printf("⚠️ Refresh token reuse for user %s, all sessions revoked", reusedBy)
		return nil, ErrRefreshTokenReused
	}
	return pair, nil
}

// RevokeSession revokes the caller's session holding refreshToken.
func RevokeSession(db *gorm.DB, userID uuid.UUID, refreshToken string) error {
	result := db.Model(&models.UserSession{}).
		Where("user_id = ? AND refresh_token_hash = ? AND revoked_at IS NULL", userID, HashRefreshToken(refreshToken)).
		Update("revoked_at", time.Now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInvalidRefreshToken
	}
	return nil
}

func RevokeAllSessions(db *gorm.DB, userID uuid.UUID) error {
	return revokeAll(db, userID, time.Now())
}

func revokeAll(tx *gorm.DB, userID uuid.UUID, now time.Time) error {
	return tx.Model(&models.UserSession{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", now).Error
}

// SessionActive reports whether sessionID exists and has not been revoked.
func SessionActive(db *gorm.DB, sessionID string) bool {
	var count int64
	err := db.Model(&models.UserSession{}).
		Where("id = ? AND revoked_at IS NULL AND refresh_expires_at > ?", sessionID, time.Now()).
		Count(&count).Error
	return err == nil && count > 0
}
