package models

import (
	"time"

	"github.com/google/uuid"
)

// UserSession backs one refresh token. Only the SHA-256 of the token is stored.
type UserSession struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID           uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	RefreshTokenHash string     `gorm:"size:64;not null;uniqueIndex" json:"-"`
	AccessExpiresAt  time.Time  `gorm:"not null" json:"access_expires_at"`
	RefreshExpiresAt time.Time  `gorm:"not null;index" json:"refresh_expires_at"`
	RevokedAt        *time.Time `gorm:"index" json:"revoked_at"`
	UserAgent        string     `gorm:"size:255" json:"user_agent"`
	IPAddress        string     `gorm:"size:64" json:"ip_address"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
