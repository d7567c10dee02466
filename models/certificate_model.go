package models

import (
	"time"

	"github.com/google/uuid"
)

type Certificate struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	QuizID         uuid.UUID `gorm:"type:uuid;not null" json:"quiz_id"`
	AttemptID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"attempt_id"`
	QuizTitle      string    `gorm:"size:255;not null" json:"quiz_title"`
	IssuedAt       time.Time `gorm:"not null" json:"issued_at"`
	CertificateURL string    `gorm:"type:text;not null" json:"certificate_url"`
}
