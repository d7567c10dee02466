package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	AttemptInProgress = "in_progress"
	AttemptCompleted  = "completed"
	AttemptAbandoned  = "abandoned"
)

type QuizAttempt struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	QuizID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"quiz_id"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Status         string     `gorm:"size:20;not null;default:'in_progress';index" json:"status"`
	StartedAt      time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	CorrectCount   int        `gorm:"not null;default:0" json:"correct_count"`
	TotalQuestions int        `gorm:"not null" json:"total_questions"`
	Score          *float64   `gorm:"type:numeric(5,2)" json:"score"`

	Answers []AttemptAnswer `gorm:"foreignKey:AttemptID" json:"answers,omitempty"`
	Quiz    *Quiz           `gorm:"foreignkey:QuizID" json:"quiz,omitempty"`
	User    *User           `gorm:"foreignkey:UserID" json:"user,omitempty"`
}
