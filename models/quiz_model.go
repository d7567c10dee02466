package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"

	VisibilityPublic   = "public"
	VisibilityPrivate  = "private"
	VisibilityUnlisted = "unlisted"

	QuizStatusDraft     = "draft"
	QuizStatusPublished = "published"

	CreationModeManual   = "manual"
	CreationModeExpress  = "express"
	CreationModeAdvanced = "advanced"
)

type Quiz struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OwnerID      uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Title        string    `gorm:"size:200;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	Topic        string    `gorm:"size:120;index" json:"topic"`
	Difficulty   string    `gorm:"size:10;not null;default:'medium'" json:"difficulty"`
	Visibility   string    `gorm:"size:10;not null;default:'private'" json:"visibility"`
	Status       string    `gorm:"size:10;not null;default:'draft';index" json:"status"`
	AIGenerated  bool      `gorm:"not null;default:false" json:"ai_generated"`
	CreationMode string    `gorm:"size:10;not null;default:'manual'" json:"creation_mode"`
	ShareCode    string    `gorm:"size:8;uniqueIndex" json:"share_code"`

	// Parameters the quiz was generated from, kept for regeneration and audit.
	GenerationMeta datatypes.JSON `gorm:"type:jsonb" json:"generation_meta,omitempty"`

	Questions []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`

	PublishedAt *time.Time     `json:"published_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
