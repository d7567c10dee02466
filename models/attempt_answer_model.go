package models

import "github.com/google/uuid"

type AttemptAnswer struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	AttemptID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"attempt_id"`
	QuestionID       uuid.UUID  `gorm:"type:uuid;not null" json:"question_id"`
	SelectedOptionID *uuid.UUID `gorm:"type:uuid" json:"selected_option_id"`
	IsCorrect        bool       `gorm:"not null" json:"is_correct"`
}
