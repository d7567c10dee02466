package models

import "github.com/google/uuid"

type Question struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	QuizID      uuid.UUID `gorm:"type:uuid;not null;index" json:"quiz_id"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	Explanation string    `gorm:"type:text" json:"explanation"`
	Position    int       `gorm:"not null" json:"position"`

	Options []Option `gorm:"foreignKey:QuestionID" json:"options"`
}

type Option struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index" json:"question_id"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	IsCorrect  bool      `gorm:"not null;default:false" json:"is_correct"`
	Position   int       `gorm:"not null" json:"position"`
}
