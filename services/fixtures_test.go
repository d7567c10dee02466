package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/quizfoundry/backend/models"
)

// newQuiz builds a published quiz of n questions with three options each;
// the correct option is always the second one.
func newQuiz(n int) models.Quiz {
	quiz := models.Quiz{
		ID:         uuid.New(),
		OwnerID:    uuid.New(),
		Title:      "Go basics",
		Difficulty: models.DifficultyEasy,
		Visibility: models.VisibilityPublic,
		Status:     models.QuizStatusPublished,
	}
	for i := 0; i < n; i++ {
		q := models.Question{ID: uuid.New(), QuizID: quiz.ID, Text: fmt.Sprintf("Question %d", i+1), Position: i}
		for j := 0; j < 3; j++ {
			q.Options = append(q.Options, models.Option{
				ID:         uuid.New(),
				QuestionID: q.ID,
				Text:       fmt.Sprintf("Option %d", j+1),
				IsCorrect:  j == 1,
				Position:   j,
			})
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	return quiz
}

func pick(q models.Question, idx int) SubmittedAnswer {
	id := q.Options[idx].ID
	return SubmittedAnswer{QuestionID: q.ID, OptionID: &id}
}

func scorePtr(v float64) *float64 { return &v }
