package services

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/quizfoundry/backend/models"
)

type SubmittedAnswer struct {
	QuestionID uuid.UUID
	OptionID   *uuid.UUID
}

type QuestionResult struct {
	QuestionID       uuid.UUID  `json:"question_id"`
	SelectedOptionID *uuid.UUID `json:"selected_option_id"`
	CorrectOptionID  uuid.UUID  `json:"correct_option_id"`
	IsCorrect        bool       `json:"is_correct"`
	Explanation      string     `json:"explanation,omitempty"`
}

type ScoreResult struct {
	CorrectCount   int              `json:"correct_count"`
	TotalQuestions int              `json:"total_questions"`
	Score          float64          `json:"score"`
	Results        []QuestionResult `json:"results"`
}

// ScoreAttempt grades answers against questions. Every question of the quiz
// appears in the result in quiz order; unanswered questions are incorrect.
// When a question is answered more than once the last answer wins.
func ScoreAttempt(questions []models.Question, answers []SubmittedAnswer) (ScoreResult, error) {
	if len(questions) == 0 {
		return ScoreResult{}, ErrEmptyQuiz
	}

	byQuestion := make(map[uuid.UUID]models.Question, len(questions))
	for _, q := range questions {
		byQuestion[q.ID] = q
	}

	selected := make(map[uuid.UUID]*uuid.UUID, len(answers))
	for _, a := range answers {
		q, ok := byQuestion[a.QuestionID]
		if !ok {
			return ScoreResult{}, fmt.Errorf("%w: %s", ErrUnknownQuestion, a.QuestionID)
		}
		if a.OptionID != nil && !hasOption(q, *a.OptionID) {
			return ScoreResult{}, fmt.Errorf("%w: %s", ErrUnknownOption, *a.OptionID)
		}
		selected[a.QuestionID] = a.OptionID
	}

	result := ScoreResult{
		TotalQuestions: len(questions),
		Results:        make([]QuestionResult, 0, len(questions)),
	}
	for _, q := range questions {
		correctID := correctOption(q)
		choice := selected[q.ID]
		isCorrect := choice != nil && *choice == correctID
		if isCorrect {
			result.CorrectCount++
		}
		result.Results = append(result.Results, QuestionResult{
			QuestionID:       q.ID,
			SelectedOptionID: choice,
			CorrectOptionID:  correctID,
			IsCorrect:        isCorrect,
			Explanation:      q.Explanation,
		})
	}
	result.Score = Percent(result.CorrectCount, result.TotalQuestions)
	return result, nil
}

// Percent returns part/total*100 rounded to two decimals, 0 when total is 0.
func Percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 100
}

func hasOption(q models.Question, optionID uuid.UUID) bool {
	for _, o := range q.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

func correctOption(q models.Question) uuid.UUID {
	for _, o := range q.Options {
		if o.IsCorrect {
			return o.ID
		}
	}
	return uuid.Nil
}

// AnswersFromRecords turns stored answers back into submissions so a
// completed attempt can be re-graded for its review page.
func AnswersFromRecords(records []models.AttemptAnswer) []SubmittedAnswer {
	out := make([]SubmittedAnswer, len(records))
	for i, r := range records {
		out[i] = SubmittedAnswer{QuestionID: r.QuestionID, OptionID: r.SelectedOptionID}
	}
	return out
}

// AnswerRecords converts a score result into rows for persistence.
func AnswerRecords(attemptID uuid.UUID, result ScoreResult) []models.AttemptAnswer {
	out := make([]models.AttemptAnswer, len(result.Results))
	for i, r := range result.Results {
		out[i] = models.AttemptAnswer{
			ID:               uuid.New(),
			AttemptID:        attemptID,
			QuestionID:       r.QuestionID,
			SelectedOptionID: r.SelectedOptionID,
			IsCorrect:        r.IsCorrect,
		}
	}
	return out
}
