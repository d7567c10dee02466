package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreAttempt(t *testing.T) {
	quiz := newQuiz(4)
	qs := quiz.Questions

	tests := []struct {
		name        string
		answers     []SubmittedAnswer
		wantCorrect int
		wantScore   float64
	}{
		{"all correct", []SubmittedAnswer{pick(qs[0], 1), pick(qs[1], 1), pick(qs[2], 1), pick(qs[3], 1)}, 4, 100},
		{"half correct", []SubmittedAnswer{pick(qs[0], 1), pick(qs[1], 0), pick(qs[2], 1), pick(qs[3], 2)}, 2, 50},
		{"unanswered count as wrong", []SubmittedAnswer{pick(qs[0], 1)}, 1, 25},
		{"nothing answered", nil, 0, 0},
		{"explicit skip", []SubmittedAnswer{{QuestionID: qs[0].ID}}, 0, 0},
		{"last answer wins", []SubmittedAnswer{pick(qs[0], 0), pick(qs[0], 1)}, 1, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ScoreAttempt(qs, tt.answers)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCorrect, result.CorrectCount)
			assert.Equal(t, 4, result.TotalQuestions)
			assert.Equal(t, tt.wantScore, result.Score)
			require.Len(t, result.Results, 4)
			for i, r := range result.Results {
				assert.Equal(t, qs[i].ID, r.QuestionID, "results follow quiz order")
				assert.Equal(t, qs[i].Options[1].ID, r.CorrectOptionID)
			}
		})
	}
}

func TestScoreAttemptRejectsForeignIDs(t *testing.T) {
	quiz := newQuiz(2)
	other := newQuiz(1)

	_, err := ScoreAttempt(quiz.Questions, []SubmittedAnswer{pick(other.Questions[0], 0)})
	assert.ErrorIs(t, err, ErrUnknownQuestion)

	foreignOption := other.Questions[0].Options[0].ID
	_, err = ScoreAttempt(quiz.Questions, []SubmittedAnswer{{QuestionID: quiz.Questions[0].ID, OptionID: &foreignOption}})
	assert.ErrorIs(t, err, ErrUnknownOption)

	crossOption := quiz.Questions[1].Options[1].ID
	_, err = ScoreAttempt(quiz.Questions, []SubmittedAnswer{{QuestionID: quiz.Questions[0].ID, OptionID: &crossOption}})
	assert.ErrorIs(t, err, ErrUnknownOption)
}

func TestScoreAttemptEmptyQuiz(t *testing.T) {
	_, err := ScoreAttempt(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyQuiz)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, Percent(0, 0))
	assert.Equal(t, 33.33, Percent(1, 3))
	assert.Equal(t, 66.67, Percent(2, 3))
	assert.Equal(t, 100.0, Percent(7, 7))
}

func TestAnswerRecordsRoundTrip(t *testing.T) {
	quiz := newQuiz(3)
	answers := []SubmittedAnswer{pick(quiz.Questions[0], 1), pick(quiz.Questions[2], 0)}

	first, err := ScoreAttempt(quiz.Questions, answers)
	require.NoError(t, err)

	attemptID := uuid.New()
	records := AnswerRecords(attemptID, first)
	require.Len(t, records, 3)
	for _, r := range records {
		assert.Equal(t, attemptID, r.AttemptID)
		assert.NotEqual(t, uuid.Nil, r.ID)
	}
	assert.Nil(t, records[1].SelectedOptionID)

	regraded, err := ScoreAttempt(quiz.Questions, AnswersFromRecords(records))
	require.NoError(t, err)
	assert.Equal(t, first.CorrectCount, regraded.CorrectCount)
	assert.Equal(t, first.Score, regraded.Score)
}
