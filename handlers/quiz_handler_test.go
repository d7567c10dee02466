package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/quizfoundry/backend/models"
	"github.com/quizfoundry/backend/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quizApp() *fiber.App {
	app := fiber.New()
	app.Get("/quizzes", ListPublicQuizzes)
	app.Post("/quizzes", CreateQuiz)
	app.Post("/quizzes/generate", GenerateQuiz)
	app.Get("/quizzes/:quizId", GetQuiz)
	app.Put("/quizzes/:quizId", UpdateQuiz)
	app.Post("/quizzes/:quizId/attempts", StartAttempt)
	app.Get("/quizzes/:quizId/analytics", GetQuizAnalytics)
	app.Post("/attempts/:attemptId/submit", SubmitAttempt)
	app.Get("/attempts/:attemptId", GetAttempt)
	return app
}

func TestInvalidIDParams(t *testing.T) {
	app := quizApp()

	cases := []struct {
		method, path string
	}{
		{http.MethodGet, "/quizzes/not-a-uuid"},
		{http.MethodPut, "/quizzes/not-a-uuid"},
		{http.MethodPost, "/quizzes/not-a-uuid/attempts"},
		{http.MethodGet, "/quizzes/not-a-uuid/analytics"},
		{http.MethodPost, "/attempts/123/submit"},
		{http.MethodGet, "/attempts/123"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			resp, body := doJSON(t, app, tc.method, tc.path, map[string]interface{}{})
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, body["error"], "Invalid")
		})
	}
}

func TestListPublicQuizzesRejectsUnknownDifficulty(t *testing.T) {
	resp, _ := doJSON(t, quizApp(), http.MethodGet, "/quizzes?difficulty=impossible", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCreateQuizValidation(t *testing.T) {
	app := quizApp()

	t.Run("no questions", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPost, "/quizzes", map[string]interface{}{
			"title":     "Capitals",
			"questions": []interface{}{},
		})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown visibility", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPost, "/quizzes", map[string]interface{}{
			"title":      "Capitals",
			"visibility": "friends",
			"questions":  []services.QuestionInput{validQuestion()},
		})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("question with two correct options", func(t *testing.T) {
		q := validQuestion()
		q.Options[1].IsCorrect = true
		resp, body := doJSON(t, app, http.MethodPost, "/quizzes", map[string]interface{}{
			"title":     "Capitals",
			"questions": []services.QuestionInput{q},
		})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body["error"], "exactly one correct option")
	})

	t.Run("question with one option", func(t *testing.T) {
		q := validQuestion()
		q.Options = q.Options[:1]
		resp, _ := doJSON(t, app, http.MethodPost, "/quizzes", map[string]interface{}{
			"title":     "Capitals",
			"questions": []services.QuestionInput{q},
		})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func validQuestion() services.QuestionInput {
	return services.QuestionInput{
		Text: "What is the capital of France?",
		Options: []services.OptionInput{
			{Text: "Paris", IsCorrect: true},
			{Text: "Lyon"},
			{Text: "Nice"},
		},
	}
}

type stubGenerator struct {
	quiz  *services.GeneratedQuiz
	err   error
	calls int
	last  services.GenerationRequest
}

func (s *stubGenerator) Generate(_ context.Context, req services.GenerationRequest) (*services.GeneratedQuiz, error) {
	s.calls++
	s.last = req
	return s.quiz, s.err
}

func generationBody() map[string]interface{} {
	return map[string]interface{}{
		"topic":          "Photosynthesis",
		"difficulty":     "easy",
		"question_count": 5,
		"mode":           "express",
	}
}

func TestGenerateQuizValidation(t *testing.T) {
	app := quizApp()

	cases := []struct {
		name  string
		patch map[string]interface{}
	}{
		{"too many questions", map[string]interface{}{"question_count": 21}},
		{"zero questions", map[string]interface{}{"question_count": 0}},
		{"too many options", map[string]interface{}{"options_per_question": 7}},
		{"too few options", map[string]interface{}{"options_per_question": 1}},
		{"unknown mode", map[string]interface{}{"mode": "turbo"}},
		{"unknown difficulty", map[string]interface{}{"difficulty": "legendary"}},
		{"missing topic", map[string]interface{}{"topic": ""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := generationBody()
			for k, v := range tc.patch {
				body[k] = v
			}
			resp, _ := doJSON(t, app, http.MethodPost, "/quizzes/generate", body)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestGenerateQuizWithoutGenerator(t *testing.T) {
	Generator = nil
	resp, _ := doJSON(t, quizApp(), http.MethodPost, "/quizzes/generate", generationBody())
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestGenerateQuizUpstreamFailure(t *testing.T) {
	stub := &stubGenerator{err: services.ErrGenerationFailed}
	Generator = stub
	t.Cleanup(func() { Generator = nil })

	resp, _ := doJSON(t, quizApp(), http.MethodPost, "/quizzes/generate", generationBody())
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, services.DefaultOptionsPerQuestion, stub.last.OptionsPerQuestion)
	assert.Equal(t, 5, stub.last.QuestionCount)
}

func TestSubmitAttemptRejectsMalformedAnswers(t *testing.T) {
	resp, _ := doJSON(t, quizApp(), http.MethodPost,
		"/attempts/6f1c2a9e-4c1d-4bb8-9d4e-2f0b8f1f6a10/submit",
		`{"answers":[{"question_id":"nope","option_id":null}]}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCreateQuizValidatesNestedQuestions(t *testing.T) {
	app := quizApp()

	cases := []struct {
		name   string
		mutate func(*services.QuestionInput)
	}{
		{"script in question", func(q *services.QuestionInput) { q.Text = "<script>alert(1)</script>" }},
		{"script in option", func(q *services.QuestionInput) { q.Options[0].Text = "javascript:alert(1)" }},
		{"empty option", func(q *services.QuestionInput) { q.Options[2].Text = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := validQuestion()
			tc.mutate(&q)
			resp, _ := doJSON(t, app, http.MethodPost, "/quizzes", map[string]interface{}{
				"title":     "Capitals",
				"questions": []services.QuestionInput{q},
			})
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		})
	}
}

// recordWrites swaps the persistence and reward hooks for recorders.
func recordWrites(t *testing.T) (*[]models.Quiz, chan uuid.UUID) {
	t.Helper()
	saved := &[]models.Quiz{}
	badges := make(chan uuid.UUID, 4)

	prevSave, prevAward := saveQuiz, awardCreatorBadge
	saveQuiz = func(q *models.Quiz) error {
		q.ShareCode = "ABCD2345"
		*saved = append(*saved, *q)
		return nil
	}
	awardCreatorBadge = func(userID uuid.UUID) { badges <- userID }
	t.Cleanup(func() { saveQuiz, awardCreatorBadge = prevSave, prevAward })
	return saved, badges
}

func TestGenerateQuizModes(t *testing.T) {
	userID := uuid.New()
	Generator = &stubGenerator{quiz: &services.GeneratedQuiz{
		Title:     "Photosynthesis basics",
		Questions: []services.QuestionInput{validQuestion(), validQuestion()},
	}}
	t.Cleanup(func() { Generator = nil })

	app := fiber.New()
	app.Post("/quizzes/generate", asUser(userID), GenerateQuiz)

	t.Run("express publishes", func(t *testing.T) {
		saved, badges := recordWrites(t)

		resp, body := doJSON(t, app, http.MethodPost, "/quizzes/generate", generationBody())
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		assert.Equal(t, models.QuizStatusPublished, body["status"])
		assert.NotNil(t, body["published_at"])
		assert.Equal(t, true, body["ai_generated"])
		assert.Equal(t, models.CreationModeExpress, body["creation_mode"])

		require.Len(t, *saved, 1)
		assert.Equal(t, userID, (*saved)[0].OwnerID)
		assert.Len(t, (*saved)[0].Questions, 2)
		select {
		case got := <-badges:
			assert.Equal(t, userID, got)
		case <-time.After(time.Second):
			t.Fatal("creator badge was not awarded")
		}
	})

	t.Run("advanced saves a draft", func(t *testing.T) {
		saved, badges := recordWrites(t)

		req := generationBody()
		req["mode"] = models.CreationModeAdvanced
		resp, body := doJSON(t, app, http.MethodPost, "/quizzes/generate", req)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		assert.Equal(t, models.QuizStatusDraft, body["status"])
		assert.Nil(t, body["published_at"])
		assert.Equal(t, models.CreationModeAdvanced, body["creation_mode"])

		require.Len(t, *saved, 1)
		assert.Equal(t, models.QuizStatusDraft, (*saved)[0].Status)
		assert.Nil(t, (*saved)[0].PublishedAt)
		assert.Empty(t, badges)
	})
}
