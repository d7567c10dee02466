package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validCompletion = `{
  "title": "Go Concurrency",
  "description": "Channels and goroutines",
  "questions": [
    {"text": "What keyword starts a goroutine?", "explanation": "go launches a goroutine.",
     "options": [{"text": "go", "is_correct": true}, {"text": "async"}, {"text": "spawn"}, {"text": "thread"}]},
    {"text": "Which statement waits on several channels?",
     "options": [{"text": "switch"}, {"text": "select", "is_correct": true}, {"text": "for"}, {"text": "wait"}]}
  ]
}`

func genRequest() GenerationRequest {
	return GenerationRequest{Topic: "Go concurrency", Difficulty: "medium", QuestionCount: 5, OptionsPerQuestion: 4}
}

func TestParseGeneratedQuiz(t *testing.T) {
	quiz, err := ParseGeneratedQuiz(validCompletion, genRequest())
	require.NoError(t, err)

	assert.Equal(t, "Go Concurrency", quiz.Title)
	assert.Equal(t, "Channels and goroutines", quiz.Description)
	require.Len(t, quiz.Questions, 2)
	assert.Equal(t, "go launches a goroutine.", quiz.Questions[0].Explanation)
	assert.True(t, quiz.Questions[1].Options[1].IsCorrect)
}

func TestParseGeneratedQuizHandlesFencesAndTitleOverride(t *testing.T) {
	req := genRequest()
	req.Title = "My own title"

	raw := "Sure! Here is your quiz:\n```json\n" + validCompletion + "\n```\n"
	quiz, err := ParseGeneratedQuiz(raw, req)
	require.NoError(t, err)
	assert.Equal(t, "My own title", quiz.Title)
	assert.Len(t, quiz.Questions, 2)
}

func TestParseGeneratedQuizDropsInvalidQuestions(t *testing.T) {
	raw := `{"title": "", "questions": [
	  {"text": "Two right answers", "options": [{"text": "a", "is_correct": true}, {"text": "b", "is_correct": true}]},
	  {"text": "", "options": [{"text": "a", "is_correct": true}, {"text": "b"}]},
	  {"text": "One option", "options": [{"text": "a", "is_correct": true}]},
	  {"text": "Indexed answer", "options": [{"text": "x"}, {"text": "y"}, {"text": "z"}], "correct_index": 2}
	]}`

	quiz, err := ParseGeneratedQuiz(raw, genRequest())
	require.NoError(t, err)
	assert.Equal(t, "Quiz: Go concurrency", quiz.Title)
	require.Len(t, quiz.Questions, 1)
	assert.Equal(t, "Indexed answer", quiz.Questions[0].Text)
	assert.True(t, quiz.Questions[0].Options[2].IsCorrect)
}

func TestParseGeneratedQuizTruncates(t *testing.T) {
	req := genRequest()
	req.QuestionCount = 1

	quiz, err := ParseGeneratedQuiz(validCompletion, req)
	require.NoError(t, err)
	assert.Len(t, quiz.Questions, 1)
}

func TestParseGeneratedQuizFailures(t *testing.T) {
	for name, raw := range map[string]string{
		"no json":      "I cannot help with that.",
		"broken json":  `{"questions": [}`,
		"no questions": `{"title": "x", "questions": []}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseGeneratedQuiz(raw, genRequest())
			assert.ErrorIs(t, err, ErrGenerationFailed)
		})
	}
}

func TestBuildGenerationPrompt(t *testing.T) {
	req := genRequest()
	req.Title = "Quick check"
	prompt := BuildGenerationPrompt(req)

	assert.Contains(t, prompt, "Topic: Go concurrency")
	assert.Contains(t, prompt, "Difficulty: medium")
	assert.Contains(t, prompt, "Number of questions: 5")
	assert.Contains(t, prompt, "Options per question: 4")
	assert.Contains(t, prompt, "Quiz title: Quick check")
}

func TestBackoffBounds(t *testing.T) {
	for attempt := 2; attempt <= 10; attempt++ {
		d := backoff(100*time.Millisecond, attempt)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, generationMaxDelay)
	}
}

func completionServer(t *testing.T, failures int, status int) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		if int(n) <= failures {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error": {"message": "upstream trouble", "type": "server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": validCompletion},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testGenerator(baseURL string) *OpenAIGenerator {
	g := NewOpenAIGenerator("test-key", "gpt-4o-mini", baseURL+"/", 6000)
	g.baseDelay = time.Millisecond
	return g
}

func TestOpenAIGeneratorRetriesServerErrors(t *testing.T) {
	srv, calls := completionServer(t, 2, http.StatusInternalServerError)

	quiz, err := testGenerator(srv.URL).Generate(context.Background(), genRequest())
	require.NoError(t, err)
	assert.Len(t, quiz.Questions, 2)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestOpenAIGeneratorGivesUp(t *testing.T) {
	srv, calls := completionServer(t, 10, http.StatusServiceUnavailable)

	_, err := testGenerator(srv.URL).Generate(context.Background(), genRequest())
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Equal(t, int32(generationAttempts), atomic.LoadInt32(calls))
}

func TestOpenAIGeneratorDoesNotRetryClientErrors(t *testing.T) {
	srv, calls := completionServer(t, 10, http.StatusBadRequest)

	_, err := testGenerator(srv.URL).Generate(context.Background(), genRequest())
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestOpenAIGeneratorHonoursContext(t *testing.T) {
	srv, _ := completionServer(t, 10, http.StatusInternalServerError)
	g := testGenerator(srv.URL)
	g.baseDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := g.Generate(ctx, genRequest())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
