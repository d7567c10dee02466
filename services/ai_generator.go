package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/quizfoundry/backend/models"
	"github.com/quizfoundry/backend/utils"
	"golang.org/x/time/rate"
)

const (
	MinGeneratedQuestions     = 1
	MaxGeneratedQuestions     = 20
	DefaultOptionsPerQuestion = 4

	generationAttempts  = 3
	generationBaseDelay = 500 * time.Millisecond
	generationMaxDelay  = 5 * time.Second
)

type GenerationRequest struct {
	Topic              string `json:"topic"`
	Difficulty         string `json:"difficulty"`
	QuestionCount      int    `json:"question_count"`
	OptionsPerQuestion int    `json:"options_per_question"`
	Title              string `json:"title,omitempty"`
}

type GeneratedQuiz struct {
	Title       string
	Description string
	Questions   []QuestionInput
}

// QuizGenerator produces quiz content for a topic.
type QuizGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (*GeneratedQuiz, error)
}

const generationSystemPrompt = `You write multiple-choice quizzes for learners.
Reply with one JSON object and no other text, using this shape:
{"title": string, "description": string, "questions": [
  {"text": string, "explanation": string,
   "options": [{"text": string, "is_correct": boolean}]}]}
Every question has exactly one option with "is_correct": true.
Options within a question must be distinct.`

// BuildGenerationPrompt renders the user message for a generation request.
func BuildGenerationPrompt(req GenerationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", req.Topic)
	fmt.Fprintf(&b, "Difficulty: %s\n", req.Difficulty)
	fmt.Fprintf(&b, "Number of questions: %d\n", req.QuestionCount)
	fmt.Fprintf(&b, "Options per question: %d\n", req.OptionsPerQuestion)
	if req.Title != "" {
		fmt.Fprintf(&b, "Quiz title: %s\n", req.Title)
	}
	b.WriteString("Include a one sentence explanation of the correct answer for each question.")
	return b.String()
}

type generatedPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Questions   []struct {
		Text        string `json:"text"`
		Explanation string `json:"explanation"`
		Options     []struct {
			Text      string `json:"text"`
			IsCorrect bool   `json:"is_correct"`
		} `json:"options"`
		CorrectIndex *int `json:"correct_index"`
	} `json:"questions"`
}

// ParseGeneratedQuiz decodes model output into quiz input. Markdown fences
// and prose around the JSON object are ignored. Questions that break quiz
// invariants are dropped; at most req.QuestionCount questions are kept.
func ParseGeneratedQuiz(raw string, req GenerationRequest) (*GeneratedQuiz, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: response contained no JSON object", ErrGenerationFailed)
	}

	var payload generatedPayload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrGenerationFailed, err)
	}

	out := &GeneratedQuiz{
		Title:       utils.SanitizeLine(req.Title),
		Description: utils.SanitizeInput(payload.Description),
	}
	if out.Title == "" {
		out.Title = utils.SanitizeLine(payload.Title)
	}
	if out.Title == "" {
		out.Title = "Quiz: " + utils.SanitizeLine(req.Topic)
	}

	for _, pq := range payload.Questions {
		if req.QuestionCount > 0 && len(out.Questions) == req.QuestionCount {
			break
		}

		in := QuestionInput{
			Text:        utils.SanitizeInput(pq.Text),
			Explanation: utils.SanitizeInput(pq.Explanation),
		}
		anyFlagged := false
		for _, o := range pq.Options {
			anyFlagged = anyFlagged || o.IsCorrect
			in.Options = append(in.Options, OptionInput{Text: utils.SanitizeInput(o.Text), IsCorrect: o.IsCorrect})
		}
		if !anyFlagged && pq.CorrectIndex != nil && *pq.CorrectIndex >= 0 && *pq.CorrectIndex < len(in.Options) {
			in.Options[*pq.CorrectIndex].IsCorrect = true
		}

		if err := ValidateQuestion(questionFromInput(in)); err != nil {
			log.Printf("Dropping generated question %q: %v", in.Text, err)
			continue
		}
		out.Questions = append(out.Questions, in)
	}

	if len(out.Questions) == 0 {
		return nil, fmt.Errorf("%w: no valid questions in response", ErrGenerationFailed)
	}
	return out, nil
}

func questionFromInput(in QuestionInput) models.Question {
	q := models.Question{Text: in.Text, Explanation: in.Explanation}
	for i, o := range in.Options {
		q.Options = append(q.Options, models.Option{Text: o.Text, IsCorrect: o.IsCorrect, Position: i})
	}
	return q
}

// OpenAIGenerator generates quizzes with the OpenAI chat completions API.
// Calls share a process wide token bucket and are retried with
// exponential backoff and full jitter.
type OpenAIGenerator struct {
	client      openai.Client
	model       string
	limiter     *rate.Limiter
	maxAttempts int
	baseDelay   time.Duration
}

func NewOpenAIGenerator(apiKey, model, baseURL string, requestsPerMinute int) *OpenAIGenerator {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	burst := requestsPerMinute / 4
	if burst < 1 {
		burst = 1
	}

	return &OpenAIGenerator{
		client:      openai.NewClient(opts...),
		model:       model,
		limiter:     rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), burst),
		maxAttempts: generationAttempts,
		baseDelay:   generationBaseDelay,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req GenerationRequest) (*GeneratedQuiz, error) {
	prompt := BuildGenerationPrompt(req)

	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(backoff(g.baseDelay, attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		content, err := g.complete(ctx, prompt)
		if err != nil {
			if !isRetryable(err) {
				return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
			}
			log.Printf("Quiz generation attempt %d/%d failed: %v", attempt, g.maxAttempts, err)
			lastErr = err
			continue
		}

		quiz, err := ParseGeneratedQuiz(content, req)
		if err != nil {
			log.Printf("Quiz generation attempt %d/%d returned unusable output: %v", attempt, g.maxAttempts, err)
			lastErr = err
			continue
		}
		return quiz, nil
	}
	if errors.Is(lastErr, ErrGenerationFailed) {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, lastErr)
}

func (g *OpenAIGenerator) complete(ctx context.Context, prompt string) (string, error) {
	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(generationSystemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return true
}

// backoff returns a full-jitter delay for the given 1-based attempt.
func backoff(base time.Duration, attempt int) time.Duration {
	d := base
	for i := 2; i < attempt; i++ {
		d *= 2
		if d >= generationMaxDelay {
			d = generationMaxDelay
			break
		}
	}
	return time.Duration(rand.Int63n(int64(d) + 1))
}
