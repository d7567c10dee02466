package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/quizfoundry/backend/models"
	"github.com/quizfoundry/backend/utils"
)

const (
	MinOptionsPerQuestion = 2
	MaxOptionsPerQuestion = 6
	MaxQuestionsPerQuiz   = 50
)

type OptionInput struct {
	Text      string `json:"text" validate:"required,max=300,safetext"`
	IsCorrect bool   `json:"is_correct"`
}

type QuestionInput struct {
	Text        string        `json:"text" validate:"required,max=1000,safetext"`
	Explanation string        `json:"explanation" validate:"max=2000,safetext"`
	Options     []OptionInput `json:"options" validate:"required,min=2,max=6,dive"`
}

// BuildQuestions sanitises raw question input into persistable questions
// with fresh ids and contiguous positions.
func BuildQuestions(quizID uuid.UUID, inputs []QuestionInput) ([]models.Question, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyQuiz
	}
	if len(inputs) > MaxQuestionsPerQuiz {
		return nil, fmt.Errorf("%w: at most %d questions", ErrInvalidQuiz, MaxQuestionsPerQuiz)
	}

	questions := make([]models.Question, 0, len(inputs))
	for i, in := range inputs {
		q := models.Question{
			ID:          uuid.New(),
			QuizID:      quizID,
			Text:        utils.SanitizeInput(in.Text),
			Explanation: utils.SanitizeInput(in.Explanation),
			Position:    i,
		}
		for j, opt := range in.Options {
			q.Options = append(q.Options, models.Option{
				ID:         uuid.New(),
				QuestionID: q.ID,
				Text:       utils.SanitizeInput(opt.Text),
				IsCorrect:  opt.IsCorrect,
				Position:   j,
			})
		}
		if err := ValidateQuestion(q); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// ValidateQuestion checks a single question: non-empty text, 2-6 distinct
// non-empty options and exactly one correct option.
func ValidateQuestion(q models.Question) error {
	if q.Text == "" {
		return fmt.Errorf("%w: question text is empty", ErrInvalidQuiz)
	}
	if len(q.Options) < MinOptionsPerQuestion || len(q.Options) > MaxOptionsPerQuestion {
		return fmt.Errorf("%w: questions need between %d and %d options", ErrInvalidQuiz, MinOptionsPerQuestion, MaxOptionsPerQuestion)
	}

	correct := 0
	seen := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		if opt.Text == "" {
			return fmt.Errorf("%w: option text is empty", ErrInvalidQuiz)
		}
		if _, dup := seen[opt.Text]; dup {
			return fmt.Errorf("%w: duplicate option %q", ErrInvalidQuiz, opt.Text)
		}
		seen[opt.Text] = struct{}{}
		if opt.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return fmt.Errorf("%w: questions need exactly one correct option, got %d", ErrInvalidQuiz, correct)
	}
	return nil
}

// ValidateForPublish checks every invariant a published quiz must hold.
func ValidateForPublish(quiz models.Quiz) error {
	if len(quiz.Questions) == 0 {
		return ErrEmptyQuiz
	}
	for i, q := range quiz.Questions {
		if err := ValidateQuestion(q); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return nil
}

// NormalizeOrder sorts questions and their options by position and
// re-indexes both from zero.
func NormalizeOrder(questions []models.Question) {
	sort.SliceStable(questions, func(i, j int) bool { return questions[i].Position < questions[j].Position })
	for i := range questions {
		questions[i].Position = i
		opts := questions[i].Options
		sort.SliceStable(opts, func(a, b int) bool { return opts[a].Position < opts[b].Position })
		for j := range opts {
			opts[j].Position = j
		}
	}
}

// RequireOwner returns ErrForbidden unless userID owns the quiz.
func RequireOwner(quiz models.Quiz, userID uuid.UUID, action string) error {
	if !IsOwner(quiz, userID) {
		return fmt.Errorf("%w: only the owner can %s this quiz", ErrForbidden, action)
	}
	return nil
}

// RequireManager is RequireOwner that also lets admins through.
func RequireManager(quiz models.Quiz, userID uuid.UUID, role, action string) error {
	if !CanManage(quiz, userID, role) {
		return fmt.Errorf("%w: only the owner can %s this quiz", ErrForbidden, action)
	}
	return nil
}

// CheckSubmittable decides whether userID may submit attempt. Attempts of
// other users are reported as missing.
func CheckSubmittable(attempt models.QuizAttempt, userID uuid.UUID) error {
	if attempt.UserID != userID {
		return ErrNotFound
	}
	switch attempt.Status {
	case models.AttemptCompleted:
		return ErrAlreadySubmitted
	case models.AttemptAbandoned:
		return ErrAttemptAbandoned
	case models.AttemptInProgress:
		return nil
	}
	return fmt.Errorf("attempt %s has unknown status %q", attempt.ID, attempt.Status)
}

// InitialStatus is the status a newly generated quiz is saved with. Express
// generation publishes straight away; advanced generation leaves a draft.
func InitialStatus(mode string) string {
	if mode == models.CreationModeExpress {
		return models.QuizStatusPublished
	}
	return models.QuizStatusDraft
}

func IsOwner(quiz models.Quiz, userID uuid.UUID) bool {
	return userID != uuid.Nil && quiz.OwnerID == userID
}

// CanManage reports whether the caller may edit, delete or inspect analytics.
func CanManage(quiz models.Quiz, userID uuid.UUID, role string) bool {
	return IsOwner(quiz, userID) || role == models.RoleAdmin
}

// CanView applies visibility rules. viaShareCode is true when the caller
// reached the quiz through its share link.
func CanView(quiz models.Quiz, userID uuid.UUID, role string, viaShareCode bool) bool {
	if CanManage(quiz, userID, role) {
		return true
	}
	if quiz.Status != models.QuizStatusPublished {
		return false
	}
	switch quiz.Visibility {
	case models.VisibilityPublic:
		return true
	case models.VisibilityUnlisted:
		return viaShareCode
	default:
		return false
	}
}

type TakerOption struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
}

type TakerQuestion struct {
	ID       uuid.UUID     `json:"id"`
	Text     string        `json:"text"`
	Position int           `json:"position"`
	Options  []TakerOption `json:"options"`
}

// QuizView is the quiz as shown to someone taking it: no correctness flags
// and no explanations.
type QuizView struct {
	ID            uuid.UUID       `json:"id"`
	OwnerID       uuid.UUID       `json:"owner_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Topic         string          `json:"topic"`
	Difficulty    string          `json:"difficulty"`
	Visibility    string          `json:"visibility"`
	AIGenerated   bool            `json:"ai_generated"`
	ShareCode     string          `json:"share_code,omitempty"`
	QuestionCount int             `json:"question_count"`
	Questions     []TakerQuestion `json:"questions"`
	PublishedAt   *time.Time      `json:"published_at"`
}

func TakerQuestions(questions []models.Question) []TakerQuestion {
	out := make([]TakerQuestion, len(questions))
	for i, q := range questions {
		opts := make([]TakerOption, len(q.Options))
		for j, o := range q.Options {
			opts[j] = TakerOption{ID: o.ID, Text: o.Text}
		}
		out[i] = TakerQuestion{ID: q.ID, Text: q.Text, Position: q.Position, Options: opts}
	}
	return out
}

func TakerView(quiz models.Quiz) QuizView {
	view := QuizView{
		ID:            quiz.ID,
		OwnerID:       quiz.OwnerID,
		Title:         quiz.Title,
		Description:   quiz.Description,
		Topic:         quiz.Topic,
		Difficulty:    quiz.Difficulty,
		Visibility:    quiz.Visibility,
		AIGenerated:   quiz.AIGenerated,
		QuestionCount: len(quiz.Questions),
		Questions:     TakerQuestions(quiz.Questions),
		PublishedAt:   quiz.PublishedAt,
	}
	if quiz.Visibility != models.VisibilityPrivate {
		view.ShareCode = quiz.ShareCode
	}
	return view
}
