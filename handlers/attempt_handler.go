package handlers

import (
	"errors"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/quizfoundry/backend/database"
	"github.com/quizfoundry/backend/models"
	"github.com/quizfoundry/backend/services"
	"github.com/quizfoundry/backend/utils"
	"github.com/quizfoundry/backend/websocket"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerRequest struct {
	QuestionID uuid.UUID  `json:"question_id"`
	OptionID   *uuid.UUID `json:"option_id"`
}

type SubmitAttemptRequest struct {
	Answers []AnswerRequest `json:"answers" validate:"max=200"`
}

type StartAttemptResponse struct {
	AttemptID uuid.UUID        `json:"attempt_id"`
	StartedAt time.Time        `json:"started_at"`
	Quiz      services.QuizView `json:"quiz"`
}

type AttemptResultResponse struct {
	Attempt models.QuizAttempt        `json:"attempt"`
	Results []services.QuestionResult `json:"results,omitempty"`
}

// StartAttempt opens an attempt on a published quiz the caller can see.
// Unlisted quizzes need ?share_code=. With ?shuffle=true the options of
// every question come back in random order; ?shuffle_questions=true also
// reorders the questions.
func StartAttempt(c *fiber.Ctx) error {
	quizID, ok := paramUUID(c, "quizId")
	if !ok {
		return invalidParam(c, "quizId")
	}
	userID, role := currentUser(c)

	quiz, err := loadQuiz(database.DB, quizID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Quiz not found"})
	}
	viaShareCode := quiz.ShareCode != "" && strings.EqualFold(c.Query("share_code"), quiz.ShareCode)
	if !services.CanView(quiz, userID, role, viaShareCode) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Quiz not found"})
	}
	if quiz.Status != models.QuizStatusPublished {
		return serviceError(c, services.ErrQuizNotPublished)
	}
	if len(quiz.Questions) == 0 {
		return serviceError(c, services.ErrEmptyQuiz)
	}

	attempt := models.QuizAttempt{
		QuizID:         quiz.ID,
		UserID:         userID,
		Status:         models.AttemptInProgress,
		StartedAt:      time.Now(),
		TotalQuestions: len(quiz.Questions),
	}
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		// Keeps UpdateQuiz from replacing questions under a new attempt.
		if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Select("id").First(&models.Quiz{}, "id = ?", quiz.ID).Error; err != nil {
			return err
		}
		return tx.Create(&attempt).Error
	})
	if err != nil {
		return serviceError(c, err)
	}

	view := services.TakerView(quiz)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	if c.QueryBool("shuffle") {
		services.ShuffleOptions(view.Questions, rng)
	}
	if c.QueryBool("shuffle_questions") {
		services.ShuffleQuestions(view.Questions, rng)
	}

	return c.Status(fiber.StatusCreated).JSON(StartAttemptResponse{
		AttemptID: attempt.ID,
		StartedAt: attempt.StartedAt,
		Quiz:      view,
	})
}

// SubmitAttempt grades and closes an attempt. Rewards, certificates and the
// live feed are handled after the attempt is committed.
func SubmitAttempt(c *fiber.Ctx) error {
	attemptID, ok := paramUUID(c, "attemptId")
	if !ok {
		return invalidParam(c, "attemptId")
	}
	userID, _ := currentUser(c)

	var req SubmitAttemptRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c)
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	answers := make([]services.SubmittedAnswer, len(req.Answers))
	for i, a := range req.Answers {
		answers[i] = services.SubmittedAnswer{QuestionID: a.QuestionID, OptionID: a.OptionID}
	}

	var attempt models.QuizAttempt
	var quiz models.Quiz
	var result services.ScoreResult
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&attempt, "id = ?", attemptID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return services.ErrNotFound
			}
			return err
		}
		if err := services.CheckSubmittable(attempt, userID); err != nil {
			return err
		}

		var err error
		if quiz, err = loadQuiz(tx.Unscoped(), attempt.QuizID); err != nil {
			return err
		}
		if result, err = services.ScoreAttempt(quiz.Questions, answers); err != nil {
			return err
		}

		records := services.AnswerRecords(attempt.ID, result)
		if len(records) > 0 {
			if err := tx.Create(&records).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		score := result.Score
		attempt.Status = models.AttemptCompleted
		attempt.CompletedAt = &now
		attempt.CorrectCount = result.CorrectCount
		attempt.TotalQuestions = result.TotalQuestions
		attempt.Score = &score
		return tx.Model(&models.QuizAttempt{}).Where("id = ?", attempt.ID).Updates(map[string]interface{}{
			"status":          attempt.Status,
			"completed_at":    attempt.CompletedAt,
			"correct_count":   attempt.CorrectCount,
			"total_questions": attempt.TotalQuestions,
			"score":           attempt.Score,
		}).Error
	})
	if err != nil {
		return serviceError(c, err)
	}

	go services.AwardRewardsForAttempt(userID, result.CorrectCount, result.Score)

	var user models.User
	if err := database.DB.Select("id", "name").First(&user, "id = ?", userID).Error; err != nil {
		log.Printf("⚠️ Could not load user %s after submitting attempt %s: %v", userID, attempt.ID, err)
	} else if services.QualifiesForCertificate(attempt) {
		go services.CheckAndGenerateCertificate(attempt, quiz.Title, user)
	}
	websocket.Default.Publish(websocket.LiveEvent{
		Type:           websocket.EventAttemptCompleted,
		QuizID:         quiz.ID,
		AttemptID:      attempt.ID,
		UserID:         userID,
		UserName:       user.Name,
		Score:          result.Score,
		CorrectCount:   result.CorrectCount,
		TotalQuestions: result.TotalQuestions,
		CompletedAt:    *attempt.CompletedAt,
	})

	return c.JSON(AttemptResultResponse{Attempt: attempt, Results: result.Results})
}

// GetAttempt returns an attempt. Per-question correctness is only included
// once the attempt is completed.
func GetAttempt(c *fiber.Ctx) error {
	attemptID, ok := paramUUID(c, "attemptId")
	if !ok {
		return invalidParam(c, "attemptId")
	}
	userID, role := currentUser(c)

	var attempt models.QuizAttempt
	if err := database.DB.Preload("Answers").First(&attempt, "id = ?", attemptID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Attempt not found"})
	}
	if attempt.UserID != userID && role != models.RoleAdmin {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Attempt not found"})
	}

	response := AttemptResultResponse{Attempt: attempt}
	if attempt.Status == models.AttemptCompleted {
		quiz, err := loadQuiz(database.DB.Unscoped(), attempt.QuizID)
		if err != nil {
			return serviceError(c, err)
		}
		result, err := services.ScoreAttempt(quiz.Questions, services.AnswersFromRecords(attempt.Answers))
		if err != nil {
			return serviceError(c, err)
		}
		response.Results = result.Results
	}
	response.Attempt.Answers = nil

	return c.JSON(response)
}

func ListMyAttempts(c *fiber.Ctx) error {
	userID, _ := currentUser(c)
	page := utils.ParsePagination(c.Query("page"), c.Query("limit"))
	status := c.Query("status")

	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", userID)
		if status != "" {
			db = db.Where("status = ?", status)
		}
		return db
	}

	var total int64
	if err := database.DB.Model(&models.QuizAttempt{}).Scopes(filter).Count(&total).Error; err != nil {
		return serviceError(c, err)
	}

	attempts := []models.QuizAttempt{}
	if err := database.DB.
		Preload("Quiz", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped().Select("id", "title", "topic", "difficulty", "owner_id")
		}).
		Scopes(filter).
		Order("started_at desc").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&attempts).Error; err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{"data": attempts, "meta": pageMeta(page, total)})
}
