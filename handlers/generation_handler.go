package handlers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/quizfoundry/backend/models"
	"github.com/quizfoundry/backend/services"
	"github.com/quizfoundry/backend/utils"
	"gorm.io/datatypes"
)

const generationTimeout = 90 * time.Second

type GenerateQuizRequest struct {
	Topic              string `json:"topic" validate:"required,min=2,max=120,safetext"`
	Difficulty         string `json:"difficulty" validate:"required,oneof=easy medium hard"`
	QuestionCount      int    `json:"question_count" validate:"required,min=1,max=20"`
	OptionsPerQuestion int    `json:"options_per_question" validate:"omitempty,min=2,max=6"`
	Mode               string `json:"mode" validate:"required,oneof=express advanced"`
	Visibility         string `json:"visibility" validate:"omitempty,oneof=public private unlisted"`
	Title              string `json:"title" validate:"omitempty,max=200,safetext"`
}

type generationMeta struct {
	Topic              string    `json:"topic"`
	Difficulty         string    `json:"difficulty"`
	Mode               string    `json:"mode"`
	RequestedQuestions int       `json:"requested_questions"`
	GeneratedQuestions int       `json:"generated_questions"`
	OptionsPerQuestion int       `json:"options_per_question"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// GenerateQuiz asks the configured generator for a quiz. Express mode
// publishes the result immediately; advanced mode stores it as a draft for
// the owner to edit.
func GenerateQuiz(c *fiber.Ctx) error {
	userID, _ := currentUser(c)

	var req GenerateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c)
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}
	if req.OptionsPerQuestion == 0 {
		req.OptionsPerQuestion = services.DefaultOptionsPerQuestion
	}
	if Generator == nil {
		return serviceError(c, services.ErrGeneratorDisabled)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), generationTimeout)
	defer cancel()

	generated, err := Generator.Generate(ctx, services.GenerationRequest{
		Topic:              utils.SanitizeLine(req.Topic),
		Difficulty:         req.Difficulty,
		QuestionCount:      req.QuestionCount,
		OptionsPerQuestion: req.OptionsPerQuestion,
		Title:              utils.SanitizeLine(req.Title),
	})
	if err != nil {
		log.Printf("🔥 Quiz generation failed for user %s: %v", userID, err)
		return serviceError(c, err)
	}

	quiz := models.Quiz{
		ID:           uuid.New(),
		OwnerID:      userID,
		Title:        generated.Title,
		Description:  generated.Description,
		Topic:        utils.SanitizeLine(req.Topic),
		Difficulty:   req.Difficulty,
		Visibility:   defaultString(req.Visibility, models.VisibilityPrivate),
		Status:       models.QuizStatusDraft,
		AIGenerated:  true,
		CreationMode: req.Mode,
	}

	questions, err := services.BuildQuestions(quiz.ID, generated.Questions)
	if err != nil {
		return serviceError(c, err)
	}
	quiz.Questions = questions

	meta, err := json.Marshal(generationMeta{
		Topic:              quiz.Topic,
		Difficulty:         req.Difficulty,
		Mode:               req.Mode,
		RequestedQuestions: req.QuestionCount,
		GeneratedQuestions: len(questions),
		OptionsPerQuestion: req.OptionsPerQuestion,
		GeneratedAt:        time.Now().UTC(),
	})
	if err != nil {
		return serviceError(c, err)
	}
	quiz.GenerationMeta = datatypes.JSON(meta)

	if services.InitialStatus(req.Mode) == models.QuizStatusPublished {
		if err := publish(&quiz); err != nil {
			return serviceError(c, err)
		}
	}

	if err := saveQuiz(&quiz); err != nil {
		return serviceError(c, err)
	}
	if quiz.Status == models.QuizStatusPublished {
		go awardCreatorBadge(userID)
	}

	log.Printf("✅ Generated %s quiz %s with %d questions for user %s", req.Mode, quiz.ID, len(questions), userID)
	return c.Status(fiber.StatusCreated).JSON(quiz)
}
