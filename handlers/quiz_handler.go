package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/quizfoundry/backend/database"
	"github.com/quizfoundry/backend/models"
	"github.com/quizfoundry/backend/services"
	"github.com/quizfoundry/backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuizRequest struct {
	Title       string                   `json:"title" validate:"required,min=3,max=200,safetext"`
	Description string                   `json:"description" validate:"max=2000,safetext"`
	Topic       string                   `json:"topic" validate:"max=120,safetext"`
	Difficulty  string                   `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Visibility  string                   `json:"visibility" validate:"omitempty,oneof=public private unlisted"`
	Questions   []services.QuestionInput `json:"questions" validate:"required,min=1,max=50,dive"`
	Publish     bool                     `json:"publish"`
}

// UpdateQuizRequest replaces metadata. Questions are replaced only when the
// field is present.
type UpdateQuizRequest struct {
	Title       string                   `json:"title" validate:"required,min=3,max=200,safetext"`
	Description string                   `json:"description" validate:"max=2000,safetext"`
	Topic       string                   `json:"topic" validate:"max=120,safetext"`
	Difficulty  string                   `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Visibility  string                   `json:"visibility" validate:"omitempty,oneof=public private unlisted"`
	Questions   []services.QuestionInput `json:"questions" validate:"omitempty,max=50,dive"`
}

// QuizSummary is a quiz listing row without its questions.
type QuizSummary struct {
	ID            uuid.UUID  `json:"id"`
	OwnerID       uuid.UUID  `json:"owner_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Topic         string     `json:"topic"`
	Difficulty    string     `json:"difficulty"`
	Visibility    string     `json:"visibility"`
	Status        string     `json:"status"`
	AIGenerated   bool       `json:"ai_generated"`
	CreationMode  string     `json:"creation_mode"`
	ShareCode     string     `json:"share_code,omitempty"`
	QuestionCount int        `json:"question_count"`
	PublishedAt   *time.Time `json:"published_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

const summaryColumns = "quizzes.*, (SELECT COUNT(*) FROM questions WHERE questions.quiz_id = quizzes.id) AS question_count"

func withOrderedQuestions(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") })
}

func loadQuiz(db *gorm.DB, quizID uuid.UUID) (models.Quiz, error) {
	var quiz models.Quiz
	if err := withOrderedQuestions(db).First(&quiz, "id = ?", quizID).Error; err != nil {
		return quiz, err
	}
	services.NormalizeOrder(quiz.Questions)
	return quiz, nil
}

// persistQuiz inserts a quiz with its questions and a fresh share code.
func persistQuiz(quiz *models.Quiz) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		code, err := utils.GenerateUniqueShareCode(tx)
		if err != nil {
			return err
		}
		quiz.ShareCode = code
		return tx.Create(quiz).Error
	})
}

func publish(quiz *models.Quiz) error {
	if err := services.ValidateForPublish(*quiz); err != nil {
		return err
	}
	now := time.Now()
	quiz.Status = models.QuizStatusPublished
	quiz.PublishedAt = &now
	return nil
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func CreateQuiz(c *fiber.Ctx) error {
	userID, _ := currentUser(c)

	var req QuizRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c)
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	quiz := models.Quiz{
		ID:           uuid.New(),
		OwnerID:      userID,
		Title:        utils.SanitizeLine(req.Title),
		Description:  utils.SanitizeInput(req.Description),
		Topic:        utils.SanitizeLine(req.Topic),
		Difficulty:   defaultString(req.Difficulty, models.DifficultyMedium),
		Visibility:   defaultString(req.Visibility, models.VisibilityPrivate),
		Status:       models.QuizStatusDraft,
		CreationMode: models.CreationModeManual,
	}

	questions, err := services.BuildQuestions(quiz.ID, req.Questions)
	if err != nil {
		return serviceError(c, err)
	}
	quiz.Questions = questions

	if req.Publish {
		if err := publish(&quiz); err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		}
	}

	if err := saveQuiz(&quiz); err != nil {
		return serviceError(c, err)
	}
	if quiz.Status == models.QuizStatusPublished {
		go awardCreatorBadge(userID)
	}

	return c.Status(fiber.StatusCreated).JSON(quiz)
}

func ListPublicQuizzes(c *fiber.Ctx) error {
	page := utils.ParsePagination(c.Query("page"), c.Query("limit"))
	search := strings.TrimSpace(c.Query("search"))
	difficulty := c.Query("difficulty")

	if difficulty != "" && difficulty != models.DifficultyEasy &&
		difficulty != models.DifficultyMedium && difficulty != models.DifficultyHard {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "difficulty must be one of easy, medium, hard"})
	}

	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Where("status = ? AND visibility = ?", models.QuizStatusPublished, models.VisibilityPublic)
		if search != "" {
			term := "%" + search + "%"
			db = db.Where("title ILIKE ? OR topic ILIKE ?", term, term)
		}
		if difficulty != "" {
			db = db.Where("difficulty = ?", difficulty)
		}
		return db
	}

	var total int64
	if err := database.DB.Model(&models.Quiz{}).Scopes(filter).Count(&total).Error; err != nil {
		return serviceError(c, err)
	}

	summaries := []QuizSummary{}
	if err := database.DB.Model(&models.Quiz{}).
		Scopes(filter).
		Select(summaryColumns).
		Order("published_at desc").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&summaries).Error; err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{"data": summaries, "meta": pageMeta(page, total)})
}

func ListMyQuizzes(c *fiber.Ctx) error {
	userID, _ := currentUser(c)
	page := utils.ParsePagination(c.Query("page"), c.Query("limit"))
	status := c.Query("status")

	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Where("owner_id = ?", userID)
		if status != "" {
			db = db.Where("status = ?", status)
		}
		return db
	}

	var total int64
	if err := database.DB.Model(&models.Quiz{}).Scopes(filter).Count(&total).Error; err != nil {
		return serviceError(c, err)
	}

	summaries := []QuizSummary{}
	if err := database.DB.Model(&models.Quiz{}).
		Scopes(filter).
		Select(summaryColumns).
		Order("created_at desc").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&summaries).Error; err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{"data": summaries, "meta": pageMeta(page, total)})
}

// quizResponse renders the owner view for managers and the taker view for
// everyone else.
func quizResponse(c *fiber.Ctx, quiz models.Quiz, userID uuid.UUID, role string) error {
	if services.CanManage(quiz, userID, role) {
		return c.JSON(quiz)
	}
	return c.JSON(services.TakerView(quiz))
}

func GetQuiz(c *fiber.Ctx) error {
	quizID, ok := paramUUID(c, "quizId")
	if !ok {
		return invalidParam(c, "quizId")
	}
	userID, role := currentUser(c)

	quiz, err := loadQuiz(database.DB, quizID)
	if err != nil || !services.CanView(quiz, userID, role, false) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Quiz not found"})
	}
	return quizResponse(c, quiz, userID, role)
}

func GetQuizByShareCode(c *fiber.Ctx) error {
	code := strings.ToUpper(strings.TrimSpace(c.Params("code")))
	userID, role := currentUser(c)

	var quiz models.Quiz
	err := withOrderedQuestions(database.DB).Where("share_code = ?", code).First(&quiz).Error
	if err != nil || !services.CanView(quiz, userID, role, true) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Quiz not found"})
	}
	services.NormalizeOrder(quiz.Questions)
	return quizResponse(c, quiz, userID, role)
}

func UpdateQuiz(c *fiber.Ctx) error {
	quizID, ok := paramUUID(c, "quizId")
	if !ok {
		return invalidParam(c, "quizId")
	}
	userID, _ := currentUser(c)

	var req UpdateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c)
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	quiz, err := loadQuiz(database.DB, quizID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Quiz not found"})
	}
	if err := services.RequireOwner(quiz, userID, "edit"); err != nil {
		return serviceError(c, err)
	}

	var questions []models.Question
	if req.Questions != nil {
		if questions, err = services.BuildQuestions(quiz.ID, req.Questions); err != nil {
			return serviceError(c, err)
		}
	}

	quiz.Title = utils.SanitizeLine(req.Title)
	quiz.Description = utils.SanitizeInput(req.Description)
	quiz.Topic = utils.SanitizeLine(req.Topic)
	quiz.Difficulty = defaultString(req.Difficulty, quiz.Difficulty)
	quiz.Visibility = defaultString(req.Visibility, quiz.Visibility)

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if questions != nil {
			// StartAttempt holds a share lock on the quiz row while it
			// inserts, so no attempt can appear between this count and the
			// replacement below.
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Select("id").First(&models.Quiz{}, "id = ?", quiz.ID).Error; err != nil {
				return err
			}
			var attempts int64
			if err := tx.Model(&models.QuizAttempt{}).Where("quiz_id = ?", quiz.ID).Count(&attempts).Error; err != nil {
				return err
			}
			if attempts > 0 {
				return services.ErrQuizHasAttempts
			}

			oldIDs := tx.Model(&models.Question{}).Select("id").Where("quiz_id = ?", quiz.ID)
			if err := tx.Where("question_id IN (?)", oldIDs).Delete(&models.Option{}).Error; err != nil {
				return err
			}
			if err := tx.Where("quiz_id = ?", quiz.ID).Delete(&models.Question{}).Error; err != nil {
				return err
			}
			if err := tx.Create(&questions).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Quiz{}).Where("id = ?", quiz.ID).Updates(map[string]interface{}{
			"title":       quiz.Title,
			"description": quiz.Description,
			"topic":       quiz.Topic,
			"difficulty":  quiz.Difficulty,
			"visibility":  quiz.Visibility,
		}).Error
	})
	if err != nil {
		return serviceError(c, err)
	}

	updated, err := loadQuiz(database.DB, quiz.ID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(updated)
}

func PublishQuiz(c *fiber.Ctx) error {
	quizID, ok := paramUUID(c, "quizId")
	if !ok {
		return invalidParam(c, "quizId")
	}
	userID, _ := currentUser(c)

	quiz, err := loadQuiz(database.DB, quizID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Quiz not found"})
	}
	if err := services.RequireOwner(quiz, userID, "publish"); err != nil {
		return serviceError(c, err)
	}
	if quiz.Status == models.QuizStatusPublished {
		return c.JSON(quiz)
	}

	if err := publish(&quiz); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	if err := database.DB.Model(&models.Quiz{}).Where("id = ?", quiz.ID).Updates(map[string]interface{}{
		"status":       quiz.Status,
		"published_at": quiz.PublishedAt,
	}).Error; err != nil {
		return serviceError(c, err)
	}

	go awardCreatorBadge(userID)
	return c.JSON(quiz)
}

// DeleteQuiz soft deletes so attempt history keeps resolving.
func DeleteQuiz(c *fiber.Ctx) error {
	quizID, ok := paramUUID(c, "quizId")
	if !ok {
		return invalidParam(c, "quizId")
	}
	userID, role := currentUser(c)

	var quiz models.Quiz
	if err := database.DB.First(&quiz, "id = ?", quizID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Quiz not found"})
	}
	if err := services.RequireManager(quiz, userID, role, "delete"); err != nil {
		return serviceError(c, err)
	}

	if err := database.DB.Delete(&quiz).Error; err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
