package handlers

import (
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/quizfoundry/backend/database"
	"github.com/quizfoundry/backend/models"
	"github.com/quizfoundry/backend/services"
	"github.com/quizfoundry/backend/utils"
	"gorm.io/gorm"
)

type DashboardAnalyticsResponse struct {
	TotalUsers         int64                `json:"total_users"`
	ActiveUsers        int64                `json:"active_users"`
	TotalQuizzes       int64                `json:"total_quizzes"`
	PublishedQuizzes   int64                `json:"published_quizzes"`
	AIGeneratedQuizzes int64                `json:"ai_generated_quizzes"`
	AttemptsLast30Days int64                `json:"attempts_last_30_days"`
	AverageScore       float64              `json:"average_score"`
	RecentAttempts     []models.QuizAttempt `json:"recent_attempts"`
}

func GetDashboardAnalytics(c *fiber.Ctx) error {
	response := DashboardAnalyticsResponse{RecentAttempts: []models.QuizAttempt{}}

	database.DB.Model(&models.User{}).Count(&response.TotalUsers)
	database.DB.Model(&models.User{}).Where("is_active = ?", true).Count(&response.ActiveUsers)

	database.DB.Model(&models.Quiz{}).Count(&response.TotalQuizzes)
	database.DB.Model(&models.Quiz{}).Where("status = ?", models.QuizStatusPublished).Count(&response.PublishedQuizzes)
	database.DB.Model(&models.Quiz{}).Where("ai_generated = ?", true).Count(&response.AIGeneratedQuizzes)

	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	database.DB.Model(&models.QuizAttempt{}).Where("started_at > ?", thirtyDaysAgo).Count(&response.AttemptsLast30Days)

	database.DB.Model(&models.QuizAttempt{}).
		Where("status = ?", models.AttemptCompleted).
		Select("COALESCE(AVG(score), 0)").
		Row().Scan(&response.AverageScore)
	response.AverageScore = math.Round(response.AverageScore*100) / 100

	database.DB.
		Preload("User").
		Preload("Quiz", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("status = ?", models.AttemptCompleted).
		Order("completed_at desc").
		Limit(5).
		Find(&response.RecentAttempts)

	return c.JSON(response)
}

func GetAllUsers(c *fiber.Ctx) error {
	page := utils.ParsePagination(c.Query("page"), c.Query("limit"))
	search := strings.TrimSpace(c.Query("search"))

	users := []models.User{}
	var totalUsers int64

	query := database.DB.Model(&models.User{})
	if search != "" {
		searchTerm := "%" + search + "%"
		query = query.Where("name ILIKE ? OR email ILIKE ?", searchTerm, searchTerm)
	}

	if err := query.Session(&gorm.Session{}).Count(&totalUsers).Error; err != nil {
		return serviceError(c, err)
	}
	if err := query.Order("created_at desc").Offset(page.Offset).Limit(page.Limit).Find(&users).Error; err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{"data": users, "meta": pageMeta(page, totalUsers)})
}

// ToggleUserStatus activates or deactivates an account. Deactivation signs
// the user out everywhere.
func ToggleUserStatus(c *fiber.Ctx) error {
	userID, ok := paramUUID(c, "userId")
	if !ok {
		return invalidParam(c, "userId")
	}
	adminID, _ := currentUser(c)

	type Request struct {
		IsActive *bool `json:"is_active" validate:"required"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c)
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}
	if userID == adminID && !*req.IsActive {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You cannot deactivate your own account"})
	}

	result := database.DB.Model(&models.User{}).Where("id = ?", userID).Update("is_active", *req.IsActive)
	if result.Error != nil {
		return serviceError(c, result.Error)
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	if !*req.IsActive {
		if err := services.RevokeAllSessions(database.DB, userID); err != nil {
			return serviceError(c, err)
		}
	}

	return c.JSON(fiber.Map{"message": "User status updated successfully."})
}
