package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/quizfoundry/backend/database"
	"github.com/quizfoundry/backend/models"
	"github.com/quizfoundry/backend/services"
	"github.com/quizfoundry/backend/utils"
	"gorm.io/gorm"
)

type UpdateProfileRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=2,max=100,safetext"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url,max=512"`
}

type OnboardingRequest struct {
	Name      string  `json:"name" validate:"required,min=2,max=100,safetext"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url,max=512"`
}

type ProfileStatsResponse struct {
	QuizzesCreated   int64           `json:"quizzes_created"`
	QuizzesPublished int64           `json:"quizzes_published"`
	XP               int             `json:"xp"`
	Badges           []*models.Badge `json:"badges"`
	services.UserStats
}

func GetProfile(c *fiber.Ctx) error {
	userID, _ := currentUser(c)

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(newUserResponse(user))
}

func UpdateProfile(c *fiber.Ctx) error {
	userID, _ := currentUser(c)

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c)
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	if req.Name != nil {
		user.Name = utils.SanitizeLine(*req.Name)
	}
	if req.AvatarURL != nil {
		user.AvatarURL = req.AvatarURL
	}

	if err := database.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}
	return c.JSON(newUserResponse(user))
}

// CompleteOnboarding records the post-signup setup. Repeating it only
// refreshes the submitted fields.
func CompleteOnboarding(c *fiber.Ctx) error {
	userID, _ := currentUser(c)

	var req OnboardingRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c)
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	user.Name = utils.SanitizeLine(req.Name)
	if req.AvatarURL != nil {
		user.AvatarURL = req.AvatarURL
	}
	user.OnboardingCompleted = true

	if err := database.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save onboarding"})
	}
	return c.JSON(newUserResponse(user))
}

func GetProfileStats(c *fiber.Ctx) error {
	userID, _ := currentUser(c)

	var user models.User
	if err := database.DB.Preload("Badges").First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	var attempts []models.QuizAttempt
	if err := database.DB.
		Preload("Quiz", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("user_id = ?", userID).
		Find(&attempts).Error; err != nil {
		return serviceError(c, err)
	}

	response := ProfileStatsResponse{
		XP:        user.XP,
		Badges:    user.Badges,
		UserStats: services.ComputeUserStats(attempts),
	}
	if response.Badges == nil {
		response.Badges = []*models.Badge{}
	}
	database.DB.Model(&models.Quiz{}).Where("owner_id = ?", userID).Count(&response.QuizzesCreated)
	database.DB.Model(&models.Quiz{}).
		Where("owner_id = ? AND status = ?", userID, models.QuizStatusPublished).
		Count(&response.QuizzesPublished)

	return c.JSON(response)
}
