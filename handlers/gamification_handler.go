package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/quizfoundry/backend/database"
	"github.com/quizfoundry/backend/models"
	"gorm.io/gorm"
)

const leaderboardSize = 10

type BadgeRequest struct {
	Name        string `json:"name" validate:"required,max=255,safetext"`
	Description string `json:"description" validate:"required,safetext"`
	IconURL     string `json:"icon_url" validate:"required,url,max=255"`
}

func CreateBadge(c *fiber.Ctx) error {
	var req BadgeRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c)
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	badge := models.Badge{
		Name:        req.Name,
		Description: req.Description,
		IconURL:     req.IconURL,
	}

	if err := database.DB.Create(&badge).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Badge already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create badge"})
	}

	return c.Status(fiber.StatusCreated).JSON(badge)
}

func ListBadges(c *fiber.Ctx) error {
	badges := []models.Badge{}
	if err := database.DB.Order("name asc").Find(&badges).Error; err != nil {
		return serviceError(c, err)
	}
	return c.JSON(badges)
}

func UpdateBadge(c *fiber.Ctx) error {
	badgeID, ok := paramUUID(c, "badgeId")
	if !ok {
		return invalidParam(c, "badgeId")
	}

	var badge models.Badge
	if err := database.DB.First(&badge, "id = ?", badgeID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Badge not found"})
	}

	var req BadgeRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c)
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	badge.Name = req.Name
	badge.Description = req.Description
	badge.IconURL = req.IconURL
	if err := database.DB.Save(&badge).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update badge"})
	}

	return c.JSON(badge)
}

func DeleteBadge(c *fiber.Ctx) error {
	badgeID, ok := paramUUID(c, "badgeId")
	if !ok {
		return invalidParam(c, "badgeId")
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM user_badges WHERE badge_id = ?", badgeID).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Badge{}, "id = ?", badgeID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Badge not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete badge"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

type LeaderboardUser struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	XP        int       `json:"xp"`
	AvatarURL *string   `json:"avatar_url"`
}

func GetLeaderboard(c *fiber.Ctx) error {
	leaderboard := []LeaderboardUser{}

	err := database.DB.Model(&models.User{}).
		Select("id", "name", "xp", "avatar_url").
		Where("is_active = ?", true).
		Order("xp desc, created_at asc").
		Limit(leaderboardSize).
		Find(&leaderboard).Error

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve leaderboard"})
	}

	return c.JSON(leaderboard)
}

func ListMyCertificates(c *fiber.Ctx) error {
	userID, _ := currentUser(c)

	certificates := []models.Certificate{}
	if err := database.DB.Where("user_id = ?", userID).Order("issued_at desc").Find(&certificates).Error; err != nil {
		return serviceError(c, err)
	}

	return c.JSON(certificates)
}

func GetMyBadges(c *fiber.Ctx) error {
	userID, _ := currentUser(c)

	var user models.User
	if err := database.DB.Preload("Badges").First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	if user.Badges == nil {
		return c.JSON([]*models.Badge{})
	}

	return c.JSON(user.Badges)
}
