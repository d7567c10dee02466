package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	config "github.com/quizfoundry/backend/configs"
	"github.com/quizfoundry/backend/database"
	"github.com/quizfoundry/backend/models"
	"github.com/quizfoundry/backend/notifications"
	"github.com/quizfoundry/backend/services"
	"github.com/quizfoundry/backend/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const resetTokenTTL = 15 * time.Minute

type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100,safetext"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,strongpassword"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type UserResponse struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	Role                string    `json:"role"`
	AvatarURL           *string   `json:"avatar_url"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	XP                  int       `json:"xp"`
	CreatedAt           time.Time `json:"created_at"`
}

type AuthResponse struct {
	User UserResponse `json:"user"`
	services.TokenPair
}

func newUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:                  u.ID.String(),
		Name:                u.Name,
		Email:               u.Email,
		Role:                u.Role,
		AvatarURL:           u.AvatarURL,
		OnboardingCompleted: u.OnboardingCompleted,
		XP:                  u.XP,
		CreatedAt:           u.CreatedAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c)
	}
	req.Email = normalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}

	newUser := models.User{
		Name:     utils.SanitizeLine(req.Name),
		Email:    req.Email,
		Password: string(hashedPassword),
		Role:     models.RoleUser,
		IsActive: true,
	}

	var pair *services.TokenPair
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&newUser).Error; err != nil {
			return err
		}
		var err error
		pair, err = services.CreateSession(tx, tokenIssuer(), newUser, sessionMeta(c))
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already exists"})
		}
		log.Printf("🔥 Failed to create user %s: %v", req.Email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create user"})
	}

	subject, body := notifications.WelcomeEmail(newUser.Name)
	go notifications.SendEmail(newUser.Name, newUser.Email, subject, body)

	return c.Status(fiber.StatusCreated).JSON(AuthResponse{User: newUserResponse(newUser), TokenPair: *pair})
}

func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c)
	}
	req.Email = normalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	var user models.User
	if err := database.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}
	if !user.IsActive {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Account is disabled"})
	}

	pair, err := services.CreateSession(database.DB, tokenIssuer(), user, sessionMeta(c))
	if err != nil {
		log.Printf("🔥 Failed to create session for %s: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create session"})
	}

	return c.JSON(AuthResponse{User: newUserResponse(user), TokenPair: *pair})
}

func RefreshSession(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c)
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	pair, err := services.RotateSession(database.DB, tokenIssuer(), req.RefreshToken, sessionMeta(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(pair)
}

// Logout revokes the session holding the given refresh token, or every
// session of the caller when the body carries none.
func Logout(c *fiber.Ctx) error {
	userID, _ := currentUser(c)

	var req LogoutRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return bodyError(c)
		}
	}

	if req.RefreshToken == "" {
		if err := revokeAllSessions(userID); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Logged out of all sessions"})
	}

	if err := revokeSession(userID, req.RefreshToken); err != nil {
		if errors.Is(err, services.ErrInvalidRefreshToken) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown or already revoked refresh token"})
		}
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

func GetSession(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims, err := services.ClaimsFromMap(token.Claims.(jwt.MapClaims))
	if err != nil {
		return serviceError(c, err)
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", claims.UserID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	return c.JSON(fiber.Map{
		"session": fiber.Map{
			"id":         claims.SessionID,
			"role":       claims.Role,
			"expires_at": claims.ExpiresAt,
		},
		"user": newUserResponse(user),
	})
}

func ForgotPassword(c *fiber.Ctx) error {
	type Request struct {
		Email string `json:"email" validate:"required,email"`
	}
	const genericReply = "If an account with that email exists, a password reset link has been sent."

	var req Request
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c)
	}
	req.Email = normalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	var user models.User
	if err := database.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return c.JSON(fiber.Map{"message": genericReply})
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate reset token"})
	}
	token := hex.EncodeToString(tokenBytes)

	expiration := time.Now().Add(resetTokenTTL)
	user.ResetPasswordToken = &token
	user.ResetPasswordTokenExpiresAt = &expiration
	if err := database.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save reset token"})
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", config.Get().FrontendURL, token)
	subject, body := notifications.PasswordResetEmail(resetLink)
	go notifications.SendEmail(user.Name, user.Email, subject, body)

	return c.JSON(fiber.Map{"message": genericReply})
}

// ResetPassword sets a new password and signs the account out everywhere.
func ResetPassword(c *fiber.Ctx) error {
	type Request struct {
		Token       string `json:"token" validate:"required"`
		NewPassword string `json:"new_password" validate:"required,strongpassword"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c)
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	var user models.User
	if err := database.DB.Where("reset_password_token = ?", req.Token).First(&user).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid or expired reset token"})
	}
	if user.ResetPasswordTokenExpiresAt == nil || user.ResetPasswordTokenExpiresAt.Before(time.Now()) {
		database.DB.Model(&user).Updates(map[string]interface{}{
			"reset_password_token":            nil,
			"reset_password_token_expires_at": nil,
		})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid or expired reset token"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash new password"})
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Updates(map[string]interface{}{
			"password":                        string(hashedPassword),
			"reset_password_token":            nil,
			"reset_password_token_expires_at": nil,
		}).Error; err != nil {
			return err
		}
		return services.RevokeAllSessions(tx, user.ID)
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update password"})
	}

	subject, body := notifications.PasswordChangedEmail(user.Name)
	go notifications.SendEmail(user.Name, user.Email, subject, body)

	return c.JSON(fiber.Map{"message": "Password has been reset successfully."})
}
