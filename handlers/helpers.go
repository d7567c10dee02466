package handlers

import (
	"errors"
	"log"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	config "github.com/quizfoundry/backend/configs"
	"github.com/quizfoundry/backend/database"
	"github.com/quizfoundry/backend/services"
	"github.com/quizfoundry/backend/utils"
	"gorm.io/gorm"
)

var validate = utils.NewValidator()

// Generator is nil when no OpenAI key is configured.
var Generator services.QuizGenerator

// Writes and background rewards that handlers reach through variables so
// tests can observe them without a database.
var (
	saveQuiz          = persistQuiz
	awardCreatorBadge = services.AwardCreatorBadge
	revokeAllSessions = func(userID uuid.UUID) error {
		return services.RevokeAllSessions(database.DB, userID)
	}
	revokeSession = func(userID uuid.UUID, refreshToken string) error {
		return services.RevokeSession(database.DB, userID, refreshToken)
	}
)

var (
	issuer     *services.TokenIssuer
	issuerOnce sync.Once
)

func tokenIssuer() *services.TokenIssuer {
	issuerOnce.Do(func() {
		s := config.Get()
		issuer = services.NewTokenIssuer(s.JWTSecret, s.AccessTokenTTL, s.RefreshTokenTTL)
	})
	return issuer
}

// currentUser returns the authenticated caller, or uuid.Nil for anonymous
// requests on routes guarded by OptionalAuth.
func currentUser(c *fiber.Ctx) (uuid.UUID, string) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ""
	}
	parsed, err := services.ClaimsFromMap(claims)
	if err != nil {
		return uuid.Nil, ""
	}
	return parsed.UserID, parsed.Role
}

func sessionMeta(c *fiber.Ctx) services.SessionMeta {
	return services.SessionMeta{
		UserAgent: c.Get(fiber.HeaderUserAgent),
		IPAddress: c.IP(),
	}
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

func invalidParam(c *fiber.Ctx, name string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid " + name})
}

func bodyError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
}

func validationError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
}

// serviceError maps domain errors to HTTP responses.
func serviceError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrInvalidQuiz),
		errors.Is(err, services.ErrEmptyQuiz),
		errors.Is(err, services.ErrUnknownQuestion),
		errors.Is(err, services.ErrUnknownOption):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrQuizHasAttempts),
		errors.Is(err, services.ErrQuizNotPublished),
		errors.Is(err, services.ErrAlreadySubmitted),
		errors.Is(err, services.ErrAttemptAbandoned):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, services.ErrInvalidRefreshToken),
		errors.Is(err, services.ErrRefreshTokenReused),
		errors.Is(err, services.ErrSessionExpired),
		errors.Is(err, services.ErrAccountDisabled):
		status = fiber.StatusUnauthorized
	case errors.Is(err, services.ErrGenerationFailed):
		status = fiber.StatusBadGateway
	case errors.Is(err, services.ErrGeneratorDisabled):
		status = fiber.StatusServiceUnavailable
	}

	if status == fiber.StatusInternalServerError {
		log.Printf("🔥 %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(status).JSON(fiber.Map{"error": "Internal server error"})
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(status).JSON(fiber.Map{"error": "Not found"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func pageMeta(page utils.Page, total int64) fiber.Map {
	return fiber.Map{
		"total":       total,
		"page":        page.Page,
		"limit":       page.Limit,
		"total_pages": utils.TotalPages(total, page.Limit),
	}
}
