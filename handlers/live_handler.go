package handlers

import (
	"log"

	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/quizfoundry/backend/database"
	"github.com/quizfoundry/backend/middleware"
	"github.com/quizfoundry/backend/services"
	"github.com/quizfoundry/backend/websocket"
)

// AuthorizeLiveFeed runs before the websocket upgrade. Browsers cannot set
// headers on websocket requests, so the access token comes from ?token=.
func AuthorizeLiveFeed(c *fiber.Ctx) error {
	if !websocketcontrib.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	quizID, ok := paramUUID(c, "quizId")
	if !ok {
		return invalidParam(c, "quizId")
	}

	claims, err := tokenIssuer().ParseAccessToken(c.Query("token"))
	if err != nil || !middleware.SessionActive(claims.SessionID.String()) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	quiz, err := loadQuiz(database.DB, quizID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Quiz not found"})
	}
	if !services.CanManage(quiz, claims.UserID, claims.Role) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only the quiz owner can watch the live feed"})
	}

	c.Locals("live_user_id", claims.UserID)
	c.Locals("live_quiz_id", quiz.ID)
	return c.Next()
}

// ServeLiveFeed keeps the connection registered with the hub until the
// client goes away. Incoming messages are ignored.
func ServeLiveFeed(c *websocketcontrib.Conn) {
	userID, _ := c.Locals("live_user_id").(uuid.UUID)
	quizID, _ := c.Locals("live_quiz_id").(uuid.UUID)

	client := &websocket.Client{QuizID: quizID, UserID: userID, Conn: c}
	websocket.Default.Register(client)
	defer func() {
		websocket.Default.Unregister(client)
		c.Close()
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if !websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseNormalClosure) {
				log.Printf("Live feed for quiz %s closed unexpectedly: %v", quizID, err)
			}
			return
		}
	}
}
