package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/quizfoundry/backend/handlers"
	"github.com/quizfoundry/backend/middleware"
)

func QuizRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	quizzes := api.Group("/quizzes")
	quizzes.Get("", handlers.ListPublicQuizzes)
	quizzes.Post("", middleware.Protected(), handlers.CreateQuiz)
	quizzes.Get("/mine", middleware.Protected(), handlers.ListMyQuizzes)
	quizzes.Post("/generate", middleware.Protected(), handlers.GenerateQuiz)
	quizzes.Get("/share/:code", middleware.OptionalAuth(), handlers.GetQuizByShareCode)

	quizzes.Get("/:quizId", middleware.OptionalAuth(), handlers.GetQuiz)
	quizzes.Put("/:quizId", middleware.Protected(), handlers.UpdateQuiz)
	quizzes.Delete("/:quizId", middleware.Protected(), handlers.DeleteQuiz)
	quizzes.Post("/:quizId/publish", middleware.Protected(), handlers.PublishQuiz)
	quizzes.Post("/:quizId/attempts", middleware.Protected(), handlers.StartAttempt)
	quizzes.Get("/:quizId/analytics", middleware.Protected(), handlers.GetQuizAnalytics)
	quizzes.Get("/:quizId/analytics/export", middleware.Protected(), handlers.ExportQuizAnalytics)

	attempts := api.Group("/attempts", middleware.Protected())
	attempts.Get("", handlers.ListMyAttempts)
	attempts.Get("/:attemptId", handlers.GetAttempt)
	attempts.Post("/:attemptId/submit", handlers.SubmitAttempt)

	app.Get("/ws/quizzes/:quizId/live", handlers.AuthorizeLiveFeed, websocket.New(handlers.ServeLiveFeed))
}
