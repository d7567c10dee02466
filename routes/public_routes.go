package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/quizfoundry/backend/handlers"
)

func PublicRoutes(app *fiber.App) {
	app.Get("/health", handlers.Health)

	api := app.Group("/api/v1")
	api.Get("/test", handlers.TestRoute)
	api.Get("/leaderboard", handlers.GetLeaderboard)
}
