package routes

import "github.com/gofiber/fiber/v2"

// Setup registers every route group on app.
func Setup(app *fiber.App) {
	PublicRoutes(app)
	AuthRoutes(app)
	ProfileRoutes(app)
	QuizRoutes(app)
	AdminRoutes(app)
}
