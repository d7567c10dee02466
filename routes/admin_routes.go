package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/quizfoundry/backend/handlers"
	"github.com/quizfoundry/backend/middleware"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())
	admin.Get("/dashboard-analytics", handlers.GetDashboardAnalytics)

	users := admin.Group("/users")
	users.Get("", handlers.GetAllUsers)
	users.Put("/:userId/status", handlers.ToggleUserStatus)

	badges := admin.Group("/badges")
	badges.Get("", handlers.ListBadges)
	badges.Post("", handlers.CreateBadge)
	badges.Put("/:badgeId", handlers.UpdateBadge)
	badges.Delete("/:badgeId", handlers.DeleteBadge)
}
