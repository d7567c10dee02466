package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/quizfoundry/backend/handlers"
	"github.com/quizfoundry/backend/middleware"
)

func ProfileRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	profile := api.Group("/profile", middleware.Protected())
	profile.Get("/me", handlers.GetProfile)
	profile.Put("/me", handlers.UpdateProfile)
	profile.Post("/me/onboarding", handlers.CompleteOnboarding)
	profile.Get("/me/stats", handlers.GetProfileStats)
	profile.Get("/me/badges", handlers.GetMyBadges)
	profile.Get("/me/certificates", handlers.ListMyCertificates)

	uploads := api.Group("/uploads", middleware.Protected())
	uploads.Get("/avatar-signature", handlers.GenerateUploadSignature)
}
