package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/quizfoundry/backend/handlers"
	"github.com/quizfoundry/backend/middleware"
)

func AuthRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	credentialLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many attempts, try again later"})
		},
	})

	auth := api.Group("/auth")
	auth.Post("/signup", credentialLimiter, handlers.Signup)
	auth.Post("/login", credentialLimiter, handlers.Login)
	auth.Post("/refresh", handlers.RefreshSession)
	auth.Post("/forgot-password", credentialLimiter, handlers.ForgotPassword)
	auth.Post("/reset-password", credentialLimiter, handlers.ResetPassword)

	auth.Post("/logout", middleware.Protected(), handlers.Logout)
	auth.Get("/session", middleware.Protected(), handlers.GetSession)
}
