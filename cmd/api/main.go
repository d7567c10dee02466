package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	config "github.com/quizfoundry/backend/configs"
	"github.com/quizfoundry/backend/database"
	"github.com/quizfoundry/backend/handlers"
	"github.com/quizfoundry/backend/jobs"
	"github.com/quizfoundry/backend/middleware"
	"github.com/quizfoundry/backend/notifications"
	"github.com/quizfoundry/backend/routes"
	"github.com/quizfoundry/backend/services"
	"github.com/quizfoundry/backend/websocket"
	"github.com/robfig/cron/v3"
)

func main() {
	settings := config.Get()

	database.ConnectDB()
	database.Migrate()
	database.SeedAdmin()
	database.SeedBadges()
	notifications.InitEmailService()

	if settings.OpenAIAPIKey != "" {
		handlers.Generator = services.NewOpenAIGenerator(
			settings.OpenAIAPIKey,
			settings.OpenAIModel,
			settings.OpenAIBaseURL,
			settings.AIRequestsPerMinute,
		)
		log.Printf("✅ Quiz generator enabled with model %s.", settings.OpenAIModel)
	} else {
		log.Println("⚠️ OPENAI_API_KEY not set, quiz generation is disabled.")
	}

	c := cron.New()
	if err := jobs.Register(c, settings); err != nil {
		log.Fatalf("🔥 Failed to schedule jobs: %v", err)
	}
	c.Start()
	defer c.Stop()

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go websocket.Default.Run(hubCtx)

	app := fiber.New(fiber.Config{
		Prefork:       false,
		AppName:       "QuizFoundry",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		// Generation requests wait on the model.
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: middleware.ErrorHandler,
	})

	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  settings.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Disposition, X-Request-ID",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.Setup(app)

	log.Printf("✅ Server is running on port %s", settings.Port)
	if err := app.Listen(":" + settings.Port); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
