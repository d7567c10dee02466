package database

import (
	"fmt"
	"log"

	config "github.com/quizfoundry/backend/configs"
	"github.com/quizfoundry/backend/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	settings := config.Get()

	logLevel := logger.Warn
	if settings.IsProduction() {
		logLevel = logger.Error
	}

	DB, err = gorm.Open(postgres.Open(settings.DatabaseURL), &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   logger.Default.LogMode(logLevel),
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

func Migrate() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.UserSession{},
		&models.Quiz{},
		&models.Question{},
		&models.Option{},
		&models.QuizAttempt{},
		&models.AttemptAnswer{},
		&models.Badge{},
		&models.Certificate{},
	)
	if err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	fmt.Println("✅ Database migration successful")
}

func SeedAdmin() {
	settings := config.Get()
	if settings.AdminEmail == "" || settings.AdminPassword == "" {
		log.Println("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed.")
		return
	}

	var count int64
	err := DB.Model(&models.User{}).Where("email = ?", settings.AdminEmail).Count(&count).Error
	if err != nil {
		log.Fatalf("🔥 Failed to check for admin user: %v", err)
	}

	if count > 0 {
		log.Println("Admin user already exists.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(settings.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("🔥 Failed to hash admin password: %v", err)
	}

	adminUser := models.User{
		Name:                settings.AdminName,
		Email:               settings.AdminEmail,
		Password:            string(hashedPassword),
		Role:                models.RoleAdmin,
		OnboardingCompleted: true,
		IsActive:            true,
	}

	if err := DB.Create(&adminUser).Error; err != nil {
		log.Fatalf("🔥 Failed to seed admin user: %v", err)
	}

	log.Println("✅ Admin user seeded successfully")
}

// DefaultBadges are created on startup when missing.
var DefaultBadges = []models.Badge{
	{Name: "First Quiz", Description: "Completed your first quiz.", IconURL: "https://res.cloudinary.com/quizfoundry/image/upload/badges/first-quiz.png"},
	{Name: "Perfect Score", Description: "Answered every question of a quiz correctly.", IconURL: "https://res.cloudinary.com/quizfoundry/image/upload/badges/perfect-score.png"},
	{Name: "Quiz Creator", Description: "Published your first quiz.", IconURL: "https://res.cloudinary.com/quizfoundry/image/upload/badges/quiz-creator.png"},
}

func SeedBadges() {
	for _, badge := range DefaultBadges {
		b := badge
		if err := DB.Where(models.Badge{Name: b.Name}).FirstOrCreate(&b).Error; err != nil {
			log.Printf("🔥 Failed to seed badge '%s': %v", b.Name, err)
		}
	}
	log.Println("✅ Badges seeded")
}
