package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Settings is the typed view of the process environment.
type Settings struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	Port        string `env:"PORT" envDefault:"8080"`
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"*"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	JWTSecret       string        `env:"JWT_SECRET,required,notEmpty"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"`

	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	AdminName     string `env:"ADMIN_NAME" envDefault:"QuizFoundry Admin"`

	OpenAIAPIKey        string `env:"OPENAI_API_KEY"`
	OpenAIModel         string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIBaseURL       string `env:"OPENAI_BASE_URL"`
	AIRequestsPerMinute int    `env:"AI_REQUESTS_PER_MINUTE" envDefault:"20"`

	BrevoAPIKey     string `env:"BREVO_API_KEY"`
	EmailSender     string `env:"EMAIL_SENDER"`
	EmailSenderName string `env:"EMAIL_SENDER_NAME" envDefault:"QuizFoundry"`

	CloudinaryURL string `env:"CLOUDINARY_URL"`

	AttemptAbandonAfter time.Duration `env:"ATTEMPT_ABANDON_AFTER" envDefault:"24h"`
}

var (
	settings Settings
	loadErr  error
	once     sync.Once
)

// Parse reads Settings from the current environment without touching .env.
func Parse() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("invalid environment: %w", err)
	}
	if s.AccessTokenTTL <= 0 || s.RefreshTokenTTL <= s.AccessTokenTTL {
		return Settings{}, fmt.Errorf("invalid environment: REFRESH_TOKEN_TTL must exceed ACCESS_TOKEN_TTL")
	}
	if s.AIRequestsPerMinute <= 0 {
		return Settings{}, fmt.Errorf("invalid environment: AI_REQUESTS_PER_MINUTE must be positive")
	}
	return s, nil
}

// Load reads .env once and validates the environment.
func Load() (Settings, error) {
	once.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("Warning: .env file not found, reading from system environment variables")
		}
		settings, loadErr = Parse()
	})
	return settings, loadErr
}

// Get returns the loaded settings and aborts the process when the
// environment is invalid.
func Get() Settings {
	s, err := Load()
	if err != nil {
		log.Fatalf("🔥 %v", err)
	}
	return s
}

func (s Settings) IsProduction() bool {
	return s.Environment == "production"
}
