package jobs

import (
	"log"
	"time"

	config "github.com/quizfoundry/backend/configs"
	"github.com/quizfoundry/backend/database"
	"github.com/quizfoundry/backend/models"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const (
	MaintenanceSchedule = "*/15 * * * *"

	// Revoked or expired sessions are kept this long for reuse detection.
	sessionRetention = 7 * 24 * time.Hour
)

// Register schedules the maintenance jobs on c.
func Register(c *cron.Cron, settings config.Settings) error {
	jobs := []struct {
		name string
		run  func()
	}{
		{"AbandonStaleAttempts", func() { AbandonStaleAttempts(settings.AttemptAbandonAfter) }},
		{"PurgeSessions", PurgeSessions},
		{"ClearExpiredResetTokens", ClearExpiredResetTokens},
	}
	for _, job := range jobs {
		if _, err := c.AddFunc(MaintenanceSchedule, job.run); err != nil {
			return err
		}
		log.Printf("✅ Scheduled %s (%s)", job.name, MaintenanceSchedule)
	}
	return nil
}

func AbandonStaleAttempts(after time.Duration) {
	log.Println("Running job: AbandonStaleAttempts...")

	count, err := abandonStaleAttempts(database.DB, time.Now().Add(-after))
	if err != nil {
		log.Printf("Error abandoning stale attempts: %v", err)
		return
	}
	if count > 0 {
		log.Printf("Marked %d attempt(s) as abandoned.", count)
	}
}

func abandonStaleAttempts(db *gorm.DB, startedBefore time.Time) (int64, error) {
	result := db.Model(&models.QuizAttempt{}).
		Where("status = ? AND started_at < ?", models.AttemptInProgress, startedBefore).
		Update("status", models.AttemptAbandoned)
	return result.RowsAffected, result.Error
}

func PurgeSessions() {
	log.Println("Running job: PurgeSessions...")

	count, err := purgeSessions(database.DB, time.Now().Add(-sessionRetention))
	if err != nil {
		log.Printf("Error purging sessions: %v", err)
		return
	}
	if count > 0 {
		log.Printf("Deleted %d stale session(s).", count)
	}
}

func purgeSessions(db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.
		Where("refresh_expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)", cutoff, cutoff).
		Delete(&models.UserSession{})
	return result.RowsAffected, result.Error
}

func ClearExpiredResetTokens() {
	log.Println("Running job: ClearExpiredResetTokens...")

	result := database.DB.Model(&models.User{}).
		Where("reset_password_token IS NOT NULL AND reset_password_token_expires_at < ?", time.Now()).
		Updates(map[string]interface{}{
			"reset_password_token":            nil,
			"reset_password_token_expires_at": nil,
		})
	if result.Error != nil {
		log.Printf("Error clearing reset tokens: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("Cleared %d expired reset token(s).", result.RowsAffected)
	}
}
