package services

import (
	"log"

	"github.com/google/uuid"
	"github.com/quizfoundry/backend/database"
	"github.com/quizfoundry/backend/models"
	"gorm.io/gorm"
)

const (
	xpPerCompletedAttempt = 10
	xpPerCorrectAnswer    = 1

	BadgeFirstQuiz    = "First Quiz"
	BadgePerfectScore = "Perfect Score"
	BadgeQuizCreator  = "Quiz Creator"
)

func XPForAttempt(correctCount int) int {
	return xpPerCompletedAttempt + correctCount*xpPerCorrectAnswer
}

// BadgesForAttempt lists the badges a submission can unlock. completedCount
// includes the attempt being rewarded. Badges the user already holds are
// skipped by awardBadge, so every completed attempt re-offers First Quiz.
func BadgesForAttempt(completedCount int64, score float64) []string {
	var badges []string
	if completedCount >= 1 {
		badges = append(badges, BadgeFirstQuiz)
	}
	if score >= 100 {
		badges = append(badges, BadgePerfectScore)
	}
	return badges
}

func AwardRewardsForAttempt(userID uuid.UUID, correctCount int, score float64) {
	xp := XPForAttempt(correctCount)
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Preload("Badges").First(&user, "id = ?", userID).Error; err != nil {
			return err
		}

		if err := tx.Model(&user).Update("xp", gorm.Expr("xp + ?", xp)).Error; err != nil {
			return err
		}

		var completedCount int64
		if err := tx.Model(&models.QuizAttempt{}).
			Where("user_id = ? AND status = ?", userID, models.AttemptCompleted).
			Count(&completedCount).Error; err != nil {
			return err
		}

		for _, name := range BadgesForAttempt(completedCount, score) {
			if err := awardBadge(tx, &user, name); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		log.Printf("🔥 Failed to award rewards to user %s: %v", userID, err)
	} else {
		log.Printf("✅ Awarded %d XP to user %s.", xp, userID)
	}
}

// AwardCreatorBadge is called when a user publishes a quiz.
func AwardCreatorBadge(userID uuid.UUID) {
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Preload("Badges").First(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		return awardBadge(tx, &user, BadgeQuizCreator)
	})
	if err != nil {
		log.Printf("🔥 Failed to award creator badge to user %s: %v", userID, err)
	}
}

func awardBadge(tx *gorm.DB, user *models.User, name string) error {
	for _, badge := range user.Badges {
		if badge.Name == name {
			return nil
		}
	}

	var badge models.Badge
	if err := tx.Where("name = ?", name).First(&badge).Error; err != nil {
		log.Printf("Warning: Badge '%s' not found in database. Cannot award.", name)
		return nil
	}
	return tx.Model(user).Association("Badges").Append(&badge)
}
