package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/quizfoundry/backend/database"
	"github.com/quizfoundry/backend/models"
	"github.com/quizfoundry/backend/services"
)

// managedQuiz loads a quiz (including soft-deleted ones) the caller owns or
// administers. On failure it returns the status and message to reply with.
func managedQuiz(c *fiber.Ctx) (models.Quiz, int, string) {
	quizID, ok := paramUUID(c, "quizId")
	if !ok {
		return models.Quiz{}, fiber.StatusBadRequest, "Invalid quizId"
	}
	userID, role := currentUser(c)

	quiz, err := loadQuiz(database.DB.Unscoped(), quizID)
	if err != nil {
		return models.Quiz{}, fiber.StatusNotFound, "Quiz not found"
	}
	if !services.CanManage(quiz, userID, role) {
		return models.Quiz{}, fiber.StatusForbidden, "Only the quiz owner can view analytics"
	}
	return quiz, fiber.StatusOK, ""
}

func GetQuizAnalytics(c *fiber.Ctx) error {
	quiz, status, msg := managedQuiz(c)
	if status != fiber.StatusOK {
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}

	var attempts []models.QuizAttempt
	if err := database.DB.Where("quiz_id = ?", quiz.ID).Find(&attempts).Error; err != nil {
		return serviceError(c, err)
	}

	var answers []models.AttemptAnswer
	completed := database.DB.Model(&models.QuizAttempt{}).
		Select("id").
		Where("quiz_id = ? AND status = ?", quiz.ID, models.AttemptCompleted)
	if err := database.DB.Where("attempt_id IN (?)", completed).Find(&answers).Error; err != nil {
		return serviceError(c, err)
	}

	return c.JSON(services.ComputeQuizAnalytics(quiz, attempts, answers))
}

func ExportQuizAnalytics(c *fiber.Ctx) error {
	quiz, status, msg := managedQuiz(c)
	if status != fiber.StatusOK {
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}

	var attempts []models.QuizAttempt
	if err := database.DB.
		Preload("User").
		Where("quiz_id = ? AND status = ?", quiz.ID, models.AttemptCompleted).
		Order("completed_at asc").
		Find(&attempts).Error; err != nil {
		return serviceError(c, err)
	}

	b := new(bytes.Buffer)
	if err := writeAttemptsCSV(b, attempts); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write CSV"})
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"quiz_%s_attempts.csv\"", quiz.ShareCode))
	return c.Send(b.Bytes())
}

func writeAttemptsCSV(b *bytes.Buffer, attempts []models.QuizAttempt) error {
	w := csv.NewWriter(b)

	headers := []string{"Attempt ID", "User ID", "User Name", "Started At", "Completed At", "Correct", "Total", "Score"}
	if err := w.Write(headers); err != nil {
		return err
	}

	for _, a := range attempts {
		var name, completedAt, score string
		if a.User != nil {
			name = a.User.Name
		}
		if a.CompletedAt != nil {
			completedAt = a.CompletedAt.UTC().Format("2006-01-02 15:04:05")
		}
		if a.Score != nil {
			score = strconv.FormatFloat(*a.Score, 'f', 2, 64)
		}
		row := []string{
			a.ID.String(),
			a.UserID.String(),
			name,
			a.StartedAt.UTC().Format("2006-01-02 15:04:05"),
			completedAt,
			strconv.Itoa(a.CorrectCount),
			strconv.Itoa(a.TotalQuestions),
			score,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

