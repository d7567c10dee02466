package middleware

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders errors returned from handlers as the JSON error
// envelope. Anything that is not a *fiber.Error is reported as a 500
// without leaking its message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	requestID, _ := c.Locals("requestid").(string)
	log.Printf("[ERROR] %v | Path: %s | Method: %s | Request: %s", err, c.Path(), c.Method(), requestID)

	return c.Status(code).JSON(fiber.Map{
		"status":  "error",
		"code":    code,
		"message": message,
	})
}
