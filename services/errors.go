package services

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidQuiz       = errors.New("invalid quiz")
	ErrEmptyQuiz         = errors.New("quiz has no questions")
	ErrQuizHasAttempts   = errors.New("quiz questions cannot change after attempts exist")
	ErrQuizNotPublished  = errors.New("quiz is not published")
	ErrUnknownQuestion   = errors.New("answer references a question outside this quiz")
	ErrUnknownOption     = errors.New("answer references an option outside its question")
	ErrAlreadySubmitted  = errors.New("attempt has already been submitted")
	ErrAttemptAbandoned  = errors.New("attempt has expired")
	ErrGenerationFailed  = errors.New("quiz generation failed")
	ErrGeneratorDisabled = errors.New("quiz generation is not configured")

	ErrInvalidToken        = errors.New("invalid token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenReused  = errors.New("refresh token reuse detected")
	ErrSessionExpired      = errors.New("session expired")
	ErrAccountDisabled     = errors.New("account is disabled")
)
