package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXPForAttempt(t *testing.T) {
	assert.Equal(t, 10, XPForAttempt(0))
	assert.Equal(t, 15, XPForAttempt(5))
}

func TestBadgesForAttempt(t *testing.T) {
	assert.Equal(t, []string{BadgeFirstQuiz}, BadgesForAttempt(1, 40))
	assert.Equal(t, []string{BadgeFirstQuiz, BadgePerfectScore}, BadgesForAttempt(1, 100))
	assert.Equal(t, []string{BadgeFirstQuiz, BadgePerfectScore}, BadgesForAttempt(4, 100))
	assert.Empty(t, BadgesForAttempt(0, 99.5))
}

// Two submissions can commit before either reward transaction counts them.
func TestBadgesForAttemptStillOffersFirstQuizAfterRace(t *testing.T) {
	assert.Contains(t, BadgesForAttempt(2, 60), BadgeFirstQuiz)
	assert.NotContains(t, BadgesForAttempt(2, 60), BadgePerfectScore)
}
