package services

import (
	"testing"
	"time"

	"github.com/quizfoundry/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualifiesForCertificate(t *testing.T) {
	perfect := models.QuizAttempt{Status: models.AttemptCompleted, Score: scorePtr(100), TotalQuestions: 5}
	assert.True(t, QualifiesForCertificate(perfect))

	short := perfect
	short.TotalQuestions = 4
	assert.False(t, QualifiesForCertificate(short))

	imperfect := perfect
	imperfect.Score = scorePtr(80)
	assert.False(t, QualifiesForCertificate(imperfect))

	unscored := perfect
	unscored.Score = nil
	assert.False(t, QualifiesForCertificate(unscored))

	running := perfect
	running.Status = models.AttemptInProgress
	assert.False(t, QualifiesForCertificate(running))
}

func TestRenderCertificateHTML(t *testing.T) {
	attempt := models.QuizAttempt{Score: scorePtr(100), TotalQuestions: 8}
	issued := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	html, err := renderCertificateHTML("Ada <Lovelace>", "Go & Friends", attempt, issued)
	require.NoError(t, err)

	assert.Contains(t, html, "Ada &lt;Lovelace&gt;")
	assert.Contains(t, html, "Go &amp; Friends")
	assert.Contains(t, html, "8 questions")
	assert.Contains(t, html, "score 100%")
	assert.Contains(t, html, "March 14, 2026")
}

func TestCheckAndGenerateCertificateSkipsWithoutCloudinary(t *testing.T) {
	require.False(t, CertificatesEnabled())

	attempt := models.QuizAttempt{Status: models.AttemptCompleted, Score: scorePtr(100), TotalQuestions: 5}
	require.True(t, QualifiesForCertificate(attempt))

	// No database is configured here; reaching the lookup or the renderer
	// would panic.
	assert.NotPanics(t, func() {
		CheckAndGenerateCertificate(attempt, "Go basics", models.User{Name: "Ada"})
	})
}
