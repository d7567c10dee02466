package services

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	config "github.com/quizfoundry/backend/configs"
	"github.com/quizfoundry/backend/database"
	"github.com/quizfoundry/backend/models"
)

const certificateMinQuestions = 5

//go:embed templates/certificate.html
var certificateHTML string

var certificateTemplate = template.Must(template.New("certificate").Parse(certificateHTML))

// QualifiesForCertificate reports whether a completed attempt earns a
// certificate: a perfect score on a quiz of at least five questions.
func QualifiesForCertificate(attempt models.QuizAttempt) bool {
	return attempt.Status == models.AttemptCompleted &&
		attempt.Score != nil && *attempt.Score >= 100 &&
		attempt.TotalQuestions >= certificateMinQuestions
}

func CheckAndGenerateCertificate(attempt models.QuizAttempt, quizTitle string, user models.User) {
	if !QualifiesForCertificate(attempt) {
		return
	}
	if !CertificatesEnabled() {
		log.Printf("Skipping certificate for attempt %s: CLOUDINARY_URL is not configured", attempt.ID)
		return
	}

	var existing int64
	database.DB.Model(&models.Certificate{}).Where("attempt_id = ?", attempt.ID).Count(&existing)
	if existing > 0 {
		return
	}

	htmlData, err := renderCertificateHTML(user.Name, quizTitle, attempt, time.Now())
	if err != nil {
		log.Printf("🔥 Failed to generate certificate HTML: %v", err)
		return
	}

	pdfBytes, err := generatePDFFromHTML(htmlData)
	if err != nil {
		log.Printf("🔥 Failed to generate PDF: %v", err)
		return
	}

	uploadURL, err := uploadToCloudinary(pdfBytes, user.ID.String(), attempt.ID.String())
	if err != nil {
		log.Printf("🔥 Failed to upload certificate to Cloudinary: %v", err)
		return
	}

	certificate := models.Certificate{
		UserID:         user.ID,
		QuizID:         attempt.QuizID,
		AttemptID:      attempt.ID,
		QuizTitle:      quizTitle,
		IssuedAt:       time.Now(),
		CertificateURL: uploadURL,
	}
	if err := database.DB.Create(&certificate).Error; err != nil {
		log.Printf("🔥 Failed to create certificate record for user %s: %v", user.ID, err)
	} else {
		log.Printf("✅ Generated and uploaded certificate for '%s' for user %s.", quizTitle, user.ID)
	}
}

// CertificatesEnabled reports whether rendered certificates have somewhere
// to be uploaded.
func CertificatesEnabled() bool {
	return config.Get().CloudinaryURL != ""
}

func renderCertificateHTML(userName, quizTitle string, attempt models.QuizAttempt, issuedAt time.Time) (string, error) {
	score := 0.0
	if attempt.Score != nil {
		score = *attempt.Score
	}
	data := struct {
		UserName      string
		QuizTitle     string
		QuestionCount int
		Score         string
		IssuedOn      string
	}{
		UserName:      userName,
		QuizTitle:     quizTitle,
		QuestionCount: attempt.TotalQuestions,
		Score:         fmt.Sprintf("%.0f", score),
		IssuedOn:      issuedAt.Format("January 2, 2006"),
	}

	var rendered bytes.Buffer
	if err := certificateTemplate.Execute(&rendered, data); err != nil {
		return "", err
	}
	return rendered.String(), nil
}

func generatePDFFromHTML(htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, 30*time.Second)
	defer cancelTimeout()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).WithLandscape(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}

func uploadToCloudinary(fileBytes []byte, userID, attemptID string) (string, error) {
	cloudinaryURL := config.Get().CloudinaryURL
	if cloudinaryURL == "" {
		return "", errors.New("CLOUDINARY_URL is not configured")
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uploadParams := uploader.UploadParams{
		PublicID:     fmt.Sprintf("%s_%s", userID, attemptID),
		Folder:       "quizfoundry_certificates",
		ResourceType: "raw",
	}

	uploadResult, err := cld.Upload.Upload(ctx, bytes.NewReader(fileBytes), uploadParams)
	if err != nil {
		return "", err
	}
	return uploadResult.SecureURL, nil
}
