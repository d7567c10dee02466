package utils

import (
	"errors"
	"math/rand"
	"time"

	"github.com/quizfoundry/backend/models"
	"gorm.io/gorm"
)

const shareCodeLength = 8

// Ambiguous glyphs (0/O, 1/I) are left out so codes survive being read aloud.
const letterBytes = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const maxShareCodeAttempts = 20

var ErrShareCodeExhausted = errors.New("could not allocate a unique share code")

func randomCode(r *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[r.Intn(len(letterBytes))]
	}
	return string(b)
}

// GenerateUniqueShareCode picks a share code not yet used by any quiz,
// soft-deleted ones included.
func GenerateUniqueShareCode(tx *gorm.DB) (string, error) {
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))

	for i := 0; i < maxShareCodeAttempts; i++ {
		code := randomCode(seededRand, shareCodeLength)

		var count int64
		if err := tx.Unscoped().Model(&models.Quiz{}).Where("share_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", ErrShareCodeExhausted
}
