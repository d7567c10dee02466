package utils

import (
	"regexp"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes.
	maxPasswordLength = 72
)

var (
	passwordLower  = regexp.MustCompile(`[a-z]`)
	passwordUpper  = regexp.MustCompile(`[A-Z]`)
	passwordDigit  = regexp.MustCompile(`[0-9]`)
	passwordSymbol = regexp.MustCompile(`[^A-Za-z0-9\s]`)

	unsafeMarkup = regexp.MustCompile(`(?i)<\s*/?\s*(script|iframe|object|embed)\b|javascript\s*:|data\s*:\s*text/html`)
)

// IsStrongPassword requires 8-72 characters with a lowercase letter, an
// uppercase letter, a digit and a symbol.
func IsStrongPassword(p string) bool {
	if len(p) < minPasswordLength || len(p) > maxPasswordLength {
		return false
	}
	return passwordLower.MatchString(p) &&
		passwordUpper.MatchString(p) &&
		passwordDigit.MatchString(p) &&
		passwordSymbol.MatchString(p)
}

// IsSafeText rejects script-bearing markup and non-printing control characters.
func IsSafeText(s string) bool {
	if unsafeMarkup.MatchString(s) {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' {
			return false
		}
	}
	return true
}

// NewValidator returns a validator with the project's custom tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("safetext", func(fl validator.FieldLevel) bool {
		return IsSafeText(fl.Field().String())
	})
	return v
}
