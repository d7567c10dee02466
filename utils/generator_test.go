package utils

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomCode(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		code := randomCode(r, shareCodeLength)
		assert.Len(t, code, shareCodeLength)
		for _, ch := range code {
			assert.True(t, strings.ContainsRune(letterBytes, ch), "unexpected rune %q", ch)
		}
		seen[code] = struct{}{}
	}
	assert.Greater(t, len(seen), 190)
}
