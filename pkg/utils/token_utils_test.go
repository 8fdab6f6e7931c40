package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePickupToken(t *testing.T) {
	for i := 0; i < 100; i++ {
		token, err := GeneratePickupToken()
		require.NoError(t, err)

		assert.Len(t, token, PickupTokenLength)
		assert.True(t, IsValidPickupToken(token), "token %q failed validation", token)
		for _, r := range token {
			assert.True(t, strings.ContainsRune(tokenAlphabet, r), "token %q contains %q", token, r)
		}
	}
}

func TestGeneratePickupTokenVaries(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		token, err := GeneratePickupToken()
		require.NoError(t, err)
		seen[token] = true
	}
	// 50 draws from a 36^8 space should essentially never collide.
	assert.Greater(t, len(seen), 45)
}

func TestIsValidPickupToken(t *testing.T) {
	valid := []string{"ABCD1234", "00000000", "ZZZZZZZZ"}
	for _, s := range valid {
		assert.True(t, IsValidPickupToken(s), "%q should be valid", s)
	}

	invalid := []string{"", "ABC1234", "ABCD12345", "abcd1234", "ABCD 123", "ABCD-123", "ABCD123é"}
	for _, s := range invalid {
		assert.False(t, IsValidPickupToken(s), "%q should be invalid", s)
	}
}
