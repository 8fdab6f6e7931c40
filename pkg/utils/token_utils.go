package utils

import (
	"crypto/rand"
	"fmt"
	"regexp"
)

// PickupTokenLength is the length of the code students present at the counter.
const PickupTokenLength = 8

// tokenAlphabet deliberately excludes lowercase: tokens are read aloud and typed
// by canteen staff, so the verifier uppercases input before matching.
const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var pickupTokenRegex = regexp.MustCompile(`^[A-Z0-9]{8}$`)

// GeneratePickupToken returns a random 8-character [A-Z0-9] pickup token.
func GeneratePickupToken() (string, error) {
	buf := make([]byte, PickupTokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes for pickup token: %w", err)
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf), nil
}

// IsValidPickupToken reports whether s has the shape of a pickup token.
func IsValidPickupToken(s string) bool {
	return pickupTokenRegex.MatchString(s)
}
