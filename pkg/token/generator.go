package token

import (
	"crypto/rand"
	"encoding/hex"
)

// DefaultLength is the default token length in bytes.
const DefaultLength = 16

// Generate generates a cryptographically secure hex token of DefaultLength bytes.
func Generate() (string, error) {
	return GenerateWithLength(DefaultLength)
}

// GenerateWithLength generates a hex token from length random bytes.
// The returned string is 2*length characters long.
func GenerateWithLength(length int) (string, error) {
	b, err := GenerateBytes(length)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateBytes generates random bytes.
func GenerateBytes(length int) ([]byte, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// IsHex reports whether s looks like a token produced by Generate.
func IsHex(s string) bool {
	if len(s) != 2*DefaultLength {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// Mask hides the middle of a token for logging.
// Example: 3fa...9c1
func Mask(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:3] + "..." + s[len(s)-3:]
}
