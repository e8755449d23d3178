package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

// GenerateAPIKey returns a URL-safe random API key with 256 bits of entropy.
// The server mints one on first launch and persists it in the settings file.
func GenerateAPIKey() (string, error) {
	const numBytes = 32 // 256 bits
	buf := make([]byte, numBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GeneratePairingCode returns a cryptographically secure 6-digit code. The
// server prints one at startup; a companion client exchanges it for the API
// key over the pairing endpoint.
func GeneratePairingCode() (string, error) {
	// Random number between 100000 and 999999 so the code is always 6 digits.
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate pairing code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// ValidatePairingCode checks if a string is a well-formed 6-digit code.
func ValidatePairingCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, char := range code {
		if char < '0' || char > '9' {
			return false
		}
	}
	return true
}
