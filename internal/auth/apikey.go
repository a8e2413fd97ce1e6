package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultBcryptCost = 12
	apiKeyBytes       = 32
)

// GenerateAPIKey returns a random URL-safe admin key.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, apiKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashAPIKey returns the bcrypt hash stored in ADMIN_API_KEY_HASH.
func HashAPIKey(key string) (string, error) {
	return hashWithCost(key, DefaultBcryptCost)
}

func hashWithCost(key string, cost int) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", fmt.Errorf("api key is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(trimmed), cost)
	if err != nil {
		return "", fmt.Errorf("hash api key: %w", err)
	}
	return string(hash), nil
}

func VerifyAPIKey(key, hash string) bool {
	trimmedKey := strings.TrimSpace(key)
	trimmedHash := strings.TrimSpace(hash)
	if trimmedKey == "" || trimmedHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(trimmedHash), []byte(trimmedKey)) == nil
}
