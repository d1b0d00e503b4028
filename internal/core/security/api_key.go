package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// KeyPrefix marks every key this service issues.
const KeyPrefix = "sl_live_"

// GenerateAPIKey creates a random API key and the SHA-256 hash stored at
// rest. The raw key is shown to the caller once and never persisted.
func GenerateAPIKey() (realKey, keyHash string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	realKey = KeyPrefix + hex.EncodeToString(bytes)
	keyHash = HashKey(realKey)
	return realKey, keyHash, nil
}

// HashKey returns the hex SHA-256 digest of a raw key.
func HashKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// ValidateKey checks a provided raw key against a stored hash in constant
// time.
func ValidateKey(providedKey, storedHash string) bool {
	computed := HashKey(providedKey)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
