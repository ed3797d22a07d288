package core

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

// sessionIDBytes is the entropy of a session token (256 bits).
const sessionIDBytes = 32

// NewSessionID returns a random hex session token.
func NewSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// randomSecret returns length URL-safe random characters.
func randomSecret(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("secret length must be positive")
	}
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw)[:length], nil
}
