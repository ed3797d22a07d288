package core

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 10

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

var (
	ErrEmptyPassword   = errors.New("password cannot be empty")
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
	// ErrMalformedDigest is returned by Verify when the stored digest was not
	// produced by bcrypt. It never counts as a match.
	ErrMalformedDigest = errors.New("malformed password digest")
)

// PasswordHasher hashes and verifies stored credentials.
type PasswordHasher interface {
	// Hash returns a salted digest; two calls never return the same digest.
	Hash(password string) (string, error)
	// Verify returns (true, nil) on match, (false, nil) on mismatch and
	// (false, ErrMalformedDigest) when digest cannot be parsed.
	Verify(password, digest string) (bool, error)
}

// BcryptHasher implements PasswordHasher with bcrypt.
type BcryptHasher struct {
	cost    int
	metrics *AuthMetrics
}

// NewBcryptHasher returns a hasher using cost, or DefaultBcryptCost when cost is zero.
func NewBcryptHasher(cost int, metrics *AuthMetrics) *BcryptHasher {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost, metrics: metrics}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	defer h.metrics.observeHash()()
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(digest), nil
}

func (h *BcryptHasher) Verify(password, digest string) (bool, error) {
	if len(password) > maxPasswordBytes {
		// Never produced by Hash, so it cannot match.
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrMalformedDigest, err)
	}
}
