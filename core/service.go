package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"
)

// maxUsernameLen matches users.username VARCHAR(50).
const maxUsernameLen = 50

// RepositoryAuthService implements AuthService on a UserRepository and a
// PasswordHasher.
type RepositoryAuthService struct {
	users   UserRepository
	hasher  PasswordHasher
	metrics *AuthMetrics
	// dummyDigest is verified against when the username is unknown so both
	// failure paths spend the same bcrypt time.
	dummyDigest string
}

// NewRepositoryAuthService builds the service. It hashes a random value once
// to obtain the dummy digest.
func NewRepositoryAuthService(users UserRepository, hasher PasswordHasher, metrics *AuthMetrics) (*RepositoryAuthService, error) {
	secret, err := randomSecret(32)
	if err != nil {
		return nil, err
	}
	dummy, err := hasher.Hash(secret)
	if err != nil {
		return nil, fmt.Errorf("dummy digest: %w", err)
	}
	return &RepositoryAuthService{users: users, hasher: hasher, metrics: metrics, dummyDigest: dummy}, nil
}

// Authenticate verifies username/password. Unknown users, wrong passwords and
// unreadable digests all return ErrInvalidCredentials.
func (s *RepositoryAuthService) Authenticate(ctx context.Context, username, password string) (User, error) {
	// Register stores trimmed usernames; look them up the same way.
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		s.metrics.recordLogin(OutcomeInvalidCredentials)
		return User{}, ErrInvalidCredentials
	}

	u, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		_, _ = s.hasher.Verify(password, s.dummyDigest)
		s.metrics.recordLogin(OutcomeInvalidCredentials)
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		s.metrics.recordLogin(OutcomeError)
		return User{}, err
	}

	ok, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		log.Printf("[auth] stored digest for %q is unreadable: %v", username, err)
	}
	if !ok {
		s.metrics.recordLogin(OutcomeInvalidCredentials)
		return User{}, ErrInvalidCredentials
	}
	s.metrics.recordLogin(OutcomeSuccess)
	return u.User(), nil
}

// Register hashes the password and creates the user. It never opens a session.
func (s *RepositoryAuthService) Register(ctx context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(username)
	if err := validateRegistration(username, password); err != nil {
		s.metrics.recordRegistration(OutcomeInvalid)
		return User{}, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.metrics.recordRegistration(OutcomeError)
		return User{}, err
	}

	u, err := s.users.CreateUser(ctx, username, hash)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			s.metrics.recordRegistration(OutcomeConflict)
		} else {
			s.metrics.recordRegistration(OutcomeError)
		}
		return User{}, err
	}
	s.metrics.recordRegistration(OutcomeSuccess)
	return u.User(), nil
}

// RegistrationError describes rejected registration input. Reason is safe
// to show to the user.
type RegistrationError struct {
	Reason string
}

func (e *RegistrationError) Error() string { return "invalid registration: " + e.Reason }

func (e *RegistrationError) Unwrap() error { return ErrInvalidRegistration }

func validateRegistration(username, password string) error {
	switch {
	case username == "":
		return &RegistrationError{Reason: "Username is required."}
	case utf8.RuneCountInString(username) > maxUsernameLen:
		return &RegistrationError{Reason: fmt.Sprintf("Username must be at most %d characters.", maxUsernameLen)}
	case password == "":
		return &RegistrationError{Reason: "Password is required."}
	case len(password) > maxPasswordBytes:
		return &RegistrationError{Reason: fmt.Sprintf("Password must be at most %d bytes.", maxPasswordBytes)}
	}
	return nil
}
