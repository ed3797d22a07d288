package core

import (
	"context"
	"errors"
)

// User is the authenticated principal kept in the session. It never carries
// the password digest.
type User struct {
	Username string
	Overall  int
}

var (
	// ErrInvalidCredentials is returned when username/password is wrong.
	// Unknown usernames map to it as well.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound is returned by repositories when no row matches.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken is returned when the username already exists.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidRegistration is returned when registration input fails validation.
	ErrInvalidRegistration = errors.New("invalid registration")

	// ErrStoreUnavailable wraps unexpected persistence failures.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// AuthService defines authentication behaviour.
type AuthService interface {
	Authenticate(ctx context.Context, username, password string) (User, error)
	Register(ctx context.Context, username, password string) (User, error)
}
