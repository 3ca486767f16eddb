package auth

import "errors"

var (
	// ErrConflict means the email is already registered.
	ErrConflict = errors.New("email already registered")
	// ErrInvalidCredentials is the single answer for an unknown email or a
	// wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken means a reset token is unknown, consumed or expired.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrUnauthorized means a session token failed verification.
	ErrUnauthorized = errors.New("unauthorized")
)
