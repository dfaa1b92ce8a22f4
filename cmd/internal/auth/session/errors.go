package session

import "errors"

var (
	// ErrTokenInvalid is returned when a token fails signature verification.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenExpired is returned when a structurally valid token has lapsed.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenMalformed is returned for structurally invalid token input.
	ErrTokenMalformed = errors.New("malformed token")

	// ErrSessionSuperseded is returned when a session token was once valid but
	// has been rotated away (reused after refresh, or presented after logout).
	ErrSessionSuperseded = errors.New("session superseded")

	// ErrUserNotFound is returned when the login identifier or token subject
	// resolves to no stored user.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned on password mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated is the uniform gate failure. It deliberately collapses
	// the token-validation kinds so the gate cannot be used as an oracle.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid session config")
)
