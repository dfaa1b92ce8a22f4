package identity

import "errors"

// Sentinel error kinds. Callers match with errors.Is or the Is* helpers.
var (
	// ErrNotFound reports a missing user record.
	ErrNotFound = errors.New("not found")

	// ErrConflict reports a uniqueness violation (username/email already taken).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput reports a request that fails basic validation.
	ErrInvalidInput = errors.New("invalid input")
)
