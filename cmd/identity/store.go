package identity

import (
	"context"
	"time"
)

// CreateUserInput describes a registration request. The caller hashes the
// password before persisting; the store never sees plaintext.
type CreateUserInput struct {
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	AvatarURL    *string
	CoverURL     *string
	Now          time.Time
}

// UpdateProfileInput describes an account-details update.
// Nil fields are left unchanged.
type UpdateProfileInput struct {
	UserID    string
	FullName  *string
	Email     *string
	AvatarURL *string
	CoverURL  *string
	Now       time.Time
}

// Store is the credential persistence boundary.
//
// Contract for the session-secret operations:
//   - SetSessionSecret unconditionally overwrites the stored digest (login is
//     always a rotation, replacing whatever was there).
//   - ReplaceSessionSecret performs an atomic compare-and-replace and reports
//     whether the swap happened. A false return means the stored digest no
//     longer equals oldHash: the presented token has been superseded.
//   - ClearSessionSecret resets the digest to the no-active-session sentinel
//     (NULL) and is idempotent.
type Store interface {
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)
	GetUserByLogin(ctx context.Context, identifier string) (User, error)

	SetSessionSecret(ctx context.Context, userID, secretHash string, now time.Time) error
	ReplaceSessionSecret(ctx context.Context, userID, oldHash, newHash string, now time.Time) (bool, error)
	ClearSessionSecret(ctx context.Context, userID string, now time.Time) error

	UpdatePasswordHash(ctx context.Context, userID, passwordHash string, now time.Time) error
	UpdateProfile(ctx context.Context, in UpdateProfileInput) (User, error)
}
