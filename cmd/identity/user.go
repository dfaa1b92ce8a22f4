package identity

import "time"

// User is the canonical security principal.
//
// PasswordHash and SessionSecretHash are server-side credentials; they must
// never appear in API responses or logs. Use Sanitized for outward projections.
type User struct {
	ID       string
	Username string
	Email    string
	FullName string

	// Opaque media references owned by the external media collaborator.
	AvatarURL *string
	CoverURL  *string

	PasswordHash string

	// SessionSecretHash holds the digest of the single currently-valid session
	// token, or nil when the user has no active session.
	SessionSecretHash *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity is the minimal projection attached to authenticated requests.
// It deliberately excludes all credential material.
type Identity struct {
	ID       string
	Username string
	Email    string
	FullName string
}

// Sanitized returns the credential-free projection of u.
func (u User) Sanitized() Identity {
	return Identity{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
	}
}

// HasActiveSession reports whether a session secret is currently stored.
func (u User) HasActiveSession() bool {
	return u.SessionSecretHash != nil && *u.SessionSecretHash != ""
}
