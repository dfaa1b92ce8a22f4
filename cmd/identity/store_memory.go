package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"vidstream/cmd/identity/ids"
)

// MemoryStore is an in-memory Store used for tests and DB-less dev mode.
// A single mutex guards all state; the session-secret compare-and-replace
// happens entirely inside the critical section.
type MemoryStore struct {
	mu      sync.Mutex
	byID    map[string]*User
	byLogin map[string]string // normalized username/email -> user id
}

// NewMemoryStore creates an empty in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*User),
		byLogin: make(map[string]string),
	}
}

func cloneUser(u *User) User {
	out := *u
	if u.AvatarURL != nil {
		v := *u.AvatarURL
		out.AvatarURL = &v
	}
	if u.CoverURL != nil {
		v := *u.CoverURL
		out.CoverURL = &v
	}
	if u.SessionSecretHash != nil {
		v := *u.SessionSecretHash
		out.SessionSecretHash = &v
	}
	return out
}

// CreateUser registers a new user, enforcing username/email uniqueness.
func (s *MemoryStore) CreateUser(_ context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	username := NormalizeUsername(in.Username)
	email := NormalizeEmail(in.Email)
	fullName := strings.TrimSpace(in.FullName)
	if username == "" || email == "" || fullName == "" || in.PasswordHash == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byLogin[username]; taken {
		return User{}, ConflictError{Op: op, Field: "username"}
	}
	if _, taken := s.byLogin[email]; taken {
		return User{}, ConflictError{Op: op, Field: "email"}
	}

	u := &User{
		ID:           id,
		Username:     username,
		Email:        email,
		FullName:     fullName,
		AvatarURL:    in.AvatarURL,
		CoverURL:     in.CoverURL,
		PasswordHash: in.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.byID[id] = u
	s.byLogin[username] = id
	s.byLogin[email] = id

	return cloneUser(u), nil
}

// GetUserByID loads a user by id.
func (s *MemoryStore) GetUserByID(_ context.Context, id string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return User{}, NotFoundError{Op: "identity.GetUserByID", Resource: "user"}
	}
	return cloneUser(u), nil
}

// GetUserByLogin resolves a username-or-email identifier.
func (s *MemoryStore) GetUserByLogin(_ context.Context, identifier string) (User, error) {
	login := NormalizeLogin(identifier)
	if login == "" {
		return User{}, OpError{Op: "identity.GetUserByLogin", Kind: ErrInvalidInput}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byLogin[login]
	if !ok {
		return User{}, NotFoundError{Op: "identity.GetUserByLogin", Resource: "user"}
	}
	return cloneUser(s.byID[id]), nil
}

// SetSessionSecret unconditionally replaces the stored digest.
func (s *MemoryStore) SetSessionSecret(_ context.Context, userID, secretHash string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok {
		return NotFoundError{Op: "identity.SetSessionSecret", Resource: "user"}
	}
	u.SessionSecretHash = &secretHash
	u.UpdatedAt = now
	return nil
}

// ReplaceSessionSecret performs the compare-and-replace under the store mutex.
func (s *MemoryStore) ReplaceSessionSecret(_ context.Context, userID, oldHash, newHash string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok {
		return false, nil
	}
	if u.SessionSecretHash == nil || *u.SessionSecretHash != oldHash {
		return false, nil
	}
	u.SessionSecretHash = &newHash
	u.UpdatedAt = now
	return true, nil
}

// ClearSessionSecret resets the digest. Idempotent.
func (s *MemoryStore) ClearSessionSecret(_ context.Context, userID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.byID[userID]; ok {
		u.SessionSecretHash = nil
		u.UpdatedAt = now
	}
	return nil
}

// UpdatePasswordHash stores a new password hash.
func (s *MemoryStore) UpdatePasswordHash(_ context.Context, userID, passwordHash string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok {
		return NotFoundError{Op: "identity.UpdatePasswordHash", Resource: "user"}
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = now
	return nil
}

// UpdateProfile applies non-nil fields and returns the updated user.
func (s *MemoryStore) UpdateProfile(_ context.Context, in UpdateProfileInput) (User, error) {
	const op = "identity.UpdateProfile"

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[in.UserID]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}

	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		if email == "" {
			return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "empty email"}
		}
		if owner, taken := s.byLogin[email]; taken && owner != u.ID {
			return User{}, ConflictError{Op: op, Field: "email"}
		}
		delete(s.byLogin, u.Email)
		s.byLogin[email] = u.ID
		u.Email = email
	}
	if in.FullName != nil && strings.TrimSpace(*in.FullName) != "" {
		u.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.AvatarURL != nil {
		v := *in.AvatarURL
		u.AvatarURL = &v
	}
	if in.CoverURL != nil {
		v := *in.CoverURL
		u.CoverURL = &v
	}
	u.UpdatedAt = in.Now

	return cloneUser(u), nil
}
