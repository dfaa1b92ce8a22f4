package session

import (
	"context"
	"errors"
	"time"

	"vidstream/cmd/identity"
	"vidstream/cmd/security/token"
)

// Service implements the high-level credential/session operations: login,
// refresh rotation, logout, and the authentication gate used by protected
// routes.
type Service struct {
	store  identity.Store
	tokens TokenManager

	// dummyHash keeps login timing comparable when the user does not exist.
	dummyHash string
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	SessionToken     string
	SessionExpiresAt time.Time
}

// NewService constructs a Service over a credential store and token manager.
func NewService(store identity.Store, tokens TokenManager) *Service {
	s := &Service{store: store, tokens: tokens}
	if h, err := identity.HashPassword("dummy-password-for-timing-only"); err == nil {
		s.dummyHash = h
	}
	return s
}

// Login resolves identifier (username or email), verifies the password, and
// rotates the user onto a fresh session: the new session token's digest
// overwrites whatever secret was stored before.
//
// Failure kinds: ErrUserNotFound, ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, identifier, password string, now time.Time) (identity.User, TokenPair, error) {
	user, err := s.store.GetUserByLogin(ctx, identifier)
	if err != nil {
		if identity.IsNotFound(err) || identity.IsInvalidInput(err) {
			// Timing resistance: run a dummy verify when the user is missing.
			if s.dummyHash != "" {
				_, _ = identity.VerifyPassword(password, s.dummyHash)
			}
			return identity.User{}, TokenPair{}, ErrUserNotFound
		}
		return identity.User{}, TokenPair{}, err
	}

	ok, err := identity.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return identity.User{}, TokenPair{}, err
	}
	if !ok {
		return identity.User{}, TokenPair{}, ErrInvalidCredentials
	}

	sessionTok, sessionExp, err := s.tokens.IssueSession(user.ID, now)
	if err != nil {
		return identity.User{}, TokenPair{}, err
	}

	if err := s.store.SetSessionSecret(ctx, user.ID, token.HashSessionTokenHex(sessionTok), now); err != nil {
		if identity.IsNotFound(err) {
			return identity.User{}, TokenPair{}, ErrUserNotFound
		}
		return identity.User{}, TokenPair{}, err
	}

	accessTok, accessExp, err := s.tokens.IssueAccess(user.ID, now)
	if err != nil {
		return identity.User{}, TokenPair{}, err
	}

	return user, TokenPair{
		AccessToken:      accessTok,
		AccessExpiresAt:  accessExp,
		SessionToken:     sessionTok,
		SessionExpiresAt: sessionExp,
	}, nil
}

// Refresh consumes a presented session token and rotates it.
//
// The signature/expiry check is necessary but not sufficient: the presented
// token must also equal the currently stored secret. The swap from old digest
// to new digest is a single atomic compare-and-replace, so under concurrent
// refreshes with the same token exactly one caller wins; the rest observe
// ErrSessionSuperseded.
//
// Failure kinds: ErrTokenMalformed, ErrTokenExpired, ErrTokenInvalid,
// ErrUserNotFound, ErrSessionSuperseded.
func (s *Service) Refresh(ctx context.Context, presented string, now time.Time) (identity.User, TokenPair, error) {
	claims, err := s.tokens.VerifySession(presented, now)
	if err != nil {
		return identity.User{}, TokenPair{}, err
	}

	user, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if identity.IsNotFound(err) {
			return identity.User{}, TokenPair{}, ErrUserNotFound
		}
		return identity.User{}, TokenPair{}, err
	}

	newTok, newExp, err := s.tokens.IssueSession(user.ID, now)
	if err != nil {
		return identity.User{}, TokenPair{}, err
	}

	swapped, err := s.store.ReplaceSessionSecret(
		ctx,
		user.ID,
		token.HashSessionTokenHex(presented),
		token.HashSessionTokenHex(newTok),
		now,
	)
	if err != nil {
		return identity.User{}, TokenPair{}, err
	}
	if !swapped {
		return identity.User{}, TokenPair{}, ErrSessionSuperseded
	}

	accessTok, accessExp, err := s.tokens.IssueAccess(user.ID, now)
	if err != nil {
		return identity.User{}, TokenPair{}, err
	}

	return user, TokenPair{
		AccessToken:      accessTok,
		AccessExpiresAt:  accessExp,
		SessionToken:     newTok,
		SessionExpiresAt: newExp,
	}, nil
}

// Logout clears the stored session secret. Idempotent: logging out twice is
// not an error, and a refresh after logout fails with ErrSessionSuperseded
// because the cleared sentinel never equals a presented token.
func (s *Service) Logout(ctx context.Context, userID string, now time.Time) error {
	return s.store.ClearSessionSecret(ctx, userID, now)
}

// Authenticate verifies an access token and resolves the minimal identity
// projection. Every failure collapses to ErrUnauthenticated so callers cannot
// distinguish expired from forged from deleted-user.
func (s *Service) Authenticate(ctx context.Context, accessToken string, now time.Time) (identity.Identity, error) {
	claims, err := s.tokens.VerifyAccess(accessToken, now)
	if err != nil {
		return identity.Identity{}, ErrUnauthenticated
	}

	user, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if identity.IsNotFound(err) {
			return identity.Identity{}, ErrUnauthenticated
		}
		return identity.Identity{}, err
	}

	return user.Sanitized(), nil
}

// ChangePassword verifies the current password and stores a hash of the new one.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string, now time.Time) error {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if identity.IsNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}

	ok, err := identity.VerifyPassword(oldPassword, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}

	hash, err := identity.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.store.UpdatePasswordHash(ctx, userID, hash, now)
}

// IsTokenFailure reports whether err is one of the token-validation kinds
// that the HTTP boundary collapses into a uniform 401.
func IsTokenFailure(err error) bool {
	return errors.Is(err, ErrTokenInvalid) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenMalformed) ||
		errors.Is(err, ErrSessionSuperseded)
}
