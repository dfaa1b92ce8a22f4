package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClaims is the verified content of either token class.
type TokenClaims struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenManager issues and verifies the two token classes. Access tokens are
// fully stateless; session tokens additionally participate in the stored-state
// equality check performed by Service.
type TokenManager interface {
	IssueAccess(userID string, now time.Time) (token string, exp time.Time, err error)
	IssueSession(userID string, now time.Time) (token string, exp time.Time, err error)
	VerifyAccess(token string, now time.Time) (TokenClaims, error)
	VerifySession(token string, now time.Time) (TokenClaims, error)
}

type jwtManager struct {
	issuer    string
	clockSkew time.Duration

	accessSecret  []byte
	accessTTL     time.Duration
	sessionSecret []byte
	sessionTTL    time.Duration
}

// NewTokenManager builds a TokenManager on HMAC-SHA256 JWTs with distinct
// access and session signing secrets.
func NewTokenManager(cfg Config) (TokenManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &jwtManager{
		issuer:        cfg.Issuer,
		clockSkew:     cfg.ClockSkew,
		accessSecret:  []byte(cfg.AccessSecret),
		accessTTL:     cfg.AccessTTL,
		sessionSecret: []byte(cfg.SessionSecret),
		sessionTTL:    cfg.SessionTTL,
	}, nil
}

func (m *jwtManager) IssueAccess(userID string, now time.Time) (string, time.Time, error) {
	return m.issue(userID, now, m.accessTTL, m.accessSecret)
}

func (m *jwtManager) IssueSession(userID string, now time.Time) (string, time.Time, error) {
	return m.issue(userID, now, m.sessionTTL, m.sessionSecret)
}

func (m *jwtManager) VerifyAccess(token string, now time.Time) (TokenClaims, error) {
	return m.verify(token, now, m.accessSecret)
}

func (m *jwtManager) VerifySession(token string, now time.Time) (TokenClaims, error) {
	return m.verify(token, now, m.sessionSecret)
}

func (m *jwtManager) issue(userID string, now time.Time, ttl time.Duration, secret []byte) (string, time.Time, error) {
	exp := now.Add(ttl)

	// jti makes every issued token unique even within the one-second claim
	// resolution, so two rotations in the same instant still produce distinct
	// stored secrets.
	claims := jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (m *jwtManager) verify(token string, now time.Time, secret []byte) (TokenClaims, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(m.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return TokenClaims{}, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return TokenClaims{}, ErrTokenExpired
		default:
			return TokenClaims{}, ErrTokenInvalid
		}
	}

	if claims.Subject == "" {
		return TokenClaims{}, ErrTokenInvalid
	}

	out := TokenClaims{UserID: claims.Subject}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
