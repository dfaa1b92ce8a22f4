package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"vidstream/cmd/identity/ids"
)

// PostgresStore implements Store on vidstream.users.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed credential store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("identity: nil db pool")
	}
	return &PostgresStore{pool: pool}, nil
}

const userColumns = `
	id, username, email, full_name,
	avatar_url, cover_url,
	password_hash, session_secret_hash,
	created_at, updated_at
`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FullName,
		&u.AvatarURL,
		&u.CoverURL,
		&u.PasswordHash,
		&u.SessionSecretHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

// CreateUser inserts a new user row. Uniqueness of username and email is
// enforced by the schema; violations map to ConflictError with the field name.
func (s *PostgresStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
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

	row := s.pool.QueryRow(ctx, `
		INSERT INTO vidstream.users (
			id, username, email, full_name,
			avatar_url, cover_url,
			password_hash, session_secret_hash,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, $8, $8)
		RETURNING `+userColumns,
		id, username, email, fullName, in.AvatarURL, in.CoverURL, in.PasswordHash, now,
	)

	u, err := scanUser(row)
	if err != nil {
		if field, ok := uniqueViolationField(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}
	return u, nil
}

// GetUserByID loads a user row by id.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM vidstream.users
		WHERE id = $1
	`, id)

	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: "identity.GetUserByID", Resource: "user"}
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUserByLogin resolves a username-or-email identifier to a user row.
// Username and email share the same canonical form, so one normalized value
// probes both columns.
func (s *PostgresStore) GetUserByLogin(ctx context.Context, identifier string) (User, error) {
	login := NormalizeLogin(identifier)
	if login == "" {
		return User{}, OpError{Op: "identity.GetUserByLogin", Kind: ErrInvalidInput}
	}

	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM vidstream.users
		WHERE username = $1 OR email = $1
	`, login)

	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: "identity.GetUserByLogin", Resource: "user"}
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// SetSessionSecret unconditionally replaces the stored session-secret digest.
func (s *PostgresStore) SetSessionSecret(ctx context.Context, userID, secretHash string, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE vidstream.users
		SET session_secret_hash = $2, updated_at = $3
		WHERE id = $1
	`, userID, secretHash, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return NotFoundError{Op: "identity.SetSessionSecret", Resource: "user"}
	}
	return nil
}

// ReplaceSessionSecret swaps the stored digest from oldHash to newHash in a
// single conditional UPDATE. The WHERE clause is the linearization point: of
// two concurrent rotations presenting the same oldHash, exactly one matches.
func (s *PostgresStore) ReplaceSessionSecret(ctx context.Context, userID, oldHash, newHash string, now time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE vidstream.users
		SET session_secret_hash = $3, updated_at = $4
		WHERE id = $1 AND session_secret_hash = $2
	`, userID, oldHash, newHash, now)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ClearSessionSecret resets the digest to NULL. Idempotent: clearing an
// already-cleared secret affects the row again and still succeeds.
func (s *PostgresStore) ClearSessionSecret(ctx context.Context, userID string, now time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE vidstream.users
		SET session_secret_hash = NULL, updated_at = $2
		WHERE id = $1
	`, userID, now)
	return err
}

// UpdatePasswordHash stores a new password hash.
func (s *PostgresStore) UpdatePasswordHash(ctx context.Context, userID, passwordHash string, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE vidstream.users
		SET password_hash = $2, updated_at = $3
		WHERE id = $1
	`, userID, passwordHash, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return NotFoundError{Op: "identity.UpdatePasswordHash", Resource: "user"}
	}
	return nil
}

// UpdateProfile applies the non-nil fields of in and returns the updated row.
func (s *PostgresStore) UpdateProfile(ctx context.Context, in UpdateProfileInput) (User, error) {
	const op = "identity.UpdateProfile"

	var email *string
	if in.Email != nil {
		e := NormalizeEmail(*in.Email)
		if e == "" {
			return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "empty email"}
		}
		email = &e
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE vidstream.users
		SET
			full_name  = COALESCE($2, full_name),
			email      = COALESCE($3, email),
			avatar_url = COALESCE($4, avatar_url),
			cover_url  = COALESCE($5, cover_url),
			updated_at = $6
		WHERE id = $1
		RETURNING `+userColumns,
		in.UserID, in.FullName, email, in.AvatarURL, in.CoverURL, in.Now,
	)

	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	if err != nil {
		if field, ok := uniqueViolationField(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}
	return u, nil
}

// uniqueViolationField maps a Postgres unique_violation to the logical field name.
func uniqueViolationField(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23505" { // unique_violation
		return "", false
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "username"):
		return "username", true
	case strings.Contains(pgErr.ConstraintName, "email"):
		return "email", true
	default:
		return "", true
	}
}
