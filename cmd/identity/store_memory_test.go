package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser(t *testing.T, s Store, username, email string) User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), CreateUserInput{
		Username:     username,
		Email:        email,
		FullName:     "Test User",
		PasswordHash: "$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2Fs$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g",
		Now:          time.Now().UTC(),
	})
	require.NoError(t, err)
	return u
}

func TestMemoryStore_CreateAndLookup(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	u := newTestUser(t, s, "Ana", "Ana@x.io")
	assert.Equal(t, "ana", u.Username, "username is stored normalized")
	assert.Equal(t, "ana@x.io", u.Email)
	assert.Nil(t, u.SessionSecretHash)

	byID, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byID.ID)

	for _, login := range []string{"ana", "ANA", " ana@x.io "} {
		got, err := s.GetUserByLogin(ctx, login)
		require.NoError(t, err, "login %q", login)
		assert.Equal(t, u.ID, got.ID)
	}

	_, err = s.GetUserByLogin(ctx, "nobody")
	assert.True(t, IsNotFound(err))
}

func TestMemoryStore_CreateConflicts(t *testing.T) {
	s := NewMemoryStore()
	newTestUser(t, s, "ana", "ana@x.io")

	_, err := s.CreateUser(context.Background(), CreateUserInput{
		Username:     "ana",
		Email:        "other@x.io",
		FullName:     "Other",
		PasswordHash: "h",
	})
	assert.True(t, IsConflict(err))

	_, err = s.CreateUser(context.Background(), CreateUserInput{
		Username:     "other",
		Email:        "ANA@x.io",
		FullName:     "Other",
		PasswordHash: "h",
	})
	assert.True(t, IsConflict(err))
}

func TestMemoryStore_SessionSecretLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()
	u := newTestUser(t, s, "ana", "ana@x.io")

	require.NoError(t, s.SetSessionSecret(ctx, u.ID, "h1", now))

	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.HasActiveSession())
	assert.Equal(t, "h1", *got.SessionSecretHash)

	// Compare-and-replace succeeds once, then the old digest is gone.
	ok, err := s.ReplaceSessionSecret(ctx, u.ID, "h1", "h2", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ReplaceSessionSecret(ctx, u.ID, "h1", "h3", now)
	require.NoError(t, err)
	assert.False(t, ok, "superseded digest must not swap again")

	// Clear is idempotent and defeats any further replace.
	require.NoError(t, s.ClearSessionSecret(ctx, u.ID, now))
	require.NoError(t, s.ClearSessionSecret(ctx, u.ID, now))

	ok, err = s.ReplaceSessionSecret(ctx, u.ID, "h2", "h4", now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_ReplaceSessionSecret_SingleWinner(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()
	u := newTestUser(t, s, "ana", "ana@x.io")
	require.NoError(t, s.SetSessionSecret(ctx, u.ID, "old", now))

	const n = 32
	var wg sync.WaitGroup
	wins := make(chan int, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := s.ReplaceSessionSecret(ctx, u.ID, "old", "new", now)
			require.NoError(t, err)
			if ok {
				wins <- i
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count, "exactly one concurrent replace must win")
}

func TestMemoryStore_UpdateProfile(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	u := newTestUser(t, s, "ana", "ana@x.io")
	newTestUser(t, s, "bob", "bob@x.io")

	name := "Ana Lovelace"
	email := "ana2@x.io"
	got, err := s.UpdateProfile(ctx, UpdateProfileInput{
		UserID:   u.ID,
		FullName: &name,
		Email:    &email,
		Now:      time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Lovelace", got.FullName)
	assert.Equal(t, "ana2@x.io", got.Email)

	// Old email is released, new one resolves.
	_, err = s.GetUserByLogin(ctx, "ana@x.io")
	assert.True(t, IsNotFound(err))
	byNew, err := s.GetUserByLogin(ctx, "ana2@x.io")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byNew.ID)

	// Taking another user's email conflicts.
	taken := "bob@x.io"
	_, err = s.UpdateProfile(ctx, UpdateProfileInput{UserID: u.ID, Email: &taken, Now: time.Now().UTC()})
	assert.True(t, IsConflict(err))
}

func TestSanitized_ExcludesCredentials(t *testing.T) {
	s := NewMemoryStore()
	u := newTestUser(t, s, "ana", "ana@x.io")

	id := u.Sanitized()
	assert.Equal(t, u.ID, id.ID)
	assert.Equal(t, "ana", id.Username)
	assert.Equal(t, "ana@x.io", id.Email)
}
