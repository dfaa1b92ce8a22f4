package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig uses small Argon2id params so the suite stays fast.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Params.MemoryKiB = 8 * 1024
	cfg.Params.Iterations = 1
	return cfg
}

func TestHashVerify_RoundTrip(t *testing.T) {
	cfg := testConfig()

	for _, plain := range []string{"Secret123", "correct horse battery staple", "pässwörd-ütf8"} {
		enc, err := cfg.Hash(plain)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(enc, "$argon2id$v=19$"))

		ok, err := cfg.Verify(enc, plain)
		require.NoError(t, err)
		assert.True(t, ok, "hash of %q must verify", plain)

		ok, err = cfg.Verify(enc, plain+"x")
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestHash_SaltIsPerCall(t *testing.T) {
	cfg := testConfig()

	a, err := cfg.Hash("Secret123")
	require.NoError(t, err)
	b, err := cfg.Hash("Secret123")
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "two hashes of the same password must differ (random salt)")
}

func TestVerify_MalformedHash(t *testing.T) {
	cfg := testConfig()

	for _, enc := range []string{
		"",
		"not-a-hash",
		"$argon2id$v=19$m=8192,t=1,p=1$short",
		"$bcrypt$v=19$m=8192,t=1,p=1$AAAA$BBBB",
		"$argon2id$v=18$m=8192,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAA",
	} {
		ok, err := cfg.Verify(enc, "whatever")
		assert.False(t, ok)
		assert.ErrorIs(t, err, ErrInvalidHash, "input %q", enc)
	}
}

func TestVerify_RejectsOversizedParams(t *testing.T) {
	big := testConfig()
	big.Params.MemoryKiB = 64 * 1024
	enc, err := big.Hash("Secret123")
	require.NoError(t, err)

	small := testConfig()
	small.Params.MemoryKiB = 8 * 1024

	ok, err := small.Verify(enc, "Secret123")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestPolicy(t *testing.T) {
	cfg := testConfig()

	assert.ErrorIs(t, cfg.Validate("short"), ErrPasswordTooShort)
	assert.ErrorIs(t, cfg.Validate(strings.Repeat("a", 300)), ErrPasswordTooLong)
	assert.ErrorIs(t, cfg.Validate("aaaaaaaaaa"), ErrWeakPassword)
	assert.ErrorIs(t, cfg.Validate("1234567890"), ErrWeakPassword)
	assert.ErrorIs(t, cfg.Validate("password123"), ErrWeakPassword)
	assert.NoError(t, cfg.Validate("Secret123"))
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Setenv("VIDSTREAM_PW_ITERATIONS", "0")
	_, err := FromEnv()
	assert.ErrorIs(t, err, ErrConfig)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("VIDSTREAM_PW_ITERATIONS", "4")
	t.Setenv("VIDSTREAM_PW_MIN_LENGTH", "12")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, uint32(4), cfg.Params.Iterations)
	assert.Equal(t, 12, cfg.Policy.MinLength)
}
