package app

import (
	"errors"

	"vidstream/cmd/security/token"
)

// ValidateSecurityConfig enforces the startup security policy.
//
// Fail-fast: silently falling back to weaker session-secret hashing in
// production is unacceptable, so when HMAC is required the process refuses to
// start without a usable key. Enforcement goes through the same module that
// performs the hashing (security/token).
func ValidateSecurityConfig(cfg Config) error {
	if !cfg.RequireTokenHMAC {
		return nil
	}

	// Minimum 32 bytes for an HMAC-SHA256 secret, measured as raw bytes.
	if _, err := token.HMACKeyFromEnv(32); err != nil {
		switch {
		case errors.Is(err, token.ErrHMACKeyMissing):
			return errors.New("security policy: VIDSTREAM_REQUIRE_TOKEN_HMAC=true but VIDSTREAM_TOKEN_HMAC_KEY is missing")
		case errors.Is(err, token.ErrHMACKeyTooShort):
			return errors.New("security policy: VIDSTREAM_REQUIRE_TOKEN_HMAC=true but VIDSTREAM_TOKEN_HMAC_KEY is too short (min 32 bytes)")
		default:
			return err
		}
	}

	if !token.HMACEnabled() {
		return errors.New("security policy: VIDSTREAM_REQUIRE_TOKEN_HMAC=true but the session-secret hasher is not in HMAC mode")
	}

	return nil
}
