package token

import "errors"

var (
	// ErrHMACKeyMissing is returned when HMAC hashing is required but the key is unset.
	ErrHMACKeyMissing = errors.New("token hmac key missing")

	// ErrHMACKeyTooShort is returned when the configured HMAC key is below the minimum length.
	ErrHMACKeyTooShort = errors.New("token hmac key too short")
)
