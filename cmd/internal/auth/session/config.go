package session

import (
	"os"
	"time"
)

// Config defines runtime configuration for the token scheme.
//
// The two signing secrets are distinct by contract: a leaked access-signing
// key must not be usable to mint long-lived session tokens. Secrets are
// loaded once at startup and never rotated at runtime.
type Config struct {
	// Issuer is the value set in the "iss" claim of both token classes.
	Issuer string

	// AccessTTL is the short validity window of access tokens.
	AccessTTL time.Duration

	// SessionTTL is the long validity window of session tokens.
	SessionTTL time.Duration

	// ClockSkew is the allowed time skew during verification.
	ClockSkew time.Duration

	// AccessSecret signs access tokens (HMAC-SHA256).
	AccessSecret string

	// SessionSecret signs session tokens. Must differ from AccessSecret.
	SessionSecret string
}

const minSecretBytes = 32

// DefaultConfig returns TTL defaults suitable for development.
// Secrets have no default; they must come from the environment.
func DefaultConfig() Config {
	return Config{
		Issuer:     "vidstream",
		AccessTTL:  15 * time.Minute,
		SessionTTL: 7 * 24 * time.Hour,
		ClockSkew:  30 * time.Second,
	}
}

// Validate checks the invariants NewTokenManager relies on.
func (c Config) Validate() error {
	if c.Issuer == "" || c.AccessTTL <= 0 || c.SessionTTL <= 0 || c.ClockSkew < 0 {
		return ErrConfig
	}
	if len(c.AccessSecret) < minSecretBytes || len(c.SessionSecret) < minSecretBytes {
		return ErrConfig
	}
	if c.AccessSecret == c.SessionSecret {
		return ErrConfig
	}
	return nil
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - VIDSTREAM_ACCESS_TOKEN_SECRET  (>= 32 bytes)
//   - VIDSTREAM_SESSION_TOKEN_SECRET (>= 32 bytes, distinct from access)
//
// Optional (valid Go duration strings):
//   - VIDSTREAM_AUTH_ISSUER
//   - VIDSTREAM_ACCESS_TOKEN_TTL
//   - VIDSTREAM_SESSION_TOKEN_TTL
//   - VIDSTREAM_AUTH_CLOCK_SKEW
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("VIDSTREAM_AUTH_ISSUER"); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("VIDSTREAM_ACCESS_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.AccessTTL = d
	}

	if v := os.Getenv("VIDSTREAM_SESSION_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.SessionTTL = d
	}

	if v := os.Getenv("VIDSTREAM_AUTH_CLOCK_SKEW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.ClockSkew = d
	}

	cfg.AccessSecret = os.Getenv("VIDSTREAM_ACCESS_TOKEN_SECRET")
	cfg.SessionSecret = os.Getenv("VIDSTREAM_SESSION_TOKEN_SECRET")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
