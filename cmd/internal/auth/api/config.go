package authapi

import (
	"net/http"
	"os"
	"strconv"
	"strings"
)

// Cookie names match the transport contract consumed by clients.
const (
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"
)

// Config controls auth API transport behavior.
type Config struct {
	// Production hardens cookie delivery (Secure) and suppresses diagnostic
	// stacks in error responses.
	Production bool

	MaxBodyBytes int64

	CookiePath   string
	CookieDomain string
	SameSite     http.SameSite
}

// LoadConfigFromEnv loads auth API config with safe defaults.
//
// Variables:
//   - VIDSTREAM_ENV ("production" enables hardened transport)
//   - VIDSTREAM_AUTH_MAX_BODY_BYTES
//   - VIDSTREAM_COOKIE_DOMAIN
func LoadConfigFromEnv() Config {
	cfg := Config{
		Production:   strings.EqualFold(strings.TrimSpace(os.Getenv("VIDSTREAM_ENV")), "production"),
		MaxBodyBytes: 1 << 20, // 1 MiB
		CookiePath:   "/",
		CookieDomain: strings.TrimSpace(os.Getenv("VIDSTREAM_COOKIE_DOMAIN")),
		SameSite:     http.SameSiteLaxMode,
	}

	if v := strings.TrimSpace(os.Getenv("VIDSTREAM_AUTH_MAX_BODY_BYTES")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxBodyBytes = n
		}
	}

	return cfg
}
