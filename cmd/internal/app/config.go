package app

import (
	"strings"
	"time"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr string
	LogLevel string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// If true, embedded schema migrations run at startup before the server
	// accepts traffic.
	DBMigrate bool

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	// Security policy:
	// If true, VIDSTREAM_TOKEN_HMAC_KEY MUST be set (>= 32 bytes) and session
	// secret hashing must be HMAC-based.
	RequireTokenHMAC bool

	// If true, /metrics is served from this process.
	MetricsEnabled bool

	// Browser origin allowlist for cookie-carrying requests. Empty means no
	// cross-origin browser access.
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr: EnvString("VIDSTREAM_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel: EnvString("VIDSTREAM_LOG_LEVEL", "info"),

		ReadHeaderTimeout: EnvDuration("VIDSTREAM_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("VIDSTREAM_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("VIDSTREAM_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("VIDSTREAM_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("VIDSTREAM_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("VIDSTREAM_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("VIDSTREAM_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("VIDSTREAM_DB_MIN_CONNS", 0),
		DBMigrate:   EnvBool("VIDSTREAM_DB_MIGRATE", true),

		ReadinessRequireDB: EnvBool("VIDSTREAM_READINESS_REQUIRE_DB", false),

		RequireTokenHMAC: EnvBool("VIDSTREAM_REQUIRE_TOKEN_HMAC", false),

		MetricsEnabled: EnvBool("VIDSTREAM_METRICS_ENABLED", true),

		CORSAllowedOrigins:   splitCSV(EnvString("VIDSTREAM_CORS_ALLOWED_ORIGINS", "")),
		CORSAllowCredentials: EnvBool("VIDSTREAM_CORS_ALLOW_CREDENTIALS", true),
		CORSMaxAgeSeconds:    EnvInt("VIDSTREAM_CORS_MAX_AGE_SECONDS", 600),
	}
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
