package password

import (
	"os"
	"strconv"
	"strings"
)

// Argon2idParams defines the Argon2id cost parameters used for hashing.
type Argon2idParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Policy defines the password acceptance rules applied before hashing.
type Policy struct {
	MinLength      int
	MaxLength      int
	RejectVeryWeak bool
}

// Config bundles hashing parameters and policy.
type Config struct {
	Params Argon2idParams
	Policy Policy
}

// DefaultConfig returns parameters suitable for interactive logins
// (OWASP-aligned Argon2id settings) and a min-8 policy.
func DefaultConfig() Config {
	return Config{
		Params: Argon2idParams{
			MemoryKiB:   64 * 1024,
			Iterations:  3,
			Parallelism: 1,
			SaltLength:  16,
			KeyLength:   32,
		},
		Policy: Policy{
			MinLength:      8,
			MaxLength:      256,
			RejectVeryWeak: true,
		},
	}
}

// FromEnv loads Config from environment variables, falling back to defaults.
//
// Recognized variables:
//   - VIDSTREAM_PW_MEMORY_KIB
//   - VIDSTREAM_PW_ITERATIONS
//   - VIDSTREAM_PW_PARALLELISM
//   - VIDSTREAM_PW_MIN_LENGTH
//   - VIDSTREAM_PW_MAX_LENGTH
//
// Returns ErrConfig for values that are present but out of sane bounds.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v, ok, err := envUint32("VIDSTREAM_PW_MEMORY_KIB", 8*1024, 1024*1024); err != nil {
		return Config{}, err
	} else if ok {
		cfg.Params.MemoryKiB = v
	}

	if v, ok, err := envUint32("VIDSTREAM_PW_ITERATIONS", 1, 32); err != nil {
		return Config{}, err
	} else if ok {
		cfg.Params.Iterations = v
	}

	if v, ok, err := envUint32("VIDSTREAM_PW_PARALLELISM", 1, 16); err != nil {
		return Config{}, err
	} else if ok {
		cfg.Params.Parallelism = uint8(v)
	}

	if v, ok, err := envInt("VIDSTREAM_PW_MIN_LENGTH", 8, 128); err != nil {
		return Config{}, err
	} else if ok {
		cfg.Policy.MinLength = v
	}

	if v, ok, err := envInt("VIDSTREAM_PW_MAX_LENGTH", 64, 1024); err != nil {
		return Config{}, err
	} else if ok {
		cfg.Policy.MaxLength = v
	}

	if cfg.Policy.MinLength > cfg.Policy.MaxLength {
		return Config{}, ErrConfig
	}

	return cfg, nil
}

func envUint32(key string, min, max uint64) (uint32, bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || n < min || n > max {
		return 0, false, ErrConfig
	}
	return uint32(n), true, nil
}

func envInt(key string, min, max int) (int, bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		return 0, false, ErrConfig
	}
	return n, true, nil
}
