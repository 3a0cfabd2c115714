// Package config builds the single explicit configuration object passed into
// every component at startup. Nothing in the codebase reads the environment
// after FromEnv returns.
package config

import (
	"os"
	"strconv"
	"time"

	dErrors "heirloom/pkg/domain-errors"
)

// SessionTTL is the fixed validity window for session tokens. There is no
// refresh mechanism; clients re-authenticate after expiry.
const SessionTTL = 7 * 24 * time.Hour

// Config captures everything the server needs at startup.
type Config struct {
	Addr        string
	DatabaseURL string

	// SessionSigningKey signs session tokens. Missing key is a fatal
	// configuration error: the session issuer refuses to operate rather
	// than run unsigned.
	SessionSigningKey string
	SessionTTL        time.Duration

	// CookieSecure toggles the Secure attribute on the session cookie.
	// Disabled only for local plain-HTTP development.
	CookieSecure bool

	Redis RedisConfig

	// AdminNotifyEmail is the administrator channel for forgot-password
	// notifications. The notifier itself is an external collaborator.
	AdminNotifyEmail string

	SeedDemoData bool
}

// RedisConfig tunes the optional revocation-list backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
// It never fails: validation of required values is left to Validate so tests
// can construct partial configs directly.
func FromEnv() Config {
	cfg := Config{
		Addr:              envOr("HEIRLOOM_ADDR", ":8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		SessionSigningKey: os.Getenv("SESSION_SIGNING_KEY"),
		SessionTTL:        SessionTTL,
		CookieSecure:      os.Getenv("COOKIE_SECURE") != "false",
		AdminNotifyEmail:  envOr("ADMIN_NOTIFY_EMAIL", "admin@localhost"),
		SeedDemoData:      os.Getenv("SEED_DEMO_DATA") == "true",
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}

	if ttl := os.Getenv("SESSION_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil && d > 0 {
			cfg.SessionTTL = d
		}
	}

	return cfg
}

// Validate enforces the configuration invariants the server cannot start
// without. Signing keys are deliberately not defaulted: a missing secret must
// abort startup, never degrade to a known key.
func (c Config) Validate() error {
	if c.SessionSigningKey == "" {
		return dErrors.New(dErrors.CodeConfiguration, "SESSION_SIGNING_KEY is not set")
	}
	if c.SessionTTL <= 0 {
		return dErrors.New(dErrors.CodeConfiguration, "session TTL must be positive")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
