// Package config loads service configuration from the environment.
// Every knob has a default that works for local development; production
// deployments override through env vars only.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr string

	PostgresDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CacheTTL time.Duration

	RateLimitRequests   int
	RateLimitWindow     time.Duration
	RateLimitFailClosed bool

	// LedgerProvider selects "memory" or "chain".
	LedgerProvider string
	LedgerEndpoint string
	LedgerAPIKey   string
	LedgerTimeout  time.Duration

	// PolicyBundlePath is optional; empty disables the disclosure policy.
	PolicyBundlePath string

	// PartialFieldKeys is a comma-separated whitelist of detail fields
	// disclosed at partial level.
	PartialFieldKeys string

	LogLevel string
}

func FromEnv() Config {
	return Config{
		HTTPAddr: envDefault("VERIDOC_HTTP_ADDR", ":8080"),

		PostgresDSN: envDefault("VERIDOC_POSTGRES_DSN", "host=localhost user=veridoc password=veridoc dbname=veridoc port=5432 sslmode=disable"),

		RedisAddr:     envDefault("VERIDOC_REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("VERIDOC_REDIS_PASSWORD"),
		RedisDB:       envInt("VERIDOC_REDIS_DB", 0),

		CacheTTL: envDuration("VERIDOC_CACHE_TTL", 5*time.Minute),

		RateLimitRequests:   envInt("VERIDOC_RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:     envDuration("VERIDOC_RATE_LIMIT_WINDOW", time.Minute),
		RateLimitFailClosed: envBool("VERIDOC_RATE_LIMIT_FAIL_CLOSED", false),

		LedgerProvider: envDefault("VERIDOC_LEDGER_PROVIDER", "memory"),
		LedgerEndpoint: os.Getenv("VERIDOC_LEDGER_ENDPOINT"),
		LedgerAPIKey:   os.Getenv("VERIDOC_LEDGER_API_KEY"),
		LedgerTimeout:  envDuration("VERIDOC_LEDGER_TIMEOUT", 5*time.Second),

		PolicyBundlePath: os.Getenv("VERIDOC_POLICY_BUNDLE"),

		PartialFieldKeys: envDefault("VERIDOC_PARTIAL_FIELDS", "document_type,issued_country,status"),

		LogLevel: envDefault("VERIDOC_LOG_LEVEL", "info"),
	}
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
