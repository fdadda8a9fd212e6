package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string

	// CORS
	CORSOrigins string // Comma-separated allowed origins, e.g. "https://app.example.com"

	// ContactOut upstream
	ContactOutAPIKey  string
	ContactOutBaseURL string
	UpstreamTimeout   time.Duration

	// Redis (cache + rate-limit counters)
	RedisURL string

	// Rate limiting, requests per minute per organization
	RateLimitSearch         int
	RateLimitContactChecker int
	RateLimitOther          int
	RateLimitFailClosed     bool // Reject requests when the counter store is unreachable
	InboundRateLimit        int  // Requests per minute per organization at the HTTP edge

	// Quality scoring
	QualityBatchSize  int
	QualityBatchPause time.Duration

	// Serve canned demo data when the upstream rate limit is hit
	DegradedModeEnabled bool

	// OIDC bearer tokens for internal callers (optional)
	OIDCIssuer   string
	OIDCClientID string
	OIDCOrgClaim string // Claim carrying the organization id, default "org_id"

	// Background usage poller
	UsagePollSchedule string // cron spec, empty disables the poller
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	env := getEnv("ENV", "development")
	cfg := &Config{
		Env:                     env,
		ServerAddr:              getEnv("SERVER_ADDR", ":5001"),
		CORSOrigins:             getEnv("CORS_ORIGINS", "http://localhost:3000"),
		ContactOutAPIKey:        getEnv("CONTACTOUT_API_KEY", ""),
		ContactOutBaseURL:       getEnv("CONTACTOUT_BASE_URL", "https://api.contactout.com"),
		UpstreamTimeout:         getEnvDuration("CONTACTOUT_TIMEOUT", 30*time.Second),
		RedisURL:                getEnv("REDIS_URL", "redis://localhost:6379"),
		RateLimitSearch:         getEnvInt("CONTACTOUT_RATE_LIMIT_SEARCH", 60),
		RateLimitContactChecker: getEnvInt("CONTACTOUT_RATE_LIMIT_CONTACT_CHECKER", 150),
		RateLimitOther:          getEnvInt("CONTACTOUT_RATE_LIMIT_OTHER", 1000),
		InboundRateLimit:        getEnvInt("INBOUND_RATE_LIMIT", 300),
		QualityBatchSize:        getEnvInt("QUALITY_BATCH_SIZE", 5),
		QualityBatchPause:       getEnvDuration("QUALITY_BATCH_PAUSE", 500*time.Millisecond),
		DegradedModeEnabled:     getEnv("DEGRADED_MODE_ENABLED", "") != "",
		OIDCIssuer:              getEnv("OIDC_ISSUER", ""),
		OIDCClientID:            getEnv("OIDC_CLIENT_ID", ""),
		OIDCOrgClaim:            getEnv("OIDC_ORG_CLAIM", "org_id"),
		UsagePollSchedule:       getEnv("USAGE_POLL_SCHEDULE", "@every 5m"),
	}

	// Fail open in development, closed everywhere else unless overridden.
	cfg.RateLimitFailClosed = getEnvBool("RATE_LIMIT_FAIL_CLOSED", !cfg.IsDev())

	return cfg
}

// Validate checks settings the service cannot start without.
func (c *Config) Validate() error {
	if c.ContactOutAPIKey == "" {
		return errors.New("CONTACTOUT_API_KEY environment variable is required")
	}
	if c.QualityBatchSize < 1 {
		return errors.New("QUALITY_BATCH_SIZE must be a positive integer")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v >= 0 {
		return v
	}
	return fallback
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// IsOIDCEnabled returns true if bearer tokens should be verified against an issuer.
func (c *Config) IsOIDCEnabled() bool {
	return c.OIDCIssuer != "" && c.OIDCClientID != ""
}
