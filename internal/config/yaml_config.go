package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of the optional overrides file.
// Per-class limits and cache lifetimes are easier to review in YAML than env vars.
type YAMLConfig struct {
	RateLimits RateLimitsConfig `yaml:"rate_limits"`
	CacheTTLs  CacheTTLsConfig  `yaml:"cache_ttls"`
}

// RateLimitsConfig overrides the per-minute capacity of each endpoint class.
type RateLimitsConfig struct {
	PeopleSearch   int `yaml:"people_search"`
	ContactChecker int `yaml:"contact_checker"`
	Other          int `yaml:"other"`
}

// CacheTTLsConfig overrides cache lifetimes per operation, as Go durations ("1h", "168h").
type CacheTTLsConfig struct {
	Search         string `yaml:"search"`
	DecisionMakers string `yaml:"decision_makers"`
	LinkedIn       string `yaml:"linkedin"`
	Email          string `yaml:"email"`
	Company        string `yaml:"company"`
	Verify         string `yaml:"verify"`
}

// LoadYAMLConfig loads the YAML overrides file.
// Path is determined by CONFIG_FILE env var, defaulting to "config.yaml".
// Returns nil without error if the config file doesn't exist.
func LoadYAMLConfig() (*YAMLConfig, error) {
	return LoadYAMLConfigFile(getEnv("CONFIG_FILE", "config.yaml"))
}

// LoadYAMLConfigFile loads overrides from path.
func LoadYAMLConfigFile(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return nil, nil
		}
		return nil, err
	}

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyTo copies non-zero rate limit overrides onto cfg.
func (c *YAMLConfig) ApplyTo(cfg *Config) {
	if c == nil {
		return
	}
	if c.RateLimits.PeopleSearch > 0 {
		cfg.RateLimitSearch = c.RateLimits.PeopleSearch
	}
	if c.RateLimits.ContactChecker > 0 {
		cfg.RateLimitContactChecker = c.RateLimits.ContactChecker
	}
	if c.RateLimits.Other > 0 {
		cfg.RateLimitOther = c.RateLimits.Other
	}
}

// TTL returns the parsed override for an operation, or zero when unset or invalid.
func (c *CacheTTLsConfig) TTL(operation string) time.Duration {
	if c == nil {
		return 0
	}
	var raw string
	switch operation {
	case "search":
		raw = c.Search
	case "decision":
		raw = c.DecisionMakers
	case "linkedin":
		raw = c.LinkedIn
	case "email":
		raw = c.Email
	case "company":
		raw = c.Company
	case "verify":
		raw = c.Verify
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}

// CacheTTLOverrides returns the parsed override for each of operations that has one.
func (c *YAMLConfig) CacheTTLOverrides(operations ...string) map[string]time.Duration {
	out := make(map[string]time.Duration)
	if c == nil {
		return out
	}
	for _, op := range operations {
		if d := c.CacheTTLs.TTL(op); d > 0 {
			out[op] = d
		}
	}
	return out
}
