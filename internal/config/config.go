// Package config loads process configuration from the environment,
// following the defaults-plus-override shape used throughout this codebase.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the top-level process configuration.
type Config struct {
	// GraphQLToken authenticates both the GraphQL listing query and the
	// REST notification calls. Required; process exits non-zero if empty.
	GraphQLToken string
	// Repo optionally selects incremental mode, as "owner/name" or a bare
	// name. Incremental mode only engages if a prior catalog also exists.
	Repo string
	// Org is the hosting-platform organization whose repositories are
	// listed in full mode. In incremental mode it is the owner only when
	// Repo is a bare name; an "owner/name" Repo carries its own owner.
	Org string
	// CacheDir holds graphql.json and modules.json.
	CacheDir string

	Platform     PlatformConfig
	Orchestrator OrchestratorConfig
	Notify       NotifyConfig
}

// Load reads configuration from the environment, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		GraphQLToken: getEnv("GRAPHQL_TOKEN", ""),
		Repo:         getEnv("REPO", ""),
		Org:          getEnv("ORG", ""),
		CacheDir:     getEnv("CACHE_DIR", "./cache"),
		Platform:     DefaultPlatformConfig(),
		Orchestrator: DefaultOrchestratorConfig(),
		Notify:       DefaultNotifyConfig(),
	}

	outer, err := getEnvInt("OUTER_CONCURRENCY", cfg.Orchestrator.OuterConcurrency)
	if err != nil {
		return nil, err
	}
	cfg.Orchestrator.OuterConcurrency = outer

	inner, err := getEnvInt("INNER_CONCURRENCY", cfg.Orchestrator.InnerConcurrency)
	if err != nil {
		return nil, err
	}
	cfg.Orchestrator.InnerConcurrency = inner

	cfg.Orchestrator.RequireTagPrefix = getEnvBool("EXPERIMENTAL_REQUIRE_TAG_PREFIX", false)

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(raw)
}

func getEnvBool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

// OrchestratorConfig controls §4.6/§5 behavior: concurrency caps and the
// feature-flagged tag-prefix pre-filter from the §9 Open Question.
type OrchestratorConfig struct {
	OuterConcurrency int
	InnerConcurrency int
	RequireTagPrefix bool
}

// DefaultOrchestratorConfig mirrors the spec's stated defaults (20/100).
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		OuterConcurrency: 20,
		InnerConcurrency: 100,
		RequireTagPrefix: false,
	}
}

// PlatformConfig holds hosting-platform client configuration.
type PlatformConfig struct {
	GraphQLURL string
	RESTURL    string
	PageSize   int
	RateLimit  RateLimitConfig
}

// RateLimitConfig holds retry/backoff configuration for the platform client.
type RateLimitConfig struct {
	MaxRetries      int
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
	RetryMultiplier float64
}

// DefaultPlatformConfig returns the default platform client configuration.
func DefaultPlatformConfig() PlatformConfig {
	return PlatformConfig{
		GraphQLURL: "https://api.github.com/graphql",
		RESTURL:    "https://api.github.com",
		PageSize:   10,
		RateLimit: RateLimitConfig{
			MaxRetries:      3,
			InitialBackoff:  time.Second,
			MaxBackoff:      time.Minute,
			RetryMultiplier: 2.0,
		},
	}
}

// NotifyConfig configures the commit-comment notification dispatcher.
type NotifyConfig struct {
	BotLogins []string
}

// DefaultNotifyConfig returns the default notification configuration.
func DefaultNotifyConfig() NotifyConfig {
	return NotifyConfig{
		BotLogins: []string{"github-actions[bot]", "dependabot[bot]", "renovate[bot]"},
	}
}
