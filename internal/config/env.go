// Package config provides configuration loading for the server and the CLI.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/jonathan/resume-builder/internal/enhance"
	"github.com/jonathan/resume-builder/internal/llm"
)

// ServerConfig holds the server configuration parsed from environment variables.
type ServerConfig struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`

	// Upstream keys. GEMINI_PRIMARY_KEY wins over GEMINI_API_KEY when both are set.
	GeminiAPIKey       string `env:"GEMINI_API_KEY"`
	GeminiPrimaryKey   string `env:"GEMINI_PRIMARY_KEY"`
	GeminiSecondaryKey string `env:"GEMINI_SECONDARY_KEY"`

	Model             string        `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	Endpoint          string        `env:"GEMINI_ENDPOINT" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	UpstreamTransport string        `env:"UPSTREAM_TRANSPORT" envDefault:"rest"`
	PrimaryTimeout    time.Duration `env:"UPSTREAM_PRIMARY_TIMEOUT" envDefault:"15s"`
	FallbackTimeout   time.Duration `env:"UPSTREAM_FALLBACK_TIMEOUT" envDefault:"20s"`
	FailoverBackoff   time.Duration `env:"FAILOVER_BACKOFF" envDefault:"2s"`

	CORSAllowOrigins []string `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"*"`

	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
}

// RateLimitConfig holds the RATE_LIMIT_* settings.
type RateLimitConfig struct {
	Enabled         bool          `env:"ENABLED" envDefault:"true"`
	DefaultLimit    int           `env:"DEFAULT_LIMIT" envDefault:"1000"`
	DefaultWindow   time.Duration `env:"DEFAULT_WINDOW" envDefault:"1m"`
	EnhanceLimit    int           `env:"ENHANCE_LIMIT" envDefault:"60"`
	EnhanceWindow   time.Duration `env:"ENHANCE_WINDOW" envDefault:"1m"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"5m"`
	Whitelist       []string      `env:"WHITELIST" envSeparator:","`
	Blacklist       []string      `env:"BLACKLIST" envSeparator:","`
}

// Load parses environment variables into a ServerConfig.
func Load() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges. A missing primary key is not an error here;
// it surfaces per request as a configuration error.
func (c *ServerConfig) Validate() error {
	switch llm.Transport(c.UpstreamTransport) {
	case llm.TransportREST, llm.TransportSDK:
	default:
		return fmt.Errorf("config error: UPSTREAM_TRANSPORT must be %q or %q, got %q",
			llm.TransportREST, llm.TransportSDK, c.UpstreamTransport)
	}
	if c.PrimaryTimeout <= 0 || c.FallbackTimeout <= 0 {
		return fmt.Errorf("config error: upstream timeouts must be positive")
	}
	if c.FailoverBackoff < 0 {
		return fmt.Errorf("config error: FAILOVER_BACKOFF must be non-negative")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config error: PORT out of range: %d", c.Port)
	}
	return nil
}

// PrimaryKey returns the primary upstream key.
func (c *ServerConfig) PrimaryKey() string {
	if k := strings.TrimSpace(c.GeminiPrimaryKey); k != "" {
		return k
	}
	return strings.TrimSpace(c.GeminiAPIKey)
}

// Keys returns both upstream keys.
func (c *ServerConfig) Keys() enhance.Keys {
	return enhance.Keys{
		Primary:  c.PrimaryKey(),
		Fallback: strings.TrimSpace(c.GeminiSecondaryKey),
	}
}

// LLMConfig returns the upstream caller configuration.
func (c *ServerConfig) LLMConfig() *llm.Config {
	return &llm.Config{
		Transport:       llm.Transport(c.UpstreamTransport),
		Model:           c.Model,
		Endpoint:        strings.TrimRight(c.Endpoint, "/"),
		PrimaryTimeout:  c.PrimaryTimeout,
		FallbackTimeout: c.FallbackTimeout,
	}
}

// PersistenceEnabled reports whether the database-backed routes should be mounted.
func (c *ServerConfig) PersistenceEnabled() bool {
	return c.DatabaseURL != ""
}
