package ratelimit

import (
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/resume-builder/internal/config"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (a trailing "/" enables prefix matching)
	Method string        // HTTP method
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// FromSettings builds a Config from the RATE_LIMIT_* environment settings.
func FromSettings(s config.RateLimitConfig) *Config {
	if !s.Enabled {
		return &Config{Enabled: false}
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    s.DefaultLimit,
		DefaultWindow:   s.DefaultWindow,
		CleanupInterval: s.CleanupInterval,
		Whitelist:       ipSet(s.Whitelist),
		Blacklist:       ipSet(s.Blacklist),
		EndpointConfigs: DefaultEndpointConfigs(s.EnhanceLimit, s.EnhanceWindow),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific limits. Enhancement calls
// spend upstream quota and get the strictest limits.
func DefaultEndpointConfigs(enhanceLimit int, enhanceWindow time.Duration) []EndpointConfig {
	if enhanceLimit <= 0 {
		enhanceLimit = 60
	}
	if enhanceWindow <= 0 {
		enhanceWindow = time.Minute
	}
	enhanceBurst := max(1, enhanceLimit/10)
	return []EndpointConfig{
		// Tier 1: upstream generation
		{Path: "/api/enhance", Method: http.MethodPost, Limit: enhanceLimit, Window: enhanceWindow, Burst: enhanceBurst},
		{Path: "/enhance", Method: http.MethodPost, Limit: enhanceLimit, Window: enhanceWindow, Burst: enhanceBurst},
		{Path: "/api/enhance/resume", Method: http.MethodPost, Limit: max(1, enhanceLimit/4), Window: enhanceWindow, Burst: 2},

		// Tier 2: credentials
		{Path: "/api/auth/", Method: http.MethodPost, Limit: 20, Window: time.Minute, Burst: 5},

		// Tier 3: writes
		{Path: "/api/resumes", Method: http.MethodPost, Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/api/resumes/", Method: http.MethodPost, Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/api/resumes/", Method: http.MethodPatch, Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/api/resumes/", Method: http.MethodDelete, Limit: 100, Window: time.Minute, Burst: 10},

		// Reads use the default limit; health and metrics are unlimited (see MatchEndpoint)
	}
}

func ipSet(ips []string) map[string]bool {
	result := make(map[string]bool, len(ips))
	for _, ip := range ips {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			result[ip] = true
		}
	}
	return result
}
