package ratelimit

import (
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	RPS             float64 // default sustained rate per client
	Burst           int     // default burst per client
	CleanupInterval time.Duration
	IdleTimeout     time.Duration // buckets unused for this long are dropped
	EndpointConfigs []EndpointConfig
}

// NewConfig returns a configuration with the default endpoint tiers.
func NewConfig(enabled bool, rps float64, burst int) *Config {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = int(rps)
		if burst < 1 {
			burst = 1
		}
	}
	return &Config{
		Enabled:         enabled,
		RPS:             rps,
		Burst:           burst,
		CleanupInterval: 5 * time.Minute,
		IdleTimeout:     time.Hour,
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Completion calls are the expensive ones
		{Path: "/fetchSummary", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/summarize", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
	}
}
