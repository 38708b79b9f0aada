package ratelimit

import (
	"strings"
)

// unlimited are method+path pairs that bypass limiting.
var unlimited = map[string]bool{
	"GET /health":  true,
	"HEAD /health": true,
}

// MatchEndpoint returns the tier for path and method, or nil for the default
// tier. A returned config with Limit 0 means unlimited. Configured paths
// ending in "/" match by prefix.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	if unlimited[method+" "+path] {
		return &EndpointConfig{Path: path, Method: method}
	}

	for i := range configs {
		if configs[i].Method == method && configs[i].Path == path {
			return &configs[i]
		}
	}

	for i := range configs {
		c := &configs[i]
		if c.Method == method && strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) {
			return c
		}
	}
	return nil
}
