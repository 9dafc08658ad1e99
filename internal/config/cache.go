package config

import (
	"strings"
	"time"
)

// DefaultCacheSkipRoutes lists the routes that are always served live.
const DefaultCacheSkipRoutes = "/v1/availability"

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching will be disabled.
// Methods lists the HTTP methods to cache (e.g. GET, HEAD); every other
// method is treated as a write and bumps the cache generation on success.
// SkipRoutes holds route patterns (as registered, e.g. "/v1/availability")
// whose responses are never cached.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	SkipRoutes   map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.  Defaults
// are used when variables are not set.  All methods are upper-cased.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      parseMethods(envStr("CACHE_METHODS", "GET")),
		SkipRoutes:   parseRoutes(envStr("CACHE_SKIP_ROUTES", DefaultCacheSkipRoutes)),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

// GenerationKey is the Redis counter that namespaces cached responses.
func (c CacheConfig) GenerationKey() string {
	return c.Prefix + ":gen"
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}

func parseRoutes(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			m[p] = true
		}
	}
	return m
}
