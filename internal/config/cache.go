package config

import (
    "strings"
    "time"
)

// CacheConfig controls the Redis response cache in front of the public
// gallery listing and the payment config endpoint.  Read from CACHE_*.
// KeyStrategy is "route" (one entry per path) or "route_query" (one entry
// per path and query string, so each gallery page is cached separately).
// Responses larger than MaxBodyBytes are served but not stored.
type CacheConfig struct {
    Enabled      bool          `env:"ENABLED" envDefault:"true"`
    MethodList   []string      `env:"METHODS" envSeparator:"," envDefault:"GET"`
    TTL          time.Duration `env:"TTL" envDefault:"30s"`
    KeyStrategy  string        `env:"KEY_STRATEGY" envDefault:"route_query"`
    Prefix       string        `env:"PREFIX" envDefault:"cache"`
    MaxBodyBytes int           `env:"MAX_BODY_BYTES" envDefault:"1048576"`
}

// Methods returns the cacheable methods as an upper-cased set.
func (c CacheConfig) Methods() map[string]bool {
    m := map[string]bool{}
    for _, p := range c.MethodList {
        p = strings.TrimSpace(strings.ToUpper(p))
        if p != "" {
            m[p] = true
        }
    }
    return m
}
