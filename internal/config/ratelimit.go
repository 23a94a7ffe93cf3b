package config

import "time"

// RateLimitConfig configures the Redis token bucket.  The defaults allow a
// burst of 100 requests per client refilled at one token every 9s, i.e.
// roughly 100 requests per 15 minutes.
type RateLimitConfig struct {
    Enabled        bool          `env:"ENABLED" envDefault:"true"`
    Capacity       int           `env:"CAPACITY" envDefault:"100"`
    RefillTokens   int           `env:"REFILL_TOKENS" envDefault:"1"`
    RefillInterval time.Duration `env:"REFILL_INTERVAL" envDefault:"9s"`
    TTL            time.Duration `env:"TTL" envDefault:"15m"`
    KeyStrategy    string        `env:"KEY_STRATEGY" envDefault:"ip"` // ip, route or ip_route
    Prefix         string        `env:"PREFIX" envDefault:"rl"`
    Debug          bool          `env:"DEBUG" envDefault:"false"`
}

func (r *RateLimitConfig) normalize() {
    if r.Capacity < 1 { r.Capacity = 1 }
    if r.RefillTokens < 1 { r.RefillTokens = 1 }
    if r.RefillInterval <= 0 { r.RefillInterval = time.Second }
    // keep idle buckets around long enough to refill completely
    minTTL := 5 * r.RefillInterval
    if r.TTL < minTTL { r.TTL = minTTL }
}
