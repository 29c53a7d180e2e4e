package config

import "time"

// RateLimitConfig drives the Redis token bucket applied to authenticated
// routes. Each bucket holds Capacity tokens and regains RefillTokens every
// RefillInterval; idle buckets expire after TTL.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string // "user_route", "user", "ip_route" or "ip"
    Prefix         string
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables. RATE_LIMIT_BURST and
// RATE_LIMIT_REFILL_EVERY are shorthands that override capacity and the
// refill cadence.
func LoadRateLimitConfig() RateLimitConfig {
    c := RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
        RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "user_route"),
        Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
    }
    if b := envInt("RATE_LIMIT_BURST", -1); b > 0 {
        c.Capacity = b
    }
    if every := envDur("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
        c.RefillTokens = 1
        c.RefillInterval = every
    }
    return c.normalized()
}

func (c RateLimitConfig) normalized() RateLimitConfig {
    if c.Capacity < 1 {
        c.Capacity = 1
    }
    if c.RefillTokens < 1 {
        c.RefillTokens = 1
    }
    if c.RefillInterval <= 0 {
        c.RefillInterval = time.Second
    }
    if minTTL := 5 * c.RefillInterval; c.TTL < minTTL {
        c.TTL = minTTL
    }
    return c
}

// QuoteCacheConfig controls the Redis cache of each user's quote of the day.
type QuoteCacheConfig struct {
    Enabled bool
    Prefix  string
}

// LoadQuoteCacheConfig reads QUOTE_CACHE_ENABLED and QUOTE_CACHE_PREFIX.
func LoadQuoteCacheConfig() QuoteCacheConfig {
    return QuoteCacheConfig{
        Enabled: envBool("QUOTE_CACHE_ENABLED", true),
        Prefix:  envStr("QUOTE_CACHE_PREFIX", "quote"),
    }
}
