package config

import (
	"os"
	"time"
)

// ThrottleConfig tunes the Redis token-bucket throttle applied to the
// public POST endpoints. This is a coarse per-IP flood control in front
// of the precise, store-derived rate limits; it is best-effort and
// fails open.
type ThrottleConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// LoadThrottleConfig reads THROTTLE_* environment variables, applying
// defaults and clamping nonsense values.
func LoadThrottleConfig() ThrottleConfig {
	cfg := ThrottleConfig{
		Enabled:        envBool("THROTTLE_ENABLED", true),
		Capacity:       envInt("THROTTLE_CAPACITY", 30),
		RefillTokens:   envInt("THROTTLE_REFILL_TOKENS", 1),
		RefillInterval: envDur("THROTTLE_REFILL_INTERVAL", 2*time.Second),
		TTL:            envDur("THROTTLE_TTL", 10*time.Minute),
		Prefix:         getenv("THROTTLE_PREFIX", "throttle"),
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return cfg
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
