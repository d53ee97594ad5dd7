package config

import (
	"os"
	"time"
)

// CacheConfig controls the Redis response cache on the public status
// endpoint. With Enabled false or no Redis client available, caching is a
// no-op. The status view changes on every committed reservation, so the
// TTL is deliberately short.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadCacheConfig reads cache settings with conservative defaults.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled: envBool("CACHE_ENABLED", true),
		TTL:     envDur("CACHE_TTL", 5*time.Second),
		Prefix:  getenvDefault("CACHE_PREFIX", "cache"),
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
