package config

import (
	"os"
	"time"
)

// SeasonCacheConfig defines settings for the season read cache.  The
// TTL bounds how long a lazily populated entry may live; mutations
// drop their keys immediately, so the TTL only matters for entries
// whose data changed outside the repository (manual DB edits).
// Prefix namespaces the cache keys within Redis.
type SeasonCacheConfig struct {
	TTL    time.Duration
	Prefix string
}

// LoadSeasonCacheConfig reads environment variables to build a
// SeasonCacheConfig.  Defaults are used when variables are not set.
func LoadSeasonCacheConfig() SeasonCacheConfig {
	return SeasonCacheConfig{
		TTL:    parseDur(getenv("SEASON_CACHE_TTL", "5m")),
		Prefix: getenv("SEASON_CACHE_PREFIX", "season"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Minute
	}
	return d
}
