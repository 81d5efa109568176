package config

import "time"

// CacheConfig drives middleware.NewRedisCache.
//
//	CACHE_ENABLED         master switch (default on)
//	CACHE_METHODS         methods whose 200 responses are stored (default GET)
//	CACHE_TTL             entry lifetime (default 30s)
//	CACHE_KEY_STRATEGY    path_query | path | method_path_query (default path_query)
//	CACHE_PREFIX          key namespace (default gym:cache)
//	CACHE_MAX_BODY_BYTES  larger bodies are served but not stored (default 1 MiB)
//
// Every other method is a write: a successful one bumps the generation under
// Prefix and so invalidates all stored entries at once.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads the CACHE_* variables.
func LoadCacheConfig() CacheConfig {
	methods := map[string]bool{}
	for _, m := range listEnv("CACHE_METHODS", "GET") {
		methods[m] = true
	}
	return CacheConfig{
		Enabled:      boolEnv("CACHE_ENABLED", true),
		Methods:      methods,
		TTL:          durationEnv("CACHE_TTL", 30*time.Second),
		KeyStrategy:  getenv("CACHE_KEY_STRATEGY", "path_query"),
		Prefix:       getenv("CACHE_PREFIX", "gym:cache"),
		MaxBodyBytes: intEnv("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
