package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ReportSettings groups the env knobs read by the report service.
type ReportSettings struct {
	CacheEnabled bool
	CacheTTL     time.Duration
	SlowAfter    time.Duration
	Timeout      time.Duration
}

// GetReportSettings reads:
// - ENABLE_REPORT_CACHE (default off)
// - REPORT_CACHE_TTL_SECONDS (default 120)
// - REPORT_SLOW_MS (default 500)
// - REPORT_TIMEOUT_SECONDS (default 30)
func GetReportSettings() ReportSettings {
	return ReportSettings{
		CacheEnabled: boolFromEnv("ENABLE_REPORT_CACHE"),
		CacheTTL:     time.Duration(positiveIntFromEnv("REPORT_CACHE_TTL_SECONDS", 120)) * time.Second,
		SlowAfter:    time.Duration(positiveIntFromEnv("REPORT_SLOW_MS", 500)) * time.Millisecond,
		Timeout:      time.Duration(positiveIntFromEnv("REPORT_TIMEOUT_SECONDS", 30)) * time.Second,
	}
}

// SessionLifespan is how long a cached user stays in redis (TOKEN_HOUR_LIFESPAN, default 1h).
func SessionLifespan() time.Duration {
	return time.Duration(positiveIntFromEnv("TOKEN_HOUR_LIFESPAN", 1)) * time.Hour
}

type RateLimitSettings struct {
	Enabled     bool
	MaxRequests int64
	Window      time.Duration
}

// GetRateLimitSettings reads RATE_LIMIT_ENABLED, RATE_LIMIT_MAX_REQUESTS (600)
// and RATE_LIMIT_WINDOW_SECONDS (60).
func GetRateLimitSettings() RateLimitSettings {
	return RateLimitSettings{
		Enabled:     boolFromEnv("RATE_LIMIT_ENABLED"),
		MaxRequests: int64(positiveIntFromEnv("RATE_LIMIT_MAX_REQUESTS", 600)),
		Window:      time.Duration(positiveIntFromEnv("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
	}
}

func IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production")
}

func SkipMigrations() bool {
	return boolFromEnv("SKIP_MIGRATIONS")
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func positiveIntFromEnv(key string, def int) int {
	if n := intFromEnv(key, def); n > 0 {
		return n
	}
	return def
}

func boolFromEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y" || v == "on"
}

func stringFromEnv(key string, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
