package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig holds limits for one endpoint pattern.
type EndpointConfig struct {
	Path   string        // endpoint path, supports prefix matching when ending in "/"
	Method string        // HTTP method
	Limit  int           // maximum requests per window
	Window time.Duration // time window
	Burst  int           // burst capacity, defaults to Limit when 0
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() *Config {
	enabled := getEnvBool("RATE_LIMIT_ENABLED", true)
	if !enabled {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         enabled,
		DefaultLimit:    getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", 1000),
		DefaultWindow:   getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Whitelist:       parseIPList(os.Getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns per-endpoint limits. AI-backed endpoints get
// the strictest budgets since each request costs a model call.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		{Path: "/applications/from-url", Method: "POST", Limit: 20, Window: time.Hour, Burst: 5},
		{Path: "/applications/", Method: "POST", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/profile/parse/", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},
		{Path: "/skills/parse", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},
		{Path: "/skills/categorize", Method: "POST", Limit: 60, Window: time.Hour, Burst: 10},

		{Path: "/auth/register", Method: "POST", Limit: 10, Window: time.Minute, Burst: 5},
		{Path: "/auth/login", Method: "POST", Limit: 20, Window: time.Minute, Burst: 10},

		{Path: "/profile/", Method: "PUT", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/profile/", Method: "POST", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/profile/", Method: "DELETE", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/skills/", Method: "POST", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/skills/", Method: "PUT", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/skills/", Method: "DELETE", Limit: 100, Window: time.Minute, Burst: 10},
	}
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
