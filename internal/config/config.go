// Package config provides configuration loading and validation for the
// server and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the application configuration, loadable from a JSON file. All
// fields are optional; missing values fall back to defaults or environment
// variables.
type Config struct {
	Port        int    `json:"port,omitempty"`         // HTTP listen port
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key

	// Behavior
	UseFallbackGenerator bool `json:"use_fallback_generator,omitempty"` // Use the deterministic template generator instead of the AI
	UseBrowser           bool `json:"use_browser,omitempty"`            // Render SPA job postings with a headless browser
	Verbose              bool `json:"verbose,omitempty"`                // Print detailed debug information

	// Limits
	RateLimitPerMinute int `json:"rate_limit_per_minute,omitempty"` // Per-client request budget, 0 disables limiting
}

// Load reads configuration from a JSON file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv builds a configuration from environment variables only.
func FromEnv() *Config {
	return &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		APIKey:      os.Getenv("GEMINI_API_KEY"),
	}
}

// Validate checks numeric ranges. Required fields are enforced at startup
// after flag and environment merging.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' out of range: %d", c.Port)
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("config error: 'rate_limit_per_minute' must be non-negative")
	}
	return nil
}

// MergeWithDefaults fills empty fields from defaults. Bool fields are not
// merged since unset cannot be told apart from false; flags win for those.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.RateLimitPerMinute == 0 {
		result.RateLimitPerMinute = defaults.RateLimitPerMinute
	}

	return result
}
