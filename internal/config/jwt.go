// Package config provides JWT configuration functionality.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// minSecretLength is the shortest JWT_SECRET accepted. Anything shorter is
// trivially brute-forceable for HS256.
const minSecretLength = 16

// JWTConfig holds the signing secret and token lifetime for issued tokens.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// NewJWTConfig reads JWT_SECRET (required, at least 16 bytes) and
// JWT_EXPIRATION_HOURS (default: 24) from the environment.
func NewJWTConfig() (*JWTConfig, error) {
	cfg := &JWTConfig{
		Secret:          os.Getenv("JWT_SECRET"),
		ExpirationHours: 24,
	}

	if raw := os.Getenv("JWT_EXPIRATION_HOURS"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS: %v", err)
		}
		cfg.ExpirationHours = hours
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required but not set")
	}
	if len(c.Secret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters, got: %d", minSecretLength, len(c.Secret))
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}

// TokenTTL returns the configured token lifetime as a duration.
func (c *JWTConfig) TokenTTL() time.Duration {
	return time.Duration(c.ExpirationHours) * time.Hour
}
