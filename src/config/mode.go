// Package config handles application configuration and mode detection
package config

import (
	"fmt"
	"os"
	"strings"
)

// Mode represents the application execution mode
type Mode string

const (
	// ModeDevelopment is for local development (relaxed security, verbose logging)
	ModeDevelopment Mode = "development"
	// ModeProduction is for production deployment (strict security)
	ModeProduction Mode = "production"
	// ModeTest is used by the test suite
	ModeTest Mode = "test"
)

// DetectMode determines the application mode from config and environment
// Priority: 1. Config file, 2. Environment variable, 3. Default (production)
func DetectMode(configMode string) Mode {
	if m, ok := parseMode(configMode); ok {
		return m
	}

	envMode := os.Getenv("MODE")
	if envMode == "" {
		envMode = os.Getenv("APP_MODE")
	}
	if envMode == "" {
		envMode = os.Getenv("ENVIRONMENT")
	}
	if m, ok := parseMode(envMode); ok {
		return m
	}

	// Default to production for safety
	return ModeProduction
}

func parseMode(raw string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "development", "dev":
		return ModeDevelopment, true
	case "production", "prod":
		return ModeProduction, true
	case "test":
		return ModeTest, true
	}
	return "", false
}

// String returns a human-readable representation of the mode
func (m Mode) String() string {
	return string(m)
}

// Validate checks if the mode is valid
func (m Mode) Validate() error {
	if m != ModeDevelopment && m != ModeProduction && m != ModeTest {
		return fmt.Errorf("invalid mode: %s (must be 'development', 'production' or 'test')", m)
	}
	return nil
}

// IsDevelopment reports whether the mode relaxes security and raises verbosity.
func (m Mode) IsDevelopment() bool {
	return m == ModeDevelopment
}

// LogLevel returns the appropriate log level for the mode
func (m Mode) LogLevel() string {
	if m == ModeDevelopment {
		return "debug"
	}
	return "info"
}

// IsTruthy reports whether an environment-style value means "enabled".
func IsTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on", "enabled":
		return true
	}
	return false
}
