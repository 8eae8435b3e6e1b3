package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration, loaded from server.yml
// with environment variable overrides layered on top.
type Config struct {
	Version string `yaml:"version"`
	Mode    string `yaml:"mode"` // development, production, test

	Server    ServerConfig    `yaml:"server"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Viewer    ViewerConfig    `yaml:"viewer"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig represents HTTP listener configuration
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    string `yaml:"port"`
}

// UpstreamConfig represents the USGS query endpoint and the derived defaults
// applied when the caller omits a parameter.
type UpstreamConfig struct {
	BaseURL        string  `yaml:"base_url"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	MinMagnitude   float64 `yaml:"min_magnitude"`
	Limit          int     `yaml:"limit"`
	WindowDays     int     `yaml:"window_days"`
}

// Timeout returns the upstream HTTP timeout as a duration.
func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutSeconds) * time.Second
}

// ViewerConfig represents viewer session tuning
type ViewerConfig struct {
	SessionTTLMinutes int `yaml:"session_ttl_minutes"`
	ProgressTickMS    int `yaml:"progress_tick_ms"`
}

// SessionTTL returns the viewer session time-to-live.
func (v ViewerConfig) SessionTTL() time.Duration {
	return time.Duration(v.SessionTTLMinutes) * time.Minute
}

// ProgressTick returns the simulated-progress tick period.
func (v ViewerConfig) ProgressTick() time.Duration {
	return time.Duration(v.ProgressTickMS) * time.Millisecond
}

// RateLimitConfig represents inbound per-IP rate limiting. Requests toward
// the upstream are never throttled; this only shields the listener.
type RateLimitConfig struct {
	Requests      int `yaml:"requests"`
	WindowSeconds int `yaml:"window_seconds"`
}

// Window returns the rate limit window as a duration.
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// LogConfig represents log output configuration
type LogConfig struct {
	Dir string `yaml:"dir"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0.0",
		Mode:    "production",
		Server: ServerConfig{
			Address: "0.0.0.0",
			Port:    "3000",
		},
		Upstream: UpstreamConfig{
			BaseURL:        "https://earthquake.usgs.gov/fdsnws/event/1/query",
			TimeoutSeconds: 30,
			MinMagnitude:   4.5,
			Limit:          1000,
			WindowDays:     30,
		},
		Viewer: ViewerConfig{
			SessionTTLMinutes: 30,
			ProgressTickMS:    200,
		},
		RateLimit: RateLimitConfig{
			Requests:      120,
			WindowSeconds: 60,
		},
		Log: LogConfig{
			Dir: "logs",
		},
	}
}

// LoadConfig loads configuration: defaults, then server.yml if present, then
// environment overrides.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if path := FindConfigFile(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv layers environment variables over the file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("MODE"); v != "" {
		c.Mode = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("LISTEN"); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv("LOG_DIR"); v != "" {
		c.Log.Dir = v
	}
	if v := os.Getenv("UPSTREAM_URL"); v != "" {
		c.Upstream.BaseURL = v
	}
	if v := os.Getenv("UPSTREAM_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Upstream.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("SESSION_TTL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Viewer.SessionTTLMinutes = n
		}
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RateLimit.Requests = n
		}
	}
}

// FindConfigFile searches for server.yml in common locations.
func FindConfigFile() string {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return path
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	searchPaths := []string{
		filepath.Join(cwd, "server.yml"),
		filepath.Join(cwd, "../server.yml"),
		"/etc/earthquakes/server.yml",
		"/opt/earthquakes/server.yml",
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
