package client

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultServer is used when no server is configured
const DefaultServer = "http://localhost:3000"

// CLIConfig represents the CLI client configuration
type CLIConfig struct {
	// Server connection settings
	Server ServerConfig `yaml:"server,omitempty"`
	// Output preferences
	Output OutputConfig `yaml:"output,omitempty"`
	// Default filter applied before rendering
	Filter FilterConfig `yaml:"filter,omitempty"`
	// Debug mode
	Debug bool `yaml:"debug,omitempty"`
}

// ServerConfig holds server connection settings
type ServerConfig struct {
	Primary    string   `yaml:"primary,omitempty"`
	Cluster    []string `yaml:"cluster,omitempty"`
	APIVersion string   `yaml:"api_version,omitempty"`
	Timeout    int      `yaml:"timeout,omitempty"`
}

// OutputConfig holds output preferences
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // json, table, plain
	Color  string `yaml:"color,omitempty"`  // auto, always, never
}

// FilterConfig holds the default magnitude/region filter
type FilterConfig struct {
	MinMagnitude float64 `yaml:"min_magnitude,omitempty"`
	MaxMagnitude float64 `yaml:"max_magnitude,omitempty"`
	Region       string  `yaml:"region,omitempty"`
	Search       string  `yaml:"search,omitempty"`
}

// GetAPIPath returns the API base path (default: /api/v1)
func (c *CLIConfig) GetAPIPath() string {
	version := c.Server.APIVersion
	if version == "" {
		version = "v1"
	}
	return "/api/" + version
}

// GetPrimaryServer returns the primary server URL
func (c *CLIConfig) GetPrimaryServer() string {
	if c.Server.Primary != "" {
		return c.Server.Primary
	}
	return DefaultServer
}

// GetAllServers returns all available servers (primary + cluster) for failover
func (c *CLIConfig) GetAllServers() []string {
	servers := []string{}

	primary := c.GetPrimaryServer()
	if primary != "" {
		servers = append(servers, primary)
	}

	for _, node := range c.Server.Cluster {
		if node != "" && node != primary {
			servers = append(servers, node)
		}
	}

	return servers
}

// NoColor reports whether colored output is disabled
func (c *CLIConfig) NoColor() bool {
	if c.Output.Color == "never" {
		return true
	}
	if os.Getenv("NO_COLOR") != "" && c.Output.Color != "always" {
		return true
	}
	return false
}

// DefaultCLIConfig returns the default configuration
func DefaultCLIConfig() *CLIConfig {
	return &CLIConfig{
		Server: ServerConfig{
			Primary:    DefaultServer,
			APIVersion: "v1",
			Timeout:    30,
		},
		Output: OutputConfig{
			Format: "table",
			Color:  "auto",
		},
		Filter: FilterConfig{
			MinMagnitude: 4.5,
			MaxMagnitude: 10.0,
			Region:       "all",
		},
	}
}

// ConfigPath returns the CLI config file path (~/.config/earthquakes/cli.yml)
func ConfigPath() (string, error) {
	if p := os.Getenv("QUAKE_CLI_CONFIG"); p != "" {
		return p, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", NewConfigError(fmt.Sprintf("cannot determine config directory: %v", err))
	}
	return filepath.Join(base, "earthquakes", "cli.yml"), nil
}

// LoadCLIConfig loads the config file, falling back to defaults when missing
func LoadCLIConfig() (*CLIConfig, error) {
	config := DefaultCLIConfig()

	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, NewConfigError(fmt.Sprintf("cannot read config file: %v", err))
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, NewConfigError(fmt.Sprintf("invalid config file %s: %v", path, err))
	}

	return config, nil
}

// InitConfig writes the default configuration to the config path
func InitConfig() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return NewConfigError(fmt.Sprintf("config file already exists: %s", path))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return NewConfigError(fmt.Sprintf("cannot create config directory: %v", err))
	}

	data, err := yaml.Marshal(DefaultCLIConfig())
	if err != nil {
		return NewConfigError(fmt.Sprintf("cannot encode default config: %v", err))
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return NewConfigError(fmt.Sprintf("cannot write config file: %v", err))
	}

	fmt.Printf("Configuration initialized: %s\n", path)
	return nil
}

// GetConfigValue reads a single dotted key from the config
func GetConfigValue(key string) (string, error) {
	config, err := LoadCLIConfig()
	if err != nil {
		return "", err
	}

	switch key {
	case "server", "server.primary":
		return config.GetPrimaryServer(), nil
	case "server.timeout":
		return strconv.Itoa(config.Server.Timeout), nil
	case "output", "output.format":
		return config.Output.Format, nil
	case "output.color":
		return config.Output.Color, nil
	case "filter.min_magnitude":
		return strconv.FormatFloat(config.Filter.MinMagnitude, 'f', -1, 64), nil
	case "filter.max_magnitude":
		return strconv.FormatFloat(config.Filter.MaxMagnitude, 'f', -1, 64), nil
	case "filter.region":
		return config.Filter.Region, nil
	case "filter.search":
		return config.Filter.Search, nil
	default:
		return "", NewUsageError(fmt.Sprintf("unknown config key: %s", key))
	}
}

// SetConfigValue writes a single dotted key to the config file
func SetConfigValue(key, value string) error {
	config, err := LoadCLIConfig()
	if err != nil {
		return err
	}

	switch key {
	case "server", "server.primary":
		config.Server.Primary = value
	case "server.timeout":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return NewUsageError("server.timeout must be a positive integer")
		}
		config.Server.Timeout = n
	case "output", "output.format":
		switch value {
		case "json", "table", "plain":
			config.Output.Format = value
		default:
			return NewUsageError("output.format must be json, table or plain")
		}
	case "output.color":
		switch value {
		case "auto", "always", "never":
			config.Output.Color = value
		default:
			return NewUsageError("output.color must be auto, always or never")
		}
	case "filter.min_magnitude":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return NewUsageError("filter.min_magnitude must be a number")
		}
		config.Filter.MinMagnitude = f
	case "filter.max_magnitude":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return NewUsageError("filter.max_magnitude must be a number")
		}
		config.Filter.MaxMagnitude = f
	case "filter.region":
		config.Filter.Region = strings.ToLower(value)
	case "filter.search":
		config.Filter.Search = value
	default:
		return NewUsageError(fmt.Sprintf("unknown config key: %s", key))
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return NewConfigError(fmt.Sprintf("cannot create config directory: %v", err))
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return NewConfigError(fmt.Sprintf("cannot encode config: %v", err))
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return NewConfigError(fmt.Sprintf("cannot write config file: %v", err))
	}

	return nil
}
