package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	EnvBaseURL = "SWIPEARR_URL"
	EnvAPIKey  = "SWIPEARR_API_KEY"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Maintainerr MaintainerrConfig `toml:"maintainerr"`
	Database    DatabaseConfig    `toml:"database"`
	Client      ClientConfig      `toml:"client"`
	Log         LogConfig         `toml:"log"`
}

// MaintainerrConfig holds connection defaults for the connect command.
//
// The active connection itself lives in the state store, not here.
type MaintainerrConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ClientConfig tunes the Maintainerr HTTP client.
type ClientConfig struct {
	TimeoutSeconds int     `toml:"timeout_seconds"`
	PageRate       float64 `toml:"page_rate"`
}

// LogConfig controls log level and the TUI log file.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Timeout returns the configured HTTP timeout, zero meaning none.
func (c ClientConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
// A missing file is reported as [ErrMissingConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides the Maintainerr connection defaults with [EnvBaseURL] and [EnvAPIKey] when set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.Maintainerr.BaseURL = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Maintainerr.APIKey = v
	}
}
