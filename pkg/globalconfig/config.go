package globalconfig

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/renameio"
	"gopkg.in/yaml.v3"
)

// Version is the current config schema version.
const Version = "1.0"

// ErrNotInitialized is returned when no config file exists yet.
var ErrNotInitialized = errors.New("nixos-scaleway not initialized: run 'nixos-scaleway init' first")

// Config represents the workstation configuration.
type Config struct {
	Version             string `yaml:"version"`
	DefaultZone         string `yaml:"default_zone"`          // e.g. "fr-par-1"
	DefaultInstanceType string `yaml:"default_instance_type"` // e.g. "DEV1-M"
	SecretKey           string `yaml:"secret_key,omitempty"`  // optional; secrets.env wins over this
}

// NewConfig creates a new Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version:             Version,
		DefaultZone:         "fr-par-1",
		DefaultInstanceType: "DEV1-M",
	}
}

// Load loads the config from ~/.config/nixos-scaleway/config.yaml.
// Returns ErrNotInitialized if the file doesn't exist.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Files written by older versions may leave fields blank.
	def := NewConfig()
	if cfg.DefaultZone == "" {
		cfg.DefaultZone = def.DefaultZone
	}
	if cfg.DefaultInstanceType == "" {
		cfg.DefaultInstanceType = def.DefaultInstanceType
	}

	return &cfg, nil
}

// LoadOrCreate loads the config if it exists, or returns a fresh one.
// Unlike Load(), this doesn't require the config to be initialized.
func LoadOrCreate() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		if errors.Is(err, ErrNotInitialized) {
			return NewConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// Save saves the config to ~/.config/nixos-scaleway/config.yaml.
// The write goes through a temp file rename so a crash can't leave a
// half-written config behind.
func (c *Config) Save() error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := renameio.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsInitialized checks whether a readable config file exists.
func IsInitialized() bool {
	_, err := Load()
	return err == nil
}
