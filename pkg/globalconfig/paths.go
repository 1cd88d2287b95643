// Package globalconfig manages the workstation-side configuration for
// nixos-scaleway. Configuration is stored at ~/.config/nixos-scaleway/
// config.yaml and holds the build defaults plus, optionally, the Scaleway
// secret key.
package globalconfig

import (
	"os"
	"path/filepath"
)

const (
	// ConfigDirName is the name of the config directory under ~/.config.
	ConfigDirName = "nixos-scaleway"
	// ConfigFileName is the name of the main config file.
	ConfigFileName = "config.yaml"
	// SecretsFileName is the name of the optional secrets file kept beside it.
	SecretsFileName = "secrets.env"
)

// GetConfigDir returns the config directory path (~/.config/nixos-scaleway).
// Respects XDG_CONFIG_HOME if set.
func GetConfigDir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDirName), nil
}

// GetConfigPath returns the full path to the config file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, ConfigFileName), nil
}

// GetSecretsPath returns the full path to the secrets.env file.
func GetSecretsPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, SecretsFileName), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
// The directory can hold a secret key, so group and world get no access.
func EnsureConfigDir() error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(configDir, 0700)
}
