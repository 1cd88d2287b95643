package globalconfig

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// SecretKeyEnv is the environment variable holding the Scaleway secret key.
const SecretKeyEnv = "SCW_SECRET_KEY"

// ResolveSecretKey returns the Scaleway secret key, trying in order: the
// explicit value (a --secret-key flag), the SCW_SECRET_KEY environment
// variable, a secrets.env beside the config file, and finally the
// secret_key stored in the config itself.
func ResolveSecretKey(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	if key := os.Getenv(SecretKeyEnv); key != "" {
		return key, nil
	}

	if secretsPath, err := GetSecretsPath(); err == nil {
		// A missing or unreadable secrets.env just means the next source.
		if vars, err := ParseEnvFile(secretsPath); err == nil {
			if key := vars[SecretKeyEnv]; key != "" {
				return key, nil
			}
		}
	}

	if cfg, err := Load(); err == nil && cfg.SecretKey != "" {
		return cfg.SecretKey, nil
	}

	return "", fmt.Errorf("no Scaleway secret key: pass --secret-key, set %s, or store one with 'nixos-scaleway init'", SecretKeyEnv)
}

// ParseEnvFile parses a shell-style env file and returns key-value pairs.
// It handles:
// - KEY=VALUE format
// - KEY="VALUE" and KEY='VALUE' (quotes are stripped)
// - Comments (lines starting with #)
// - Empty lines (skipped)
// - Values containing = signs (only first = is used as delimiter)
func ParseEnvFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	envVars := make(map[string]string)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE or KEY="VALUE"
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		envVars[key] = value
	}

	return envVars, scanner.Err()
}
