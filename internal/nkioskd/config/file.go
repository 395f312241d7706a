package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// configDirs lists the directories a config file may be loaded from.
// NKIOSK_DEV_MODE=1 additionally admits files under the working
// directory.
var configDirs = []string{
	"/etc/netboard-kiosk",
	"/usr/local/etc/netboard-kiosk",
}

// resolveConfigPath normalizes path and checks that it names a YAML
// file inside one of the allowed directories.
func resolveConfigPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid config path: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(filepath.Clean(abs))
	if os.IsNotExist(err) {
		// Not created yet; judge the cleaned path instead
		resolved = filepath.Clean(abs)
	} else if err != nil {
		return "", fmt.Errorf("error resolving config path: %w", err)
	}

	switch strings.ToLower(filepath.Ext(resolved)) {
	case ".yaml", ".yml":
	default:
		return "", fmt.Errorf("config file %s must have a .yaml or .yml extension", resolved)
	}

	if !allowedConfigDir(filepath.Dir(resolved)) {
		return "", fmt.Errorf("config file must live under one of: %s", strings.Join(configDirs, ", "))
	}

	return resolved, nil
}

func allowedConfigDir(dir string) bool {
	for _, allowed := range configDirs {
		if strings.HasPrefix(strings.ToLower(dir), strings.ToLower(allowed)) {
			return true
		}
	}
	if os.Getenv("NKIOSK_DEV_MODE") == "1" {
		if pwd, err := os.Getwd(); err == nil {
			return strings.HasPrefix(dir, pwd)
		}
	}
	return false
}

// LoadFile builds a configuration from defaults, a YAML file, and
// environment variables, in that order of precedence (later wins).
func LoadFile(path string) (*Config, error) {
	resolved, err := resolveConfigPath(path)
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("error accessing config file: %w", err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("config path %s is not a regular file", resolved)
	}

	// #nosec G304 -- resolved is confined to the allowed directories
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	cfg.overlayEnv()
	return cfg, cfg.validate()
}
