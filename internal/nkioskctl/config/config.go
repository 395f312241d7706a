// Package config provides configuration management for the kiosk CLI
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the CLI configuration
type Config struct {
	// Server is the kiosk daemon URL
	Server string `mapstructure:"server"`
	// PIN unlocks the settings surface for mutating commands
	PIN string `mapstructure:"pin"`
	// InsecureSkipVerify disables TLS verification
	InsecureSkipVerify bool `mapstructure:"insecure-skip-verify"`
}

// defaultConfigPath returns the default config file path
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nkioskctl/config.yaml"
	}
	return filepath.Join(home, ".nkioskctl/config.yaml")
}

// Path resolves the config file location: an explicit path wins, then
// $NKIOSKCTL_CONFIG, then the default under the user's home.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("NKIOSKCTL_CONFIG"); env != "" {
		return env
	}
	return defaultConfigPath()
}

// Load reads the configuration from disk. A missing file is not an
// error; the zero config applies until `nkioskctl config set` writes one.
func Load(explicit string) (*Config, error) {
	configPath := Path(explicit)

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return &config, nil
}

// Save writes the configuration to disk, creating the directory if needed
func Save(explicit string, config *Config) error {
	configPath := Path(explicit)

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.Set("server", config.Server)
	v.Set("pin", config.PIN)
	v.Set("insecure-skip-verify", config.InsecureSkipVerify)

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}

	return nil
}
