package config

import (
	"fmt"
)

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if (c.Server.TLSCert != "") != (c.Server.TLSKey != "") {
		return fmt.Errorf("both TLS cert and key must be provided")
	}
	switch c.Netboard.Source {
	case "http":
		if c.Netboard.URL == "" {
			return fmt.Errorf("netboard URL is required for the http source")
		}
	case "postgres":
		if c.Netboard.Database.Port < 1 || c.Netboard.Database.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", c.Netboard.Database.Port)
		}
		if c.Netboard.Database.MaxOpenConns < 1 {
			return fmt.Errorf("invalid max open connections: %d", c.Netboard.Database.MaxOpenConns)
		}
		if c.Netboard.Database.MaxIdleConns < 1 {
			return fmt.Errorf("invalid max idle connections: %d", c.Netboard.Database.MaxIdleConns)
		}
	case "none":
	default:
		return fmt.Errorf("unknown netboard source: %q", c.Netboard.Source)
	}
	if c.Netboard.Source != "none" && c.Netboard.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	switch c.Kiosk.Role {
	case "", "kiosk", "operator":
	default:
		return fmt.Errorf("unknown kiosk role: %q", c.Kiosk.Role)
	}
	if c.Kiosk.DataDir == "" {
		return fmt.Errorf("kiosk data directory is required")
	}
	return nil
}
