package util

import (
	"crypto/tls"
	"fmt"
	"os"

	"github.com/netboard/netboard-kiosk/internal/nkioskctl/client"
	"github.com/netboard/netboard-kiosk/internal/nkioskctl/config"
)

// GetClient creates an API client from the environment and config.
// NKIOSK_SERVER and NKIOSK_PIN override the config file values.
func GetClient(cfg *config.Config) (*client.Client, error) {
	server := os.Getenv("NKIOSK_SERVER")
	if server == "" {
		server = cfg.Server
	}
	if server == "" {
		return nil, fmt.Errorf("no kiosk daemon configured - set NKIOSK_SERVER or run 'nkioskctl config set --server'")
	}

	pin := os.Getenv("NKIOSK_PIN")
	if pin == "" {
		pin = cfg.PIN
	}

	opts := []client.Option{}
	if pin != "" {
		opts = append(opts, client.WithPIN(pin))
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, client.WithTLSConfig(&tls.Config{InsecureSkipVerify: true}))
	}

	c, err := client.NewClient(server, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	return c, nil
}
