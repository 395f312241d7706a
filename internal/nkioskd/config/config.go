// Package config provides configuration management for the kiosk daemon
package config

import (
	"time"
)

// Config holds all configuration for the daemon
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Netboard  NetboardConfig  `yaml:"netboard"`
	Kiosk     KioskConfig     `yaml:"kiosk"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
	TLSCert      string        `yaml:"tlsCert"`
	TLSKey       string        `yaml:"tlsKey"`
}

// NetboardConfig holds settings for the upstream dashboard server feed
type NetboardConfig struct {
	// Source selects the device feed: "http", "postgres", or "none"
	Source       string         `yaml:"source"`
	URL          string         `yaml:"url"`
	Token        string         `yaml:"token"`
	PollInterval time.Duration  `yaml:"pollInterval"`
	Database     DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds connection settings for the postgres feed source
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// KioskConfig holds kiosk controller settings
type KioskConfig struct {
	// Role marks the host's purpose; "kiosk" engages kiosk mode at boot
	Role string `yaml:"role"`
	// DataDir is where the settings store lives
	DataDir string `yaml:"dataDir"`
	// CycleInterval is the initial view rotation period
	CycleInterval time.Duration `yaml:"cycleInterval"`
	// WakeLockCommand is the inhibitor program spawned while kiosk mode
	// is engaged; empty disables wake-lock support
	WakeLockCommand string `yaml:"wakeLockCommand"`
}

// RateLimitConfig holds PIN attempt limiter settings. Zero values keep
// the built-in limits.
type RateLimitConfig struct {
	// PINAttempts is the number of PIN submissions allowed per window
	PINAttempts int `yaml:"pinAttempts"`
	// PINWindow is the PIN attempt counting window
	PINWindow time.Duration `yaml:"pinWindow"`
	Redis     RedisConfig   `yaml:"redis"`
}

// RedisConfig holds an optional shared limiter backend; empty Addr keeps
// the limiter in process memory
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MQTTConfig holds the optional state announcer settings; empty Broker
// disables the announcer
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"clientId"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topicPrefix"`
}

// Load builds a configuration from defaults and environment variables
func Load() (*Config, error) {
	cfg := defaultConfig()
	cfg.overlayEnv()
	return cfg, cfg.validate()
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8089,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Netboard: NetboardConfig{
			Source:       "http",
			URL:          "http://localhost:8080",
			PollInterval: 15 * time.Second,
			Database: DatabaseConfig{
				Host:         "localhost",
				Port:         5432,
				Name:         "netboard",
				User:         "netboard",
				SSLMode:      "disable",
				MaxOpenConns: 5,
				MaxIdleConns: 2,
			},
		},
		Kiosk: KioskConfig{
			DataDir:       "/var/lib/netboard-kiosk",
			CycleInterval: 10 * time.Second,
		},
	}
}

// overlayEnv overlays environment variables on top of file-based config
func (c *Config) overlayEnv() {
	// Server config
	if host := getEnv("NKIOSK_SERVER_HOST", ""); host != "" {
		c.Server.Host = host
	}
	if port := getEnvAsInt("NKIOSK_SERVER_PORT", 0); port != 0 {
		c.Server.Port = port
	}
	if readTimeout := getEnvAsDuration("NKIOSK_SERVER_READ_TIMEOUT", 0); readTimeout != 0 {
		c.Server.ReadTimeout = readTimeout
	}
	if writeTimeout := getEnvAsDuration("NKIOSK_SERVER_WRITE_TIMEOUT", 0); writeTimeout != 0 {
		c.Server.WriteTimeout = writeTimeout
	}
	if idleTimeout := getEnvAsDuration("NKIOSK_SERVER_IDLE_TIMEOUT", 0); idleTimeout != 0 {
		c.Server.IdleTimeout = idleTimeout
	}
	if tlsCert := getEnv("NKIOSK_TLS_CERT", ""); tlsCert != "" {
		c.Server.TLSCert = tlsCert
	}
	if tlsKey := getEnv("NKIOSK_TLS_KEY", ""); tlsKey != "" {
		c.Server.TLSKey = tlsKey
	}

	// Netboard feed config
	if source := getEnv("NKIOSK_NETBOARD_SOURCE", ""); source != "" {
		c.Netboard.Source = source
	}
	if url := getEnv("NKIOSK_NETBOARD_URL", ""); url != "" {
		c.Netboard.URL = url
	}
	if token := getEnv("NKIOSK_NETBOARD_TOKEN", ""); token != "" {
		c.Netboard.Token = token
	}
	if interval := getEnvAsDuration("NKIOSK_NETBOARD_POLL_INTERVAL", 0); interval != 0 {
		c.Netboard.PollInterval = interval
	}

	// Database config - check multiple env var names
	if host := getEnvMulti([]string{"NKIOSK_DB_HOST", "DB_HOST", "POSTGRES_HOST"}, ""); host != "" {
		c.Netboard.Database.Host = host
	}
	if port := getEnvAsIntMulti([]string{"NKIOSK_DB_PORT", "DB_PORT", "POSTGRES_PORT"}, 0); port != 0 {
		c.Netboard.Database.Port = port
	}
	if name := getEnvMulti([]string{"NKIOSK_DB_NAME", "DB_NAME", "POSTGRES_DB"}, ""); name != "" {
		c.Netboard.Database.Name = name
	}
	if user := getEnvMulti([]string{"NKIOSK_DB_USER", "DB_USER", "POSTGRES_USER"}, ""); user != "" {
		c.Netboard.Database.User = user
	}
	if password := getEnvMulti([]string{"NKIOSK_DB_PASSWORD", "DB_PASSWORD", "POSTGRES_PASSWORD"}, ""); password != "" {
		c.Netboard.Database.Password = password
	}
	if sslmode := getEnv("NKIOSK_DB_SSLMODE", ""); sslmode != "" {
		c.Netboard.Database.SSLMode = sslmode
	}

	// Kiosk config
	if role := getEnv("NKIOSK_ROLE", ""); role != "" {
		c.Kiosk.Role = role
	}
	if dir := getEnv("NKIOSK_DATA_DIR", ""); dir != "" {
		c.Kiosk.DataDir = dir
	}
	if interval := getEnvAsDuration("NKIOSK_CYCLE_INTERVAL", 0); interval != 0 {
		c.Kiosk.CycleInterval = interval
	}
	if cmd := getEnv("NKIOSK_WAKE_LOCK_COMMAND", ""); cmd != "" {
		c.Kiosk.WakeLockCommand = cmd
	}

	// Rate limit config
	if attempts := getEnvAsInt("NKIOSK_PIN_ATTEMPTS", 0); attempts > 0 {
		c.RateLimit.PINAttempts = attempts
	}
	if window := getEnvAsDuration("NKIOSK_PIN_WINDOW", 0); window > 0 {
		c.RateLimit.PINWindow = window
	}
	if addr := getEnv("NKIOSK_REDIS_ADDR", ""); addr != "" {
		c.RateLimit.Redis.Addr = addr
	}
	if password := getEnv("NKIOSK_REDIS_PASSWORD", ""); password != "" {
		c.RateLimit.Redis.Password = password
	}
	if db := getEnvAsInt("NKIOSK_REDIS_DB", 0); db != 0 {
		c.RateLimit.Redis.DB = db
	}

	// MQTT config
	if broker := getEnv("NKIOSK_MQTT_BROKER", ""); broker != "" {
		c.MQTT.Broker = broker
	}
	if id := getEnv("NKIOSK_MQTT_CLIENT_ID", ""); id != "" {
		c.MQTT.ClientID = id
	}
	if user := getEnv("NKIOSK_MQTT_USERNAME", ""); user != "" {
		c.MQTT.Username = user
	}
	if password := getEnv("NKIOSK_MQTT_PASSWORD", ""); password != "" {
		c.MQTT.Password = password
	}
	if prefix := getEnv("NKIOSK_MQTT_TOPIC_PREFIX", ""); prefix != "" {
		c.MQTT.TopicPrefix = prefix
	}
}
