// The nkioskd command implements the Netboard kiosk display daemon
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/kardianos/service"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/netboard/netboard-kiosk/internal/nkioskd/config"
	"github.com/netboard/netboard-kiosk/internal/nkioskd/devices"
	"github.com/netboard/netboard-kiosk/internal/nkioskd/devices/netboard"
	devicespg "github.com/netboard/netboard-kiosk/internal/nkioskd/devices/postgres"
	"github.com/netboard/netboard-kiosk/internal/nkioskd/errors"
	kioskhttp "github.com/netboard/netboard-kiosk/internal/nkioskd/http"
	"github.com/netboard/netboard-kiosk/internal/nkioskd/kiosk"
	"github.com/netboard/netboard-kiosk/internal/nkioskd/kiosk/bolt"
	"github.com/netboard/netboard-kiosk/internal/nkioskd/mqtt"
	"github.com/netboard/netboard-kiosk/internal/nkioskd/ratelimit"
	ratelimitmem "github.com/netboard/netboard-kiosk/internal/nkioskd/ratelimit/memory"
	ratelimitredis "github.com/netboard/netboard-kiosk/internal/nkioskd/ratelimit/redis"
	"github.com/netboard/netboard-kiosk/internal/nkioskd/wakelock"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	serviceCmd := flag.String("service", "", "service command: install, uninstall, start, stop, status, run")
	flag.Parse()

	if *serviceCmd != "" {
		handleServiceCommand(*serviceCmd, *configPath)
		return
	}

	if !service.Interactive() {
		runAsService(*configPath)
		return
	}

	// Initialize structured logging with JSON format for easier parsing
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up graceful shutdown on interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-shutdown
		logger.Info("shutdown signal received")
		cancel()
	}()

	if err := run(ctx, *configPath, logger); err != nil {
		logger.Error("daemon failed", "error", err)
		os.Exit(1)
	}
}

// run assembles the daemon and blocks until ctx ends or startup fails
func run(ctx context.Context, configPath string, logger *slog.Logger) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	// Settings store
	if err := os.MkdirAll(cfg.Kiosk.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	store, err := bolt.NewStore(filepath.Join(cfg.Kiosk.DataDir, "settings.db"))
	if err != nil {
		return fmt.Errorf("opening settings store: %w", err)
	}
	defer store.Close()

	// Wake lock capability
	var locker wakelock.Locker = wakelock.Unsupported{}
	if cfg.Kiosk.WakeLockCommand != "" {
		locker = wakelock.NewExec(cfg.Kiosk.WakeLockCommand, logger)
	}

	controller := kiosk.New(store, locker, logger,
		kiosk.WithCycleInterval(cfg.Kiosk.CycleInterval),
	)
	defer controller.Close()

	restoreSettings(ctx, controller, store, cfg, logger)

	// Device feed
	source, closeSource, err := buildSource(cfg, logger)
	if err != nil {
		return err
	}
	if closeSource != nil {
		defer closeSource()
	}
	if source != nil {
		poller := devices.NewPoller(source, controller, cfg.Netboard.PollInterval, logger)
		go poller.Run(ctx)
	}

	handler := kioskhttp.NewHandler(controller, store, buildRateLimiter(cfg, logger), logger)
	go handler.Run(ctx)

	// Optional broker announcer
	if cfg.MQTT.Broker != "" {
		zl := zerolog.New(os.Stdout).With().Timestamp().Logger()
		announcer, err := mqtt.NewAnnouncer(controller, mqtt.Config{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			TopicPrefix: cfg.MQTT.TopicPrefix,
		}, zl)
		if err != nil {
			// A broker outage must not keep the display dark
			logger.Warn("mqtt announcer unavailable", "error", err)
		} else {
			announcer.Start()
			defer announcer.Stop()
		}
	}

	// Create HTTP server with timeouts and configuration
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			"host", cfg.Server.Host,
			"port", cfg.Server.Port,
		)

		var err error
		if cfg.Server.TLSCert != "" && cfg.Server.TLSKey != "" {
			err = server.ListenAndServeTLS(cfg.Server.TLSCert, cfg.Server.TLSKey)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// restoreSettings replays the persisted schedule and engages kiosk mode
// on hosts provisioned with the kiosk role
func restoreSettings(ctx context.Context, controller *kiosk.Controller, store *bolt.Store, cfg *config.Config, logger *slog.Logger) {
	schedule, err := store.LoadSchedule(ctx)
	switch {
	case err == nil:
		if err := controller.SetScheduleWindow(ctx, schedule.Start, schedule.End); err != nil {
			logger.Warn("stored schedule window rejected", "error", err)
		} else if err := controller.SetScheduleEnabled(ctx, schedule.Enabled); err != nil {
			logger.Warn("failed to restore schedule", "error", err)
		}
	case errors.IsNotFound(err):
	default:
		logger.Warn("failed to load stored schedule", "error", err)
	}

	if cfg.Kiosk.Role == "kiosk" {
		if err := controller.SetActive(ctx, true); err != nil {
			logger.Error("failed to engage kiosk mode at boot", "error", err)
		} else {
			logger.Info("kiosk mode engaged at boot")
		}
	}
}

// buildSource selects the device feed implementation; a nil source means
// the feed is disabled
func buildSource(cfg *config.Config, logger *slog.Logger) (devices.Source, func(), error) {
	switch cfg.Netboard.Source {
	case "none":
		logger.Info("device feed disabled")
		return nil, nil, nil
	case "postgres":
		db, err := openDatabase(cfg.Netboard.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		return devicespg.NewSource(db, logger), func() { db.Close() }, nil
	case "http":
		var opts []netboard.Option
		if cfg.Netboard.Token != "" {
			opts = append(opts, netboard.WithToken(cfg.Netboard.Token))
		}
		source, err := netboard.NewSource(cfg.Netboard.URL, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("building dashboard source: %w", err)
		}
		return source, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown device source %q", cfg.Netboard.Source)
	}
}

func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// buildRateLimiter wires the PIN attempt and API throttles, shared via
// redis when an address is configured
func buildRateLimiter(cfg *config.Config, logger *slog.Logger) ratelimit.Service {
	var store ratelimit.Store
	if cfg.RateLimit.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.Redis.Addr,
			Password: cfg.RateLimit.Redis.Password,
			DB:       cfg.RateLimit.Redis.DB,
		})
		store = ratelimitredis.NewStore(client)
		logger.Info("rate limits shared via redis", "addr", cfg.RateLimit.Redis.Addr)
	} else {
		store = ratelimitmem.NewStore()
	}

	svc := ratelimit.NewService(store, logger)
	svc.RegisterDefaultLimits()
	svc.RegisterConfiguredLimits(cfg.RateLimit)
	return svc
}
