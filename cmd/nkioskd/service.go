package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/kardianos/service"
)

// program implements service.Interface
type program struct {
	configPath string
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	svcLogger  service.Logger
}

func (p *program) Start(s service.Service) error {
	p.svcLogger, _ = s.Logger(nil)
	if p.svcLogger != nil {
		p.svcLogger.Info("nkioskd service starting")
	}

	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.done = make(chan struct{})

	go p.run()
	return nil
}

func (p *program) run() {
	defer close(p.done)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(p.ctx, p.configPath, logger); err != nil {
		logger.Error("daemon failed", "error", err)
		if p.svcLogger != nil {
			p.svcLogger.Error(fmt.Sprintf("nkioskd failed: %v", err))
		}
	}
}

func (p *program) Stop(s service.Service) error {
	if p.svcLogger != nil {
		p.svcLogger.Info("nkioskd service stop requested")
	}

	if p.cancel != nil {
		p.cancel()
	}

	// Wait for run() to finish with timeout
	timeout := time.After(30 * time.Second)
	select {
	case <-p.done:
		if p.svcLogger != nil {
			p.svcLogger.Info("nkioskd service stopped gracefully")
		}
	case <-timeout:
		if p.svcLogger != nil {
			p.svcLogger.Warning("nkioskd service stopped with timeout")
		}
	}

	return nil
}

// getServiceConfig returns the service configuration for the current platform
func getServiceConfig(configPath string) *service.Config {
	args := []string{"-service", "run"}
	if configPath != "" {
		args = append(args, "-config", configPath)
	}

	return &service.Config{
		Name:        "nkioskd",
		DisplayName: "Netboard Kiosk Daemon",
		Description: "Drives an unattended Netboard dashboard display: view rotation, alert spotlight, sleep schedule and screen wake lock.",
		Arguments:   args,
		Option: service.KeyValue{
			// Linux systemd options
			"Restart":           "on-failure",
			"RestartSec":        5,
			"SuccessExitStatus": "0 SIGTERM",
			"KillSignal":        "SIGTERM",

			// macOS launchd options
			"RunAtLoad": true,
			"KeepAlive": true,
		},
	}
}

func newService(configPath string) (service.Service, error) {
	prg := &program{configPath: configPath}
	return service.New(prg, getServiceConfig(configPath))
}

// runAsService hands control to the service manager
func runAsService(configPath string) {
	s, err := newService(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create service: %v\n", err)
		os.Exit(1)
	}
	if err := s.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Service run failed: %v\n", err)
		os.Exit(1)
	}
}

// handleServiceCommand processes service install/uninstall/start/stop commands
func handleServiceCommand(cmd, configPath string) {
	s, err := newService(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create service: %v\n", err)
		os.Exit(1)
	}

	switch cmd {
	case "install":
		if err := s.Install(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to install service: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("nkioskd service installed; use '-service start' to start it")

	case "uninstall":
		if err := s.Uninstall(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to uninstall service: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("nkioskd service uninstalled")

	case "start":
		if err := s.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start service: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("nkioskd service started")

	case "stop":
		if err := s.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to stop service: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("nkioskd service stopped")

	case "status":
		status, err := s.Status()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to query service status: %v\n", err)
			os.Exit(1)
		}
		switch status {
		case service.StatusRunning:
			fmt.Println("nkioskd is running")
		case service.StatusStopped:
			fmt.Println("nkioskd is stopped")
		default:
			fmt.Println("nkioskd service status unknown")
		}

	case "run":
		// Called by the service manager
		if err := s.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Service run failed: %v\n", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown service command %q\n", cmd)
		os.Exit(1)
	}
}
