// Package testing provides helpers for exercising the kiosk HTTP API
package testing

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/netboard/netboard-kiosk/internal/nkioskd/errors"
	kioskhttp "github.com/netboard/netboard-kiosk/internal/nkioskd/http"
	"github.com/netboard/netboard-kiosk/internal/nkioskd/kiosk"
	"github.com/netboard/netboard-kiosk/internal/nkioskd/ratelimit"
	ratelimitmem "github.com/netboard/netboard-kiosk/internal/nkioskd/ratelimit/memory"
	"github.com/netboard/netboard-kiosk/internal/nkioskd/wakelock"
)

// MemSettings is an in-memory settings repository for tests
type MemSettings struct {
	mu          sync.Mutex
	pin         string
	hasPIN      bool
	schedule    kiosk.Schedule
	hasSchedule bool
}

// LoadPIN implements kiosk.SettingsRepository
func (m *MemSettings) LoadPIN(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasPIN {
		return "", errors.ErrNotFound
	}
	return m.pin, nil
}

// SavePIN implements kiosk.SettingsRepository
func (m *MemSettings) SavePIN(ctx context.Context, pin string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pin = pin
	m.hasPIN = true
	return nil
}

// LoadSchedule implements kiosk.SettingsRepository
func (m *MemSettings) LoadSchedule(ctx context.Context) (kiosk.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasSchedule {
		return kiosk.Schedule{}, errors.ErrNotFound
	}
	return m.schedule, nil
}

// SaveSchedule implements kiosk.SettingsRepository
func (m *MemSettings) SaveSchedule(ctx context.Context, schedule kiosk.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedule = schedule
	m.hasSchedule = true
	return nil
}

// StoredPIN returns the last saved PIN, if any
func (m *MemSettings) StoredPIN() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pin, m.hasPIN
}

// StoredSchedule returns the last saved schedule, if any
func (m *MemSettings) StoredSchedule() (kiosk.Schedule, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.schedule, m.hasSchedule
}

// TestHandler bundles a handler with its in-memory collaborators
type TestHandler struct {
	Handler    *kioskhttp.Handler
	Controller *kiosk.Controller
	Settings   *MemSettings
	RateLimit  ratelimit.Service
}

// NewTestHandler builds a handler over a real controller with in-memory
// settings and rate limiting. The controller is torn down with the test.
func NewTestHandler(t *testing.T, opts ...kiosk.Option) *TestHandler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	settings := &MemSettings{}

	controller := kiosk.New(settings, wakelock.Unsupported{}, logger, opts...)
	t.Cleanup(func() { _ = controller.Close() })

	limits := ratelimit.NewService(ratelimitmem.NewStore(), logger)
	limits.RegisterDefaultLimits()

	return &TestHandler{
		Handler:    kioskhttp.NewHandler(controller, settings, limits, logger),
		Controller: controller,
		Settings:   settings,
		RateLimit:  limits,
	}
}
