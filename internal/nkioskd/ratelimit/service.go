package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/netboard/netboard-kiosk/internal/nkioskd/config"
)

// defaultLimits is the built-in budget table. PIN attempts carry the
// tightest budget on the box; the rest exist to keep a misbehaving
// renderer or a LAN scanner from monopolizing the daemon.
var defaultLimits = map[string]Limit{
	"pin_attempt":    {Rate: 5, Period: 5 * time.Minute},
	"api_request":    {Rate: 100, Period: time.Minute, BurstSize: 20, WaitTimeout: time.Second},
	"ws_connect":     {Rate: 10, Period: time.Minute, BurstSize: 5},
	"settings_write": {Rate: 30, Period: time.Minute},
}

type service struct {
	store  Store
	logger *slog.Logger

	mu     sync.RWMutex
	limits map[string]Limit
}

// NewService wires a limiter over the given counter store. The table
// starts empty; callers install limits with RegisterDefaultLimits and
// optionally overlay them with RegisterConfiguredLimits.
func NewService(store Store, logger *slog.Logger) Service {
	return &service{
		store:  store,
		logger: logger,
		limits: make(map[string]Limit),
	}
}

// register stores a limit under a type name. Limits without a positive
// rate and period are rejected so a bad entry cannot zero out a budget.
func (s *service) register(limitType string, limit Limit) error {
	if limit.Rate <= 0 || limit.Period <= 0 {
		return ErrInvalidLimit
	}

	s.mu.Lock()
	s.limits[limitType] = limit
	s.mu.Unlock()
	return nil
}

func (s *service) lookup(limitType string) (Limit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	limit, ok := s.limits[limitType]
	return limit, ok
}

// Allow counts one attempt under the key and reports whether it still
// fits the registered budget. Keys whose type has no registered limit
// pass with a warning; a missing table entry degrades open rather than
// locking operators out of the kiosk.
func (s *service) Allow(ctx context.Context, key LimitKey) error {
	if key.Type == "" {
		return ErrInvalidKey
	}

	limit, ok := s.lookup(key.Type)
	if !ok {
		s.logger.Warn("no rate limit configured for type",
			"type", key.Type,
		)
		return nil
	}

	count, err := s.store.Increment(ctx, key, limit)
	if err != nil {
		s.logger.Debug("attempt rejected",
			"type", key.Type,
			"remoteIP", key.RemoteIP,
			"endpoint", key.Endpoint,
			"error", err,
		)
		return err
	}

	s.logger.Debug("attempt counted",
		"type", key.Type,
		"count", count,
		"budget", limit.Rate+limit.BurstSize,
		"endpoint", key.Endpoint,
	)
	return nil
}

// GetLimit returns the limit registered for a type, zero if none.
func (s *service) GetLimit(limitType string) Limit {
	limit, _ := s.lookup(limitType)
	return limit
}

// Status reports the caller's standing without counting an attempt.
// Unregistered types are unlimited and report a single open slot.
func (s *service) Status(ctx context.Context, key LimitKey) (*LimitStatus, error) {
	if key.Type == "" {
		return nil, ErrInvalidKey
	}

	limit, ok := s.lookup(key.Type)
	if !ok {
		return &LimitStatus{Limit: limit, Remaining: 1, Reset: time.Now()}, nil
	}

	return s.store.Status(ctx, key, limit)
}

// Reset clears the counters for one key, as after a successful unlock.
func (s *service) Reset(ctx context.Context, key LimitKey) error {
	if key.Type == "" {
		return ErrInvalidKey
	}

	if err := s.store.Reset(ctx, key); err != nil {
		s.logger.Error("failed to reset rate limit",
			"type", key.Type,
			"endpoint", key.Endpoint,
			"error", err,
		)
		return err
	}
	return nil
}

// RegisterDefaultLimits installs the built-in limit table.
func (s *service) RegisterDefaultLimits() {
	for limitType, limit := range defaultLimits {
		if err := s.register(limitType, limit); err != nil {
			s.logger.Error("dropping invalid built-in limit",
				"type", limitType,
				"error", err,
			)
		}
	}
}

// RegisterConfiguredLimits overlays operator-tuned limits from the
// config file. Zero or missing fields keep the built-in defaults.
func (s *service) RegisterConfiguredLimits(cfg config.RateLimitConfig) {
	pin := Limit{Rate: cfg.PINAttempts, Period: cfg.PINWindow}
	if err := s.register("pin_attempt", pin); err != nil {
		s.logger.Debug("keeping default pin_attempt limit",
			"error", err,
		)
	}
}
