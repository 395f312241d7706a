// Package ratelimit throttles abusable kiosk API operations, chiefly
// PIN submissions against the settings guard.
package ratelimit

import (
	"context"
	"time"

	"github.com/netboard/netboard-kiosk/internal/nkioskd/config"
)

// LimitKey names one counter: a limit type plus the caller identity it
// is scoped to.
type LimitKey struct {
	Type     string // registered limit type, e.g. "pin_attempt"
	RemoteIP string // caller address the counter is scoped to
	Endpoint string // request path, for per-endpoint scoping
}

// Limit is the budget enforced for one limit type.
type Limit struct {
	// Rate is the attempt budget per Period
	Rate int

	// Period is the fixed counting window
	Period time.Duration

	// BurstSize widens the budget by a short-term allowance
	BurstSize int

	// WaitTimeout bounds how long a caller may wait for capacity
	// instead of failing fast; zero disables waiting
	WaitTimeout time.Duration
}

// LimitStatus is a point-in-time read of one counter.
type LimitStatus struct {
	// Limit is the configuration in force
	Limit Limit

	// Remaining is the number of attempts left in the window
	Remaining int

	// Reset is when the window rolls over
	Reset time.Time
}

// Store persists counters. Implementations live in memory for a single
// kiosk host or in Redis when several hosts share budgets.
type Store interface {
	// Increment counts an attempt and returns the running total.
	// Returns ErrLimitExceeded once the total passes the limit.
	Increment(ctx context.Context, key LimitKey, limit Limit) (int, error)

	// Reset clears a counter
	Reset(ctx context.Context, key LimitKey) error

	// Status reports the current standing without counting an attempt
	Status(ctx context.Context, key LimitKey, limit Limit) (*LimitStatus, error)
}

// Service pairs a Store with the registered limit table.
type Service interface {
	// Allow counts an attempt and reports whether it fits the budget
	Allow(ctx context.Context, key LimitKey) error

	// GetLimit returns the limit registered for a type, zero if none
	GetLimit(limitType string) Limit

	// Status reports the current standing of a key
	Status(ctx context.Context, key LimitKey) (*LimitStatus, error)

	// Reset clears counters for a key
	Reset(ctx context.Context, key LimitKey) error

	// RegisterDefaultLimits installs the built-in limit table
	RegisterDefaultLimits()

	// RegisterConfiguredLimits overlays operator-tuned limits
	RegisterConfiguredLimits(config.RateLimitConfig)
}

var (
	ErrLimitExceeded = NewError("RATE_LIMITED", "rate limit exceeded")
	ErrStoreError    = NewError("STORE_ERROR", "rate limit store error")
	ErrInvalidLimit  = NewError("INVALID_LIMIT", "invalid rate limit configuration")
	ErrInvalidKey    = NewError("INVALID_KEY", "invalid rate limit key")
)

// Error is a coded rate limiting error
type Error struct {
	Code    string
	Message string
}

func (e Error) Error() string {
	return e.Message
}

// NewError creates a coded rate limit error
func NewError(code string, message string) Error {
	return Error{
		Code:    code,
		Message: message,
	}
}
