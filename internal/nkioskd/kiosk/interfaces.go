package kiosk

import (
	"context"
)

// SettingsRepository defines the interface for the two persisted kiosk
// settings. Loading and saving is a host responsibility; the controller
// itself only reads the PIN, at submit time.
type SettingsRepository interface {
	// LoadPIN retrieves the stored operator PIN; errors.ErrNotFound
	// when no PIN has been stored
	LoadPIN(ctx context.Context) (string, error)

	// SavePIN persists a new operator PIN
	SavePIN(ctx context.Context, pin string) error

	// LoadSchedule retrieves the stored sleep schedule;
	// errors.ErrNotFound when none has been stored
	LoadSchedule(ctx context.Context) (Schedule, error)

	// SaveSchedule persists the sleep schedule
	SaveSchedule(ctx context.Context, schedule Schedule) error
}
