// Package v1alpha1 contains API types for the Netboard kiosk system.
package v1alpha1

import (
	"time"

	"github.com/google/uuid"
)

// ViewMode identifies a dashboard screen the kiosk can show
type ViewMode string

const (
	// ViewModeOverview is the device grid summary screen
	ViewModeOverview ViewMode = "overview"
	// ViewModeTopology is the network topology map screen
	ViewModeTopology ViewMode = "topology"
	// ViewModeLocation is the per-location device listing screen
	ViewModeLocation ViewMode = "location"
	// ViewModeInsights is the AI insights screen
	ViewModeInsights ViewMode = "insights"
)

// KioskState reports the full observable state of the kiosk controller
type KioskState struct {
	// TypeMeta describes API version details
	TypeMeta `json:",inline"`

	// SessionID identifies the current daemon session
	SessionID uuid.UUID `json:"sessionId"`
	// Active indicates whether kiosk mode is engaged
	Active bool `json:"active"`
	// ViewMode is the screen currently selected
	ViewMode ViewMode `json:"viewMode"`
	// CycleIntervalSeconds is the view rotation period
	CycleIntervalSeconds int `json:"cycleIntervalSeconds"`
	// AlertIndex is the position of the alert spotlight
	AlertIndex int `json:"alertIndex"`
	// Sleeping indicates the display is blanked by the sleep schedule
	Sleeping bool `json:"sleeping"`
	// Schedule is the configured sleep window
	Schedule KioskSchedule `json:"schedule"`
	// WakeLockHeld indicates the platform wake lock is currently held
	WakeLockHeld bool `json:"wakeLockHeld"`
	// SettingsUnlocked indicates the settings panel guard is open
	SettingsUnlocked bool `json:"settingsUnlocked"`
	// UpdatedAt indicates when this snapshot was taken
	UpdatedAt time.Time `json:"updatedAt"`
}

// KioskSchedule is the sleep schedule configuration
type KioskSchedule struct {
	// Enabled indicates the scheduler evaluates the window
	Enabled bool `json:"enabled"`
	// Window is the daily operating-hours period; the display sleeps
	// outside it. Start at or after End means the window wraps past
	// midnight
	Window TimeRange `json:"window"`
}

// SetActiveRequest engages or disengages kiosk mode
type SetActiveRequest struct {
	// Active is the desired kiosk mode state
	Active bool `json:"active"`
}

// SetIntervalRequest changes the view rotation period
type SetIntervalRequest struct {
	// Seconds is the new rotation period; values below 1 disable rotation
	Seconds int `json:"seconds"`
}

// SetScheduleRequest updates the sleep schedule; nil fields are left unchanged
type SetScheduleRequest struct {
	// Enabled toggles schedule evaluation
	Enabled *bool `json:"enabled,omitempty"`
	// Start replaces the window start ("HH:MM")
	Start *string `json:"start,omitempty"`
	// End replaces the window end ("HH:MM")
	End *string `json:"end,omitempty"`
}

// SetViewRequest selects a dashboard screen
type SetViewRequest struct {
	// View is the screen to show
	View ViewMode `json:"view"`
}

// UnlockRequest submits a PIN candidate to open the settings panel
type UnlockRequest struct {
	// PIN is the candidate to check
	PIN string `json:"pin"`
}

// UpdatePINRequest replaces the stored settings PIN
type UpdatePINRequest struct {
	// PIN is the new value
	PIN string `json:"pin"`
}
