// Package kiosk implements the kiosk display controller: the state
// machine that turns the dashboard into an unattended, always-on display.
// Four cooperating policies operate over one shared state record: the
// mode gate, the view rotator, the alert rotator, and the sleep
// scheduler, plus a wake-lock manager tied to the mode gate and a
// PIN guard in front of the settings panel.
package kiosk

import (
	"time"

	"github.com/google/uuid"
)

// ViewMode identifies a dashboard screen
type ViewMode string

const (
	// ViewOverview is the device grid summary screen
	ViewOverview ViewMode = "overview"
	// ViewTopology is the network topology map screen
	ViewTopology ViewMode = "topology"
	// ViewLocation is the per-location device listing screen
	ViewLocation ViewMode = "location"
	// ViewInsights is the AI insights screen; part of the restricted
	// kiosk surface but outside the rotation cycle
	ViewInsights ViewMode = "insights"
)

const (
	// DefaultCycleInterval is the view rotation period when none is
	// configured
	DefaultCycleInterval = 10 * time.Second
	// AlertRotationPeriod is the fixed alert spotlight period
	AlertRotationPeriod = 5 * time.Second
	// ScheduleEvalPeriod is how often the sleep window is re-evaluated
	// while kiosk mode is engaged
	ScheduleEvalPeriod = 60 * time.Second
	// DefaultPIN guards the settings panel when no PIN has been stored
	DefaultPIN = "0000"
)

// State is the kiosk state record. It is owned by the Controller and
// mutated only by the four policies and the settings panel operations.
type State struct {
	// SessionID identifies the display session
	SessionID uuid.UUID
	// Active indicates kiosk mode is engaged
	Active bool
	// ViewMode is the screen currently selected
	ViewMode ViewMode
	// CycleInterval is the view rotation period; values at or below
	// zero park the rotator
	CycleInterval time.Duration
	// AlertIndex is the alert spotlight position, taken modulo the
	// problematic-device count on every access
	AlertIndex int
	// Sleeping indicates the display is blanked by the sleep schedule
	Sleeping bool
	// Schedule is the configured daily operating-hours window
	Schedule Schedule
	// WakeLockHeld mirrors whether the stay-awake resource is granted
	WakeLockHeld bool
	// SettingsUnlocked indicates the settings panel guard is open
	SettingsUnlocked bool
	// UpdatedAt is when the state last changed
	UpdatedAt time.Time
}

// Schedule is the daily operating-hours window. The display sleeps
// outside the window while Enabled is true.
type Schedule struct {
	// Enabled indicates the scheduler evaluates the window
	Enabled bool
	// Start is the inclusive window start, "HH:MM" local time
	Start string
	// End is the exclusive window end, "HH:MM" local time
	End string
}

// ValidViewMode reports whether m names a known screen
func ValidViewMode(m ViewMode) bool {
	switch m {
	case ViewOverview, ViewTopology, ViewLocation, ViewInsights:
		return true
	}
	return false
}

// restrictedView reports whether m is allowed while kiosk mode is
// engaged; kiosk mode restricts navigation to a minimal surface
func restrictedView(m ViewMode) bool {
	return m == ViewOverview || m == ViewInsights
}

// nextView returns the successor in the rotation cycle. Screens outside
// the cycle fall back to overview.
func nextView(m ViewMode) ViewMode {
	switch m {
	case ViewOverview:
		return ViewTopology
	case ViewTopology:
		return ViewLocation
	case ViewLocation:
		return ViewOverview
	default:
		return ViewOverview
	}
}
