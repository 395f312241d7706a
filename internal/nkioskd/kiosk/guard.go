package kiosk

import (
	"context"
	"crypto/subtle"

	"github.com/netboard/netboard-kiosk/internal/nkioskd/errors"
)

// ValidatePIN checks that a settings PIN is exactly four digits
func ValidatePIN(pin string) error {
	if len(pin) != 4 {
		return ErrInvalidPIN{Reason: "must be exactly 4 digits"}
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return ErrInvalidPIN{Reason: "must contain digits only"}
		}
	}
	return nil
}

// SubmitPIN checks a candidate against the stored PIN and opens the
// settings panel on a match. The stored value is read at submit time;
// absence means the factory default. Failed candidates are never
// retained and the stored value is never echoed back.
func (c *Controller) SubmitPIN(ctx context.Context, candidate string) error {
	const op = "KioskController.SubmitPIN"

	stored, err := c.settings.LoadPIN(ctx)
	if err != nil {
		if !errors.IsNotFound(err) {
			return errors.NewError("PIN_CHECK_FAILED", "Failed to read stored PIN", op, err)
		}
		stored = DefaultPIN
	}
	if stored == "" {
		stored = DefaultPIN
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) != 1 {
		return errors.NewError("PIN_MISMATCH", "Incorrect PIN", op, errors.ErrUnauthorized)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.NewError("CONTROLLER_CLOSED", "Controller has been torn down", op, ErrClosed{})
	}
	if c.state.SettingsUnlocked {
		c.mu.Unlock()
		return nil
	}
	c.state.SettingsUnlocked = true
	c.touchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.events.Emit(Event{Type: EventSettingsUnlocked, State: snap})
	return nil
}

// DismissSettings closes the settings panel. The guard resets every
// time the panel closes; the next visit asks for the PIN again.
func (c *Controller) DismissSettings(ctx context.Context) error {
	c.mu.Lock()
	if c.closed || !c.state.SettingsUnlocked {
		c.mu.Unlock()
		return nil
	}
	c.state.SettingsUnlocked = false
	c.touchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.events.Emit(Event{Type: EventSettingsDismissed, State: snap})
	return nil
}

// SettingsUnlocked reports whether the settings guard is open
func (c *Controller) SettingsUnlocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.SettingsUnlocked
}
