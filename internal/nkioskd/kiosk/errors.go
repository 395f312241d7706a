package kiosk

import "fmt"

// ErrInvalidViewMode indicates an unknown screen name
type ErrInvalidViewMode struct {
	Mode string
}

func (e ErrInvalidViewMode) Error() string {
	return fmt.Sprintf("invalid view mode: %q", e.Mode)
}

// ErrViewRestricted indicates a screen outside the kiosk surface was
// requested while kiosk mode is engaged
type ErrViewRestricted struct {
	Mode ViewMode
}

func (e ErrViewRestricted) Error() string {
	return fmt.Sprintf("view %q is not available in kiosk mode", e.Mode)
}

// ErrInvalidClock indicates a schedule time that is not "HH:MM"
type ErrInvalidClock struct {
	Value string
}

func (e ErrInvalidClock) Error() string {
	return fmt.Sprintf("invalid time of day %q: want HH:MM", e.Value)
}

// ErrInvalidPIN indicates a PIN that is not exactly four digits
type ErrInvalidPIN struct {
	Reason string
}

func (e ErrInvalidPIN) Error() string {
	return fmt.Sprintf("invalid PIN: %s", e.Reason)
}

// ErrClosed indicates an operation on a torn-down controller
type ErrClosed struct{}

func (e ErrClosed) Error() string {
	return "kiosk controller is closed"
}
