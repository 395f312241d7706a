package kiosk

import (
	"time"
)

// clockLayout is the schedule time-of-day format
const clockLayout = "15:04"

// parseClock converts an "HH:MM" string to minutes since midnight
func parseClock(s string) (int, error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, ErrInvalidClock{Value: s}
	}
	return t.Hour()*60 + t.Minute(), nil
}

// shouldBeAwake evaluates the operating-hours window at now. Start is
// inclusive and end is exclusive. A start at or after the end means the
// window wraps past midnight; equal start and end therefore covers the
// whole day.
func shouldBeAwake(start, end string, now time.Time) (bool, error) {
	startMin, err := parseClock(start)
	if err != nil {
		return true, err
	}
	endMin, err := parseClock(end)
	if err != nil {
		return true, err
	}

	nowMin := now.Hour()*60 + now.Minute()
	if startMin < endMin {
		return startMin <= nowMin && nowMin < endMin, nil
	}
	return nowMin >= startMin || nowMin < endMin, nil
}

// awakeAt reports whether the schedule window covers now. A window that
// fails to parse counts as awake so a malformed stored schedule can
// never blank the display.
func (s Schedule) awakeAt(now time.Time) bool {
	awake, err := shouldBeAwake(s.Start, s.End, now)
	if err != nil {
		return true
	}
	return awake
}

// Validate checks the window fields parse as "HH:MM"
func (s Schedule) Validate() error {
	if _, err := parseClock(s.Start); err != nil {
		return err
	}
	if _, err := parseClock(s.End); err != nil {
		return err
	}
	return nil
}
