package cmd

import (
	"fmt"

	"github.com/netboard/netboard-kiosk/api/types/v1alpha1"
)

func formatInterval(seconds int) string {
	if seconds < 1 {
		return "paused"
	}
	return fmt.Sprintf("every %ds", seconds)
}

func formatSchedule(state *v1alpha1.KioskState) string {
	if !state.Schedule.Enabled {
		return "disabled"
	}
	w := state.Schedule.Window
	if w.Start == w.End {
		return "enabled, always awake"
	}
	return fmt.Sprintf("awake %s-%s", w.Start, w.End)
}

func heldOrReleased(held bool) string {
	if held {
		return "held"
	}
	return "released"
}

func lockedOrUnlocked(unlocked bool) string {
	if unlocked {
		return "unlocked"
	}
	return "locked"
}
