// Package util carries output formatting helpers shared by the CLI
// commands.
package util

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// PrintJSON renders v as indented JSON, for --output json modes
func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// NewTabWriter returns a tabwriter with the column settings every
// tabular command uses
func NewTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// FormatDuration renders an age for status columns, coarsening with
// distance
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// FormatOnOff renders a boolean as on/off for status columns
func FormatOnOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
