// Package devices implements the monitored-device feed consumed by the kiosk
package devices

import (
	"strings"
	"time"
)

// Status represents the reported health of a monitored device
type Status string

const (
	// StatusOnline indicates a healthy, reachable device
	StatusOnline Status = "ONLINE"
	// StatusWarning indicates a reachable device with degraded metrics
	StatusWarning Status = "WARNING"
	// StatusOffline indicates a device that stopped responding
	StatusOffline Status = "OFFLINE"
	// StatusCritical indicates a device in a failure state
	StatusCritical Status = "CRITICAL"
)

// Device represents a monitored network device
type Device struct {
	// Name is the device's display name
	Name string
	// IP is the device's management address
	IP string
	// Location names the site or room the device lives in
	Location string
	// Status is the device's reported health
	Status Status
	// CPUUsage is the last sampled CPU utilization percentage
	CPUUsage float64
}

// Problematic reports whether the device qualifies for alert rotation
func (d Device) Problematic() bool {
	return d.Status == StatusOffline || d.Status == StatusCritical
}

// ParseStatus maps an upstream status string onto the kiosk's set.
// Matching is case-insensitive; anything unrecognized renders as WARNING
// so it stays visible without joining the alert rotation.
func ParseStatus(raw string) Status {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ONLINE":
		return StatusOnline
	case "WARNING":
		return StatusWarning
	case "OFFLINE":
		return StatusOffline
	case "CRITICAL":
		return StatusCritical
	default:
		return StatusWarning
	}
}

// Stats aggregates fleet health for the dashboard header
type Stats struct {
	Total      int
	Online     int
	Offline    int
	Critical   int
	AverageCPU float64
}

// Snapshot is a device feed observation with its arrival time
type Snapshot struct {
	Devices   []Device
	Stats     Stats
	UpdatedAt time.Time
}

// Problematic returns the OFFLINE and CRITICAL subsequence of list,
// preserving feed order
func Problematic(list []Device) []Device {
	var out []Device
	for _, d := range list {
		if d.Problematic() {
			out = append(out, d)
		}
	}
	return out
}

// ComputeStats derives aggregate stats from a device list
func ComputeStats(list []Device) Stats {
	s := Stats{Total: len(list)}
	var cpuSum float64
	var cpuCount int
	for _, d := range list {
		switch d.Status {
		case StatusOnline, StatusWarning:
			s.Online++
		case StatusOffline:
			s.Offline++
		case StatusCritical:
			s.Critical++
		}
		if d.Status != StatusOffline {
			cpuSum += d.CPUUsage
			cpuCount++
		}
	}
	if cpuCount > 0 {
		s.AverageCPU = cpuSum / float64(cpuCount)
	}
	return s
}
