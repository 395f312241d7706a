// Package v1alpha1 contains API types for the Netboard kiosk system.
package v1alpha1

import "time"

// DeviceStatus represents the reported health of a monitored device
type DeviceStatus string

const (
	// DeviceStatusOnline indicates a healthy, reachable device
	DeviceStatusOnline DeviceStatus = "ONLINE"
	// DeviceStatusWarning indicates a reachable device with degraded metrics
	DeviceStatusWarning DeviceStatus = "WARNING"
	// DeviceStatusOffline indicates a device that stopped responding
	DeviceStatusOffline DeviceStatus = "OFFLINE"
	// DeviceStatusCritical indicates a device in a failure state
	DeviceStatusCritical DeviceStatus = "CRITICAL"
)

// Device represents a monitored network device as shown on the dashboard
type Device struct {
	// Name is the device's display name
	Name string `json:"name"`
	// IP is the device's management address
	IP string `json:"ip"`
	// Location names the site or room the device lives in
	Location string `json:"location"`
	// Status is the device's reported health
	Status DeviceStatus `json:"status"`
	// CPUUsage is the last sampled CPU utilization percentage
	CPUUsage float64 `json:"cpuUsage"`
}

// SystemStats aggregates fleet health for the dashboard header
type SystemStats struct {
	// TotalDevices is the number of monitored devices
	TotalDevices int `json:"totalDevices"`
	// OnlineDevices is the number of devices reporting ONLINE
	OnlineDevices int `json:"onlineDevices"`
	// OfflineDevices is the number of devices reporting OFFLINE
	OfflineDevices int `json:"offlineDevices"`
	// CriticalDevices is the number of devices reporting CRITICAL
	CriticalDevices int `json:"criticalDevices"`
	// AverageCPU is the mean CPU utilization across reporting devices
	AverageCPU float64 `json:"averageCpu"`
}

// DeviceReport is the kiosk's view of the device feed
type DeviceReport struct {
	// TypeMeta describes API version details
	TypeMeta `json:",inline"`

	// Devices is the full device list in feed order
	Devices []Device `json:"devices"`
	// Problematic is the OFFLINE and CRITICAL subset in feed order
	Problematic []Device `json:"problematic"`
	// CurrentAlert is the device under the alert spotlight, if any
	CurrentAlert *Device `json:"currentAlert,omitempty"`
	// Stats aggregates fleet health
	Stats SystemStats `json:"stats"`
	// UpdatedAt indicates when the feed was last refreshed
	UpdatedAt time.Time `json:"updatedAt"`
}
