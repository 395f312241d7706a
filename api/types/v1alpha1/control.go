package v1alpha1

import "time"

// ControlMessageType discriminates frames on the renderer socket
type ControlMessageType string

const (
	// ControlMessageStateUpdate carries a fresh kiosk state snapshot
	ControlMessageStateUpdate ControlMessageType = "STATE_UPDATE"
	// ControlMessageDeviceUpdate carries a fresh device report
	ControlMessageDeviceUpdate ControlMessageType = "DEVICE_UPDATE"
	// ControlMessageWake asks the daemon to wake a sleeping display
	ControlMessageWake ControlMessageType = "WAKE"
)

// ControlMessage is one frame on the renderer WebSocket. The daemon
// pushes STATE_UPDATE and DEVICE_UPDATE frames; WAKE is the single
// frame a renderer sends back.
type ControlMessage struct {
	TypeMeta `json:",inline"`

	// Type discriminates which payload field is set
	Type ControlMessageType `json:"type"`

	// State rides on STATE_UPDATE frames
	State *KioskState `json:"state,omitempty"`

	// Devices rides on DEVICE_UPDATE frames
	Devices *DeviceReport `json:"devices,omitempty"`

	// Timestamp records when the daemon built the frame
	Timestamp time.Time `json:"timestamp"`
}
