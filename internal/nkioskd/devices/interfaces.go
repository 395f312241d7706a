package devices

import "context"

// Source defines the interface for fetching the device feed from the
// dashboard server
type Source interface {
	// FetchDevices retrieves the current device list in server order
	FetchDevices(ctx context.Context) ([]Device, error)

	// FetchStats retrieves the current aggregate stats
	FetchStats(ctx context.Context) (Stats, error)
}

// Sink defines the interface for pushing fresh feed data to a consumer
type Sink interface {
	// UpdateDevices replaces the consumer's device list
	UpdateDevices(ctx context.Context, list []Device) error

	// UpdateStats replaces the consumer's aggregate stats
	UpdateStats(ctx context.Context, stats Stats) error
}
