package devices

import (
	"context"
	"log/slog"
	"time"
)

// Poller periodically copies the device feed from a Source into a Sink.
// Fetch failures are logged and the consumer keeps its last good data.
type Poller struct {
	source   Source
	sink     Sink
	interval time.Duration
	logger   *slog.Logger
}

// NewPoller creates a poller with the given cadence
func NewPoller(source Source, sink Sink, interval time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		source:   source,
		sink:     sink,
		interval: interval,
		logger:   logger,
	}
}

// Run polls until ctx is cancelled. The first poll happens immediately.
func (p *Poller) Run(ctx context.Context) {
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	list, err := p.source.FetchDevices(ctx)
	if err != nil {
		p.logger.Warn("device fetch failed", "error", err)
	} else if err := p.sink.UpdateDevices(ctx, list); err != nil {
		p.logger.Warn("device update rejected", "error", err)
	}

	stats, err := p.source.FetchStats(ctx)
	if err != nil {
		p.logger.Warn("stats fetch failed", "error", err)
	} else if err := p.sink.UpdateStats(ctx, stats); err != nil {
		p.logger.Warn("stats update rejected", "error", err)
	}
}
