package devices

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu      sync.Mutex
	list    []Device
	stats   Stats
	listErr error
}

func (f *fakeSource) FetchDevices(ctx context.Context) ([]Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.list, nil
}

func (f *fakeSource) FetchStats(ctx context.Context) (Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats, nil
}

func (f *fakeSource) setListErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

type recordSink struct {
	mu          sync.Mutex
	deviceCalls int
	statsCalls  int
	lastDevices []Device
	lastStats   Stats
}

func (r *recordSink) UpdateDevices(ctx context.Context, list []Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deviceCalls++
	r.lastDevices = list
	return nil
}

func (r *recordSink) UpdateStats(ctx context.Context, stats Stats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statsCalls++
	r.lastStats = stats
	return nil
}

func (r *recordSink) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deviceCalls, r.statsCalls
}

func TestPoller_DeliversFeed(t *testing.T) {
	source := &fakeSource{
		list:  []Device{{Name: "sw-1", Status: StatusOnline}},
		stats: Stats{Total: 1, Online: 1},
	}
	sink := &recordSink{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		NewPoller(source, sink, 10*time.Millisecond, logger).Run(ctx)
	}()

	require.Eventually(t, func() bool {
		devs, stats := sink.counts()
		return devs >= 2 && stats >= 2
	}, 2*time.Second, 5*time.Millisecond, "first poll is immediate, then the ticker takes over")

	cancel()
	<-done

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, "sw-1", sink.lastDevices[0].Name)
	assert.Equal(t, 1, sink.lastStats.Total)
}

func TestPoller_KeepsGoingAfterFetchFailure(t *testing.T) {
	source := &fakeSource{list: []Device{{Name: "sw-1", Status: StatusOnline}}}
	source.setListErr(assert.AnError)
	sink := &recordSink{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		NewPoller(source, sink, 10*time.Millisecond, logger).Run(ctx)
	}()

	// Stats still flow while the device fetch fails
	require.Eventually(t, func() bool {
		_, stats := sink.counts()
		return stats >= 1
	}, 2*time.Second, 5*time.Millisecond)
	devs, _ := sink.counts()
	assert.Zero(t, devs)

	source.setListErr(nil)
	require.Eventually(t, func() bool {
		devs, _ := sink.counts()
		return devs >= 1
	}, 2*time.Second, 5*time.Millisecond, "recovery on the next tick, no restart needed")

	cancel()
	<-done
}
