package kiosk

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netboard/netboard-kiosk/internal/nkioskd/devices"
	"github.com/netboard/netboard-kiosk/internal/nkioskd/errors"
	"github.com/netboard/netboard-kiosk/internal/nkioskd/wakelock"
)

type memSettings struct {
	mu          sync.Mutex
	pin         string
	hasPIN      bool
	schedule    Schedule
	hasSchedule bool
	pinErr      error
}

func (m *memSettings) LoadPIN(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pinErr != nil {
		return "", m.pinErr
	}
	if !m.hasPIN {
		return "", errors.ErrNotFound
	}
	return m.pin, nil
}

func (m *memSettings) SavePIN(ctx context.Context, pin string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pin = pin
	m.hasPIN = true
	return nil
}

func (m *memSettings) LoadSchedule(ctx context.Context) (Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasSchedule {
		return Schedule{}, errors.ErrNotFound
	}
	return m.schedule, nil
}

func (m *memSettings) SaveSchedule(ctx context.Context, schedule Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedule = schedule
	m.hasSchedule = true
	return nil
}

type fakeHandle struct {
	mu       sync.Mutex
	released bool
	closed   bool
	done     chan struct{}
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{done: make(chan struct{})}
}

func (h *fakeHandle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.released = true
	if !h.closed {
		h.closed = true
		close(h.done)
	}
	return nil
}

func (h *fakeHandle) Done() <-chan struct{} {
	return h.done
}

// revoke simulates the platform taking the grant back
func (h *fakeHandle) revoke() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		close(h.done)
	}
}

func (h *fakeHandle) wasReleased() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

type fakeLocker struct {
	mu       sync.Mutex
	fail     bool
	acquired int
	last     *fakeHandle
}

func (l *fakeLocker) Acquire(ctx context.Context) (wakelock.Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail {
		return nil, wakelock.ErrUnsupported
	}
	h := newFakeHandle()
	l.acquired++
	l.last = h
	return h, nil
}

func (l *fakeLocker) acquireCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acquired
}

func (l *fakeLocker) lastHandle() *fakeHandle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *fakeLocker, *memSettings) {
	t.Helper()
	settings := &memSettings{}
	locker := &fakeLocker{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(settings, locker, logger, opts...)
	t.Cleanup(func() { _ = c.Close() })
	return c, locker, settings
}

func testDevices() []devices.Device {
	return []devices.Device{
		{Name: "core-sw-1", IP: "10.0.0.1", Location: "dc-1", Status: devices.StatusOnline, CPUUsage: 12},
		{Name: "edge-fw-1", IP: "10.0.0.2", Location: "dc-1", Status: devices.StatusOffline},
		{Name: "ap-lobby", IP: "10.0.1.7", Location: "hq", Status: devices.StatusCritical, CPUUsage: 97},
		{Name: "core-sw-2", IP: "10.0.0.3", Location: "dc-1", Status: devices.StatusWarning, CPUUsage: 61},
		{Name: "cam-dock", IP: "10.0.2.9", Location: "warehouse", Status: devices.StatusOffline},
	}
}

func currentViewGen(c *Controller) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewGen
}

func currentAlertGen(c *Controller) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alertGen
}

func currentSchedGen(c *Controller) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.schedGen
}

func viewRunnerLive(c *Controller) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewCancel != nil
}

func runnersLive(c *Controller) (view, alert, sched bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewCancel != nil, c.alertCancel != nil, c.schedCancel != nil
}

func captureEvents(c *Controller) func() []string {
	var mu sync.Mutex
	var types []string
	c.Events().OnAll(func(e Event) {
		mu.Lock()
		types = append(types, e.Type)
		mu.Unlock()
	})
	return func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), types...)
	}
}

func TestController_SetActive_AcquiresLockAndCoercesView(t *testing.T) {
	ctx := context.Background()
	c, locker, _ := newTestController(t)

	require.NoError(t, c.SetViewMode(ctx, ViewTopology))
	require.NoError(t, c.SetActive(ctx, true))

	state := c.Snapshot()
	assert.True(t, state.Active)
	assert.Equal(t, ViewOverview, state.ViewMode, "activation restricts navigation to the kiosk surface")
	assert.True(t, state.WakeLockHeld)
	assert.Equal(t, 1, locker.acquireCount())

	view, alert, sched := runnersLive(c)
	assert.True(t, view)
	assert.True(t, alert)
	assert.True(t, sched)
}

func TestController_SetActive_KeepsInsightsView(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)

	require.NoError(t, c.SetViewMode(ctx, ViewInsights))
	require.NoError(t, c.SetActive(ctx, true))

	assert.Equal(t, ViewInsights, c.Snapshot().ViewMode)
}

func TestController_SetActive_Idempotent(t *testing.T) {
	ctx := context.Background()
	c, locker, _ := newTestController(t)

	require.NoError(t, c.SetActive(ctx, true))
	genAfterFirst := currentViewGen(c)

	require.NoError(t, c.SetActive(ctx, true))

	assert.Equal(t, 1, locker.acquireCount(), "no double-acquired wake lock")
	assert.Equal(t, genAfterFirst, currentViewGen(c), "no duplicated view rotator")

	require.NoError(t, c.SetActive(ctx, false))
	require.NoError(t, c.SetActive(ctx, false))
	assert.True(t, locker.lastHandle().wasReleased())
}

func TestController_Deactivate_StopsEverythingInOneStep(t *testing.T) {
	ctx := context.Background()
	clk := &fakeClock{now: clockAt(20, 0)}
	c, locker, _ := newTestController(t, WithClock(clk.Now))

	require.NoError(t, c.SetScheduleWindow(ctx, "08:00", "18:00"))
	require.NoError(t, c.SetScheduleEnabled(ctx, true))
	require.NoError(t, c.SetActive(ctx, true))
	require.True(t, c.Snapshot().Sleeping, "20:00 is outside the window")

	require.NoError(t, c.SetActive(ctx, false))

	state := c.Snapshot()
	assert.False(t, state.Active)
	assert.False(t, state.Sleeping, "leaving kiosk mode always wakes the screen")
	assert.False(t, state.WakeLockHeld)
	assert.True(t, locker.lastHandle().wasReleased())

	view, alert, sched := runnersLive(c)
	assert.False(t, view)
	assert.False(t, alert)
	assert.False(t, sched)
}

func TestController_WakeLockFailure_DegradesSilently(t *testing.T) {
	ctx := context.Background()
	settings := &memSettings{}
	locker := &fakeLocker{fail: true}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(settings, locker, logger)
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.SetActive(ctx, true))

	state := c.Snapshot()
	assert.True(t, state.Active, "kiosk mode works without the stay-awake guarantee")
	assert.False(t, state.WakeLockHeld)

	require.NoError(t, c.SetActive(ctx, false))
}

func TestController_AdvanceView_RoundRobin(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)
	require.NoError(t, c.SetActive(ctx, true))

	gen := currentViewGen(c)
	want := []ViewMode{ViewTopology, ViewLocation, ViewOverview, ViewTopology}
	for _, w := range want {
		c.advanceView(gen)
		assert.Equal(t, w, c.Snapshot().ViewMode)
	}
}

func TestController_AdvanceView_LeavesInsightsForOverview(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)
	require.NoError(t, c.SetViewMode(ctx, ViewInsights))
	require.NoError(t, c.SetActive(ctx, true))

	c.advanceView(currentViewGen(c))
	assert.Equal(t, ViewOverview, c.Snapshot().ViewMode)
}

func TestController_AdvanceView_GatedWhileSleeping(t *testing.T) {
	ctx := context.Background()
	clk := &fakeClock{now: clockAt(20, 0)}
	c, _, _ := newTestController(t, WithClock(clk.Now))

	require.NoError(t, c.SetScheduleWindow(ctx, "08:00", "18:00"))
	require.NoError(t, c.SetScheduleEnabled(ctx, true))
	require.NoError(t, c.SetActive(ctx, true))
	require.True(t, c.Snapshot().Sleeping)
	assert.False(t, viewRunnerLive(c), "rotator is cancelled during sleep, not merely idle")

	before := c.Snapshot().ViewMode
	c.advanceView(currentViewGen(c))
	assert.Equal(t, before, c.Snapshot().ViewMode)
}

func TestController_AdvanceView_StaleGenerationIgnored(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)
	require.NoError(t, c.SetActive(ctx, true))

	stale := currentViewGen(c)
	require.NoError(t, c.SetCycleInterval(ctx, 30*time.Second))

	before := c.Snapshot().ViewMode
	c.advanceView(stale)
	assert.Equal(t, before, c.Snapshot().ViewMode, "ticks from a cancelled runner must not fire")
}

func TestController_SetCycleInterval_RestartsRotator(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)
	require.NoError(t, c.SetActive(ctx, true))

	before := currentViewGen(c)
	require.NoError(t, c.SetCycleInterval(ctx, 7*time.Second))

	assert.Equal(t, 7*time.Second, c.Snapshot().CycleInterval)
	assert.Greater(t, currentViewGen(c), before, "live rotator restarts with a fresh period")
	assert.True(t, viewRunnerLive(c))
}

func TestController_SetCycleInterval_ZeroParksRotator(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)
	require.NoError(t, c.SetActive(ctx, true))

	require.NoError(t, c.SetCycleInterval(ctx, 0))
	assert.False(t, viewRunnerLive(c))

	// A usable period brings the rotator back
	require.NoError(t, c.SetCycleInterval(ctx, 10*time.Second))
	assert.True(t, viewRunnerLive(c))
}

func TestController_AlertRotation_Modulo(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)
	require.NoError(t, c.SetActive(ctx, true))
	require.NoError(t, c.UpdateDevices(ctx, testDevices()))

	gen := currentAlertGen(c)
	require.Equal(t, "edge-fw-1", c.CurrentAlert().Name)

	c.advanceAlert(gen)
	assert.Equal(t, 1, c.Snapshot().AlertIndex)
	assert.Equal(t, "ap-lobby", c.CurrentAlert().Name)

	c.advanceAlert(gen)
	assert.Equal(t, "cam-dock", c.CurrentAlert().Name)

	c.advanceAlert(gen)
	assert.Equal(t, 0, c.Snapshot().AlertIndex, "three problematic devices form a period-3 cycle")
	assert.Equal(t, "edge-fw-1", c.CurrentAlert().Name)
}

func TestController_AlertRotation_EmptyListInert(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)
	require.NoError(t, c.SetActive(ctx, true))
	require.NoError(t, c.UpdateDevices(ctx, []devices.Device{
		{Name: "core-sw-1", Status: devices.StatusOnline},
	}))

	gen := currentAlertGen(c)
	c.advanceAlert(gen)
	c.advanceAlert(gen)

	assert.Equal(t, 0, c.Snapshot().AlertIndex)
	assert.Nil(t, c.CurrentAlert())
}

func TestController_AlertRotation_KeepsRunningWhileSleeping(t *testing.T) {
	ctx := context.Background()
	clk := &fakeClock{now: clockAt(20, 0)}
	c, _, _ := newTestController(t, WithClock(clk.Now))

	require.NoError(t, c.SetScheduleWindow(ctx, "08:00", "18:00"))
	require.NoError(t, c.SetScheduleEnabled(ctx, true))
	require.NoError(t, c.SetActive(ctx, true))
	require.NoError(t, c.UpdateDevices(ctx, testDevices()))
	require.True(t, c.Snapshot().Sleeping)

	c.advanceAlert(currentAlertGen(c))
	assert.Equal(t, 1, c.Snapshot().AlertIndex, "only disengaging kiosk mode stops the alert rotor")
}

func TestController_AlertIndex_ReclampedWhenListShrinks(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)
	require.NoError(t, c.SetActive(ctx, true))
	require.NoError(t, c.UpdateDevices(ctx, testDevices()))

	gen := currentAlertGen(c)
	c.advanceAlert(gen)
	c.advanceAlert(gen)
	require.Equal(t, 2, c.Snapshot().AlertIndex)

	// Only one problematic device remains; the spotlight clamps onto it
	require.NoError(t, c.UpdateDevices(ctx, []devices.Device{
		{Name: "core-sw-1", Status: devices.StatusOnline},
		{Name: "edge-fw-1", Status: devices.StatusOffline},
	}))

	alert := c.CurrentAlert()
	require.NotNil(t, alert)
	assert.Equal(t, "edge-fw-1", alert.Name)
}

func TestController_Schedule_EntersAndLeavesSleep(t *testing.T) {
	ctx := context.Background()
	clk := &fakeClock{now: clockAt(12, 0)}
	c, _, _ := newTestController(t, WithClock(clk.Now))

	require.NoError(t, c.SetScheduleWindow(ctx, "08:00", "18:00"))
	require.NoError(t, c.SetScheduleEnabled(ctx, true))
	require.NoError(t, c.SetActive(ctx, true))
	require.False(t, c.Snapshot().Sleeping)

	clk.Set(clockAt(20, 0))
	c.evaluateSchedule(currentSchedGen(c))
	assert.True(t, c.Snapshot().Sleeping)
	assert.False(t, viewRunnerLive(c))

	clk.Set(clockAt(8, 30))
	c.evaluateSchedule(currentSchedGen(c))
	assert.False(t, c.Snapshot().Sleeping)
	assert.True(t, viewRunnerLive(c))
}

func TestController_ScheduleDisable_WakesImmediately(t *testing.T) {
	ctx := context.Background()
	clk := &fakeClock{now: clockAt(20, 0)}
	c, _, _ := newTestController(t, WithClock(clk.Now))

	require.NoError(t, c.SetScheduleWindow(ctx, "08:00", "18:00"))
	require.NoError(t, c.SetScheduleEnabled(ctx, true))
	require.NoError(t, c.SetActive(ctx, true))
	require.True(t, c.Snapshot().Sleeping)

	require.NoError(t, c.SetScheduleEnabled(ctx, false))
	assert.False(t, c.Snapshot().Sleeping, "disabling the schedule must not wait for the next tick")
	assert.True(t, viewRunnerLive(c))
}

func TestController_Wake_UndoneByNextEvaluation(t *testing.T) {
	ctx := context.Background()
	clk := &fakeClock{now: clockAt(20, 0)}
	c, _, _ := newTestController(t, WithClock(clk.Now))

	require.NoError(t, c.SetScheduleWindow(ctx, "08:00", "18:00"))
	require.NoError(t, c.SetScheduleEnabled(ctx, true))
	require.NoError(t, c.SetActive(ctx, true))
	require.True(t, c.Snapshot().Sleeping)

	require.NoError(t, c.Wake(ctx))
	assert.False(t, c.Snapshot().Sleeping)

	// Still outside the window, so the next evaluation puts the
	// display back to sleep; expected, not a bug
	c.evaluateSchedule(currentSchedGen(c))
	assert.True(t, c.Snapshot().Sleeping)
}

func TestController_ScheduleNeverSleepsWhileDisabled(t *testing.T) {
	ctx := context.Background()
	clk := &fakeClock{now: clockAt(3, 0)}
	c, _, _ := newTestController(t, WithClock(clk.Now))

	require.NoError(t, c.SetScheduleWindow(ctx, "08:00", "18:00"))
	require.NoError(t, c.SetActive(ctx, true))

	c.evaluateSchedule(currentSchedGen(c))
	assert.False(t, c.Snapshot().Sleeping)
}

func TestController_SetScheduleWindow_RejectsMalformedTimes(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)

	err := c.SetScheduleWindow(ctx, "8pm", "18:00")
	require.Error(t, err)

	var clockErr ErrInvalidClock
	assert.ErrorAs(t, err, &clockErr)
}

func TestController_SetViewMode_RestrictedWhileActive(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)

	require.NoError(t, c.SetViewMode(ctx, ViewLocation), "free navigation while inactive")
	require.NoError(t, c.SetActive(ctx, true))

	err := c.SetViewMode(ctx, ViewTopology)
	require.Error(t, err)
	var restricted ErrViewRestricted
	assert.ErrorAs(t, err, &restricted)

	assert.NoError(t, c.SetViewMode(ctx, ViewInsights))

	err = c.SetViewMode(ctx, ViewMode("terminal"))
	require.Error(t, err)
	var invalid ErrInvalidViewMode
	assert.ErrorAs(t, err, &invalid)
}

func TestController_ExternalRevocation_ClearsHeldFlag(t *testing.T) {
	ctx := context.Background()
	c, locker, _ := newTestController(t)
	require.NoError(t, c.SetActive(ctx, true))
	require.True(t, c.Snapshot().WakeLockHeld)

	locker.lastHandle().revoke()

	require.Eventually(t, func() bool {
		return !c.Snapshot().WakeLockHeld
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, c.Snapshot().Active, "losing the lock does not leave kiosk mode")
}

func TestController_Close_ReleasesLockRegardlessOfMode(t *testing.T) {
	ctx := context.Background()
	settings := &memSettings{}
	locker := &fakeLocker{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(settings, locker, logger)

	require.NoError(t, c.SetActive(ctx, true))
	require.NoError(t, c.Close())

	assert.True(t, locker.lastHandle().wasReleased())

	err := c.SetActive(ctx, true)
	require.Error(t, err)
	var closed ErrClosed
	assert.ErrorAs(t, err, &closed)

	assert.NoError(t, c.Close(), "closing twice is harmless")
}

func TestController_DeviceFeed(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)

	list := testDevices()
	require.NoError(t, c.UpdateDevices(ctx, list))
	require.NoError(t, c.UpdateStats(ctx, devices.Stats{Total: 5, Online: 2, Offline: 2, Critical: 1, AverageCPU: 56.7}))

	feed := c.DeviceFeed()
	assert.Len(t, feed.Devices, 5)
	require.Len(t, feed.Problematic, 3)
	assert.Equal(t, []string{"edge-fw-1", "ap-lobby", "cam-dock"}, []string{
		feed.Problematic[0].Name, feed.Problematic[1].Name, feed.Problematic[2].Name,
	}, "problematic subset preserves feed order")
	require.NotNil(t, feed.CurrentAlert)
	assert.Equal(t, "edge-fw-1", feed.CurrentAlert.Name)
	assert.Equal(t, 5, feed.Stats.Total)

	// The controller keeps its own copy of the list
	list[1].Name = "mutated"
	assert.Equal(t, "edge-fw-1", c.DeviceFeed().Problematic[0].Name)
}

func TestController_Events(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)
	events := captureEvents(c)

	require.NoError(t, c.SetActive(ctx, true))
	require.NoError(t, c.SetActive(ctx, false))

	got := events()
	assert.Contains(t, got, EventActivated)
	assert.Contains(t, got, EventDeactivated)
}

func TestController_RunnersDriveStateOverTime(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t,
		WithCycleInterval(15*time.Millisecond),
		WithAlertRotationPeriod(15*time.Millisecond),
	)
	require.NoError(t, c.UpdateDevices(ctx, testDevices()))
	require.NoError(t, c.SetActive(ctx, true))

	require.Eventually(t, func() bool {
		s := c.Snapshot()
		return s.ViewMode != ViewOverview && s.AlertIndex > 0
	}, 2*time.Second, 5*time.Millisecond, "runners advance state on their own")

	require.NoError(t, c.SetActive(ctx, false))
	after := c.Snapshot()

	time.Sleep(60 * time.Millisecond)
	later := c.Snapshot()
	assert.Equal(t, after.ViewMode, later.ViewMode, "no ticks after deactivation")
	assert.Equal(t, after.AlertIndex, later.AlertIndex)
}

func TestController_SchedulerRunnerEvaluatesPeriodically(t *testing.T) {
	ctx := context.Background()
	clk := &fakeClock{now: clockAt(12, 0)}
	c, _, _ := newTestController(t,
		WithClock(clk.Now),
		WithScheduleEvalPeriod(15*time.Millisecond),
	)

	require.NoError(t, c.SetScheduleWindow(ctx, "08:00", "18:00"))
	require.NoError(t, c.SetScheduleEnabled(ctx, true))
	require.NoError(t, c.SetActive(ctx, true))
	require.False(t, c.Snapshot().Sleeping)

	clk.Set(clockAt(20, 0))
	require.Eventually(t, func() bool {
		return c.Snapshot().Sleeping
	}, 2*time.Second, 5*time.Millisecond, "the minute tick notices the window closed")
}
