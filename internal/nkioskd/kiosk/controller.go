package kiosk

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/netboard/netboard-kiosk/internal/nkioskd/devices"
	"github.com/netboard/netboard-kiosk/internal/nkioskd/errors"
	"github.com/netboard/netboard-kiosk/internal/nkioskd/wakelock"
)

// DeviceFeed is the controller's view of the monitored-device data
type DeviceFeed struct {
	// Devices is the full list in feed order
	Devices []devices.Device
	// Problematic is the OFFLINE and CRITICAL subset in feed order
	Problematic []devices.Device
	// CurrentAlert is the device under the alert spotlight, if any
	CurrentAlert *devices.Device
	// Stats aggregates fleet health
	Stats devices.Stats
	// UpdatedAt is when the feed last changed
	UpdatedAt time.Time
}

// Controller owns the kiosk state record and runs the policy timers
// over it. All state access goes through the controller's mutex; each
// timer tick re-checks its gating condition under the lock so no
// transition can fire after a gate closes.
type Controller struct {
	logger   *slog.Logger
	events   *Bus
	settings SettingsRepository
	locker   wakelock.Locker
	clock    func() time.Time

	alertPeriod time.Duration
	evalPeriod  time.Duration

	mu               sync.Mutex
	state            State
	devs             []devices.Device
	stats            devices.Stats
	devicesUpdatedAt time.Time
	lock             wakelock.Handle

	// Runner generations invalidate in-flight ticks from cancelled
	// timers; a tick whose generation no longer matches is a no-op.
	viewCancel  context.CancelFunc
	alertCancel context.CancelFunc
	schedCancel context.CancelFunc
	viewGen     uint64
	alertGen    uint64
	schedGen    uint64

	wg     sync.WaitGroup
	closed bool
}

// Option configures a Controller
type Option func(*Controller)

// WithClock replaces the time source
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithCycleInterval sets the initial view rotation period
func WithCycleInterval(d time.Duration) Option {
	return func(c *Controller) {
		c.state.CycleInterval = d
	}
}

// WithAlertRotationPeriod overrides the alert spotlight period
func WithAlertRotationPeriod(d time.Duration) Option {
	return func(c *Controller) {
		c.alertPeriod = d
	}
}

// WithScheduleEvalPeriod overrides the sleep schedule evaluation period
func WithScheduleEvalPeriod(d time.Duration) Option {
	return func(c *Controller) {
		c.evalPeriod = d
	}
}

// New creates a controller for one display session
func New(settings SettingsRepository, locker wakelock.Locker, logger *slog.Logger, opts ...Option) *Controller {
	c := &Controller{
		logger:      logger,
		events:      NewBus(logger),
		settings:    settings,
		locker:      locker,
		clock:       time.Now,
		alertPeriod: AlertRotationPeriod,
		evalPeriod:  ScheduleEvalPeriod,
		state: State{
			SessionID:     uuid.New(),
			ViewMode:      ViewOverview,
			CycleInterval: DefaultCycleInterval,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state.UpdatedAt = c.clock()
	return c
}

// Events returns the controller's event bus
func (c *Controller) Events() *Bus {
	return c.events
}

// Snapshot returns a copy of the current state record
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Active reports whether kiosk mode is engaged
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Active
}

// SetActive engages or disengages kiosk mode. The wake lock follows the
// mode synchronously; disengaging cancels every policy timer, releases
// the lock, and clears the sleep overlay in the same step. Repeating
// the current value is a no-op.
func (c *Controller) SetActive(ctx context.Context, active bool) error {
	const op = "KioskController.SetActive"

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.NewError("CONTROLLER_CLOSED", "Controller has been torn down", op, ErrClosed{})
	}
	if c.state.Active == active {
		c.mu.Unlock()
		return nil
	}

	if !active {
		c.stopViewRotatorLocked()
		c.stopAlertRotatorLocked()
		c.stopSchedulerLocked()
		c.releaseLockLocked()
		c.state.Active = false
		c.state.Sleeping = false
		c.touchLocked()
		snap := c.snapshotLocked()
		c.mu.Unlock()

		c.events.Emit(Event{Type: EventDeactivated, State: snap})
		return nil
	}

	c.state.Active = true

	// Kiosk mode restricts navigation to a minimal surface
	if !restrictedView(c.state.ViewMode) {
		c.state.ViewMode = ViewOverview
	}

	if handle, err := c.locker.Acquire(ctx); err != nil {
		// Best effort: the display may sleep at the OS level but
		// kiosk behavior continues without the guarantee
		c.logger.Warn("wake lock unavailable", "error", err)
	} else {
		c.lock = handle
		c.state.WakeLockHeld = true
		c.watchLockLocked(handle)
	}

	// Evaluate the sleep window once at activation, then once a minute
	_, entered := c.applyScheduleLocked(c.clock())

	c.startSchedulerLocked()
	c.startAlertRotatorLocked()
	if !c.state.Sleeping {
		c.startViewRotatorLocked()
	}

	c.touchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.events.Emit(Event{Type: EventActivated, State: snap})
	if entered {
		c.events.Emit(Event{Type: EventSleepEntered, State: snap})
	}
	return nil
}

// SetViewMode selects a dashboard screen. While kiosk mode is engaged
// only the restricted surface is reachable.
func (c *Controller) SetViewMode(ctx context.Context, mode ViewMode) error {
	const op = "KioskController.SetViewMode"

	if !ValidViewMode(mode) {
		return errors.NewError("INVALID_INPUT", "Unknown view mode", op, ErrInvalidViewMode{Mode: string(mode)})
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.NewError("CONTROLLER_CLOSED", "Controller has been torn down", op, ErrClosed{})
	}
	if c.state.Active && !restrictedView(mode) {
		c.mu.Unlock()
		return errors.NewError("VIEW_RESTRICTED", "View is not part of the kiosk surface", op, ErrViewRestricted{Mode: mode})
	}
	if c.state.ViewMode == mode {
		c.mu.Unlock()
		return nil
	}
	c.state.ViewMode = mode
	c.touchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.events.Emit(Event{Type: EventViewChanged, State: snap})
	return nil
}

// SetCycleInterval changes the view rotation period. A live rotator is
// restarted with a fresh full period. Out-of-range values are tolerated:
// anything at or below zero parks the rotator.
func (c *Controller) SetCycleInterval(ctx context.Context, interval time.Duration) error {
	const op = "KioskController.SetCycleInterval"

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.NewError("CONTROLLER_CLOSED", "Controller has been torn down", op, ErrClosed{})
	}
	if c.state.CycleInterval == interval {
		c.mu.Unlock()
		return nil
	}
	c.state.CycleInterval = interval
	c.stopViewRotatorLocked()
	if c.state.Active && !c.state.Sleeping {
		c.startViewRotatorLocked()
	}
	c.touchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.events.Emit(Event{Type: EventIntervalChanged, State: snap})
	return nil
}

// SetScheduleEnabled toggles the sleep scheduler. Disabling clears the
// sleep overlay immediately rather than waiting for the next evaluation.
func (c *Controller) SetScheduleEnabled(ctx context.Context, enabled bool) error {
	const op = "KioskController.SetScheduleEnabled"

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.NewError("CONTROLLER_CLOSED", "Controller has been torn down", op, ErrClosed{})
	}
	if c.state.Schedule.Enabled == enabled {
		c.mu.Unlock()
		return nil
	}
	c.state.Schedule.Enabled = enabled
	changed, sleeping := c.applyScheduleLocked(c.clock())
	c.touchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.events.Emit(Event{Type: EventScheduleChanged, State: snap})
	c.emitSleepChange(changed, sleeping, snap)
	return nil
}

// SetScheduleWindow replaces the operating-hours window and re-evaluates
// it immediately while kiosk mode is engaged
func (c *Controller) SetScheduleWindow(ctx context.Context, start, end string) error {
	const op = "KioskController.SetScheduleWindow"

	if err := (Schedule{Start: start, End: end}).Validate(); err != nil {
		return errors.NewError("INVALID_INPUT", "Schedule times must be HH:MM", op, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.NewError("CONTROLLER_CLOSED", "Controller has been torn down", op, ErrClosed{})
	}
	if c.state.Schedule.Start == start && c.state.Schedule.End == end {
		c.mu.Unlock()
		return nil
	}
	c.state.Schedule.Start = start
	c.state.Schedule.End = end
	changed, sleeping := c.applyScheduleLocked(c.clock())
	c.touchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.events.Emit(Event{Type: EventScheduleChanged, State: snap})
	c.emitSleepChange(changed, sleeping, snap)
	return nil
}

// Wake clears the sleep overlay until the next schedule evaluation. A
// tap on a sleeping display lands here; within a minute the scheduler
// may put the display back to sleep if it is still outside the window.
func (c *Controller) Wake(ctx context.Context) error {
	c.mu.Lock()
	if c.closed || !c.state.Sleeping {
		c.mu.Unlock()
		return nil
	}
	c.state.Sleeping = false
	c.startViewRotatorLocked()
	c.touchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.events.Emit(Event{Type: EventSleepLeft, State: snap})
	return nil
}

// UpdateDevices replaces the device list. The alert index is left alone;
// it is re-taken modulo the new length on every access, so a shrinking
// list can silently move the spotlight but never read out of range.
func (c *Controller) UpdateDevices(ctx context.Context, list []devices.Device) error {
	const op = "KioskController.UpdateDevices"

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.NewError("CONTROLLER_CLOSED", "Controller has been torn down", op, ErrClosed{})
	}
	c.devs = append([]devices.Device(nil), list...)
	c.devicesUpdatedAt = c.clock()
	c.mu.Unlock()

	c.events.Emit(Event{Type: EventDevicesUpdated})
	return nil
}

// UpdateStats replaces the aggregate stats. The controller itself never
// reads them; they ride along for the rendering layer.
func (c *Controller) UpdateStats(ctx context.Context, stats devices.Stats) error {
	const op = "KioskController.UpdateStats"

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.NewError("CONTROLLER_CLOSED", "Controller has been torn down", op, ErrClosed{})
	}
	c.stats = stats
	c.devicesUpdatedAt = c.clock()
	c.mu.Unlock()

	c.events.Emit(Event{Type: EventDevicesUpdated})
	return nil
}

// DeviceFeed returns the device data as the renderer consumes it
func (c *Controller) DeviceFeed() DeviceFeed {
	c.mu.Lock()
	defer c.mu.Unlock()

	feed := DeviceFeed{
		Devices:     append([]devices.Device(nil), c.devs...),
		Problematic: devices.Problematic(c.devs),
		Stats:       c.stats,
		UpdatedAt:   c.devicesUpdatedAt,
	}
	if n := len(feed.Problematic); n > 0 {
		d := feed.Problematic[c.state.AlertIndex%n]
		feed.CurrentAlert = &d
	}
	return feed
}

// ProblematicDevices returns the OFFLINE and CRITICAL subset in feed order
func (c *Controller) ProblematicDevices() []devices.Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	return devices.Problematic(c.devs)
}

// CurrentAlert returns the device under the alert spotlight, or nil
// when no device is problematic
func (c *Controller) CurrentAlert() *devices.Device {
	c.mu.Lock()
	defer c.mu.Unlock()

	prob := devices.Problematic(c.devs)
	if len(prob) == 0 {
		return nil
	}
	d := prob[c.state.AlertIndex%len(prob)]
	return &d
}

// Close tears the controller down. Every policy timer is cancelled and
// the wake lock release is attempted regardless of the current mode.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.stopViewRotatorLocked()
	c.stopAlertRotatorLocked()
	c.stopSchedulerLocked()
	c.releaseLockLocked()
	c.state.Active = false
	c.state.Sleeping = false
	c.touchLocked()
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}

// applyScheduleLocked recomputes the sleep overlay from the schedule.
// Sleeping can only be true while kiosk mode is engaged and the
// schedule is enabled. Callers hold c.mu.
func (c *Controller) applyScheduleLocked(now time.Time) (changed, sleeping bool) {
	if c.state.Active && c.state.Schedule.Enabled {
		sleeping = !c.state.Schedule.awakeAt(now)
	}
	if sleeping == c.state.Sleeping {
		return false, sleeping
	}
	c.state.Sleeping = sleeping
	if sleeping {
		c.stopViewRotatorLocked()
	} else if c.state.Active {
		c.startViewRotatorLocked()
	}
	return true, sleeping
}

func (c *Controller) emitSleepChange(changed, sleeping bool, snap *State) {
	if !changed {
		return
	}
	if sleeping {
		c.events.Emit(Event{Type: EventSleepEntered, State: snap})
	} else {
		c.events.Emit(Event{Type: EventSleepLeft, State: snap})
	}
}

// View rotator

func (c *Controller) startViewRotatorLocked() {
	if c.viewCancel != nil || c.state.CycleInterval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.viewCancel = cancel
	c.viewGen++
	gen := c.viewGen
	period := c.state.CycleInterval

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.advanceView(gen)
			}
		}
	}()
}

func (c *Controller) stopViewRotatorLocked() {
	if c.viewCancel == nil {
		return
	}
	c.viewCancel()
	c.viewCancel = nil
	// Invalidate any tick already in flight from the old runner
	c.viewGen++
}

func (c *Controller) advanceView(gen uint64) {
	c.mu.Lock()
	if gen != c.viewGen || !c.state.Active || c.state.Sleeping {
		c.mu.Unlock()
		return
	}
	c.state.ViewMode = nextView(c.state.ViewMode)
	c.touchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.events.Emit(Event{Type: EventViewChanged, State: snap})
}

// Alert rotator

func (c *Controller) startAlertRotatorLocked() {
	if c.alertCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.alertCancel = cancel
	c.alertGen++
	gen := c.alertGen

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.alertPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.advanceAlert(gen)
			}
		}
	}()
}

func (c *Controller) stopAlertRotatorLocked() {
	if c.alertCancel == nil {
		return
	}
	c.alertCancel()
	c.alertCancel = nil
	c.alertGen++
}

// advanceAlert moves the spotlight to the next problematic device. The
// rotator keeps running while the display sleeps; only disengaging
// kiosk mode stops it. An empty problematic list makes the tick inert.
func (c *Controller) advanceAlert(gen uint64) {
	c.mu.Lock()
	if gen != c.alertGen || !c.state.Active {
		c.mu.Unlock()
		return
	}
	n := len(devices.Problematic(c.devs))
	if n == 0 {
		c.mu.Unlock()
		return
	}
	c.state.AlertIndex = (c.state.AlertIndex + 1) % n
	c.touchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.events.Emit(Event{Type: EventAlertAdvanced, State: snap})
}

// Sleep scheduler

func (c *Controller) startSchedulerLocked() {
	if c.schedCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.schedCancel = cancel
	c.schedGen++
	gen := c.schedGen

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.evalPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.evaluateSchedule(gen)
			}
		}
	}()
}

func (c *Controller) stopSchedulerLocked() {
	if c.schedCancel == nil {
		return
	}
	c.schedCancel()
	c.schedCancel = nil
	c.schedGen++
}

func (c *Controller) evaluateSchedule(gen uint64) {
	c.mu.Lock()
	if gen != c.schedGen || !c.state.Active {
		c.mu.Unlock()
		return
	}
	changed, sleeping := c.applyScheduleLocked(c.clock())
	if changed {
		c.touchLocked()
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.emitSleepChange(changed, sleeping, snap)
}

// Wake lock plumbing

func (c *Controller) releaseLockLocked() {
	c.state.WakeLockHeld = false
	if c.lock == nil {
		return
	}
	handle := c.lock
	c.lock = nil
	if err := handle.Release(); err != nil {
		c.logger.Warn("wake lock release failed", "error", err)
	}
}

// watchLockLocked clears the held flag if the platform revokes the
// grant while kiosk mode is engaged. Callers hold c.mu.
func (c *Controller) watchLockLocked(handle wakelock.Handle) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		<-handle.Done()

		c.mu.Lock()
		if c.lock != handle {
			// Released by us; nothing to report
			c.mu.Unlock()
			return
		}
		c.lock = nil
		c.state.WakeLockHeld = false
		c.touchLocked()
		snap := c.snapshotLocked()
		c.mu.Unlock()

		c.events.Emit(Event{Type: EventWakeLockRevoked, State: snap})
	}()
}

func (c *Controller) touchLocked() {
	c.state.UpdatedAt = c.clock()
}

func (c *Controller) snapshotLocked() *State {
	s := c.state
	return &s
}
