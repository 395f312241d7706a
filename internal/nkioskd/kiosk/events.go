package kiosk

import (
	"log/slog"
	"sync"
)

// Event types
const (
	EventActivated         = "kiosk_activated"
	EventDeactivated       = "kiosk_deactivated"
	EventViewChanged       = "view_changed"
	EventIntervalChanged   = "interval_changed"
	EventAlertAdvanced     = "alert_advanced"
	EventSleepEntered      = "sleep_entered"
	EventSleepLeft         = "sleep_left"
	EventScheduleChanged   = "schedule_changed"
	EventWakeLockRevoked   = "wake_lock_revoked"
	EventSettingsUnlocked  = "settings_unlocked"
	EventSettingsDismissed = "settings_dismissed"
	EventDevicesUpdated    = "devices_updated"
)

// Event represents a controller event.
type Event struct {
	Type string `json:"type"`
	// State is the snapshot taken right after the change, for events
	// that mutate kiosk state
	State *State `json:"state,omitempty"`
}

// EventHandler is a callback for events.
type EventHandler func(Event)

// Bus provides pub/sub for controller events.
type Bus struct {
	mu          sync.RWMutex
	handlers    map[string]map[uint64]EventHandler
	allHandlers map[uint64]EventHandler
	nextID      uint64
	logger      *slog.Logger
}

// NewBus creates a new event bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		handlers:    make(map[string]map[uint64]EventHandler),
		allHandlers: make(map[uint64]EventHandler),
		logger:      logger,
	}
}

// On registers a handler for a specific event type.
// Returns an unsubscribe function.
func (b *Bus) On(eventType string, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[uint64]EventHandler)
	}
	b.handlers[eventType][id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[eventType], id)
	}
}

// OnAll registers a handler that receives all events.
// Returns an unsubscribe function.
func (b *Bus) OnAll(handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.allHandlers[id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.allHandlers, id)
	}
}

// Emit sends an event to all matching handlers.
// Handlers are called synchronously; a panicking handler is recovered.
func (b *Bus) Emit(event Event) {
	b.mu.RLock()
	handlers := make([]EventHandler, 0, len(b.handlers[event.Type])+len(b.allHandlers))
	for _, h := range b.handlers[event.Type] {
		handlers = append(handlers, h)
	}
	for _, h := range b.allHandlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("event handler panic", "type", event.Type, "panic", r)
				}
			}()
			h(event)
		}()
	}
}
