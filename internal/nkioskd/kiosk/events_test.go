package kiosk

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestBus() *Bus {
	return NewBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBus_On(t *testing.T) {
	bus := newTestBus()

	var got []string
	unsubscribe := bus.On(EventViewChanged, func(e Event) {
		got = append(got, e.Type)
	})

	bus.Emit(Event{Type: EventViewChanged})
	bus.Emit(Event{Type: EventAlertAdvanced})
	bus.Emit(Event{Type: EventViewChanged})

	assert.Equal(t, []string{EventViewChanged, EventViewChanged}, got)

	unsubscribe()
	bus.Emit(Event{Type: EventViewChanged})
	assert.Len(t, got, 2, "no delivery after unsubscribe")
}

func TestBus_OnAll(t *testing.T) {
	bus := newTestBus()

	var got []string
	unsubscribe := bus.OnAll(func(e Event) {
		got = append(got, e.Type)
	})

	bus.Emit(Event{Type: EventActivated})
	bus.Emit(Event{Type: EventSleepEntered})

	assert.Equal(t, []string{EventActivated, EventSleepEntered}, got)

	unsubscribe()
	bus.Emit(Event{Type: EventDeactivated})
	assert.Len(t, got, 2)
}

func TestBus_PanickingHandlerDoesNotStopDelivery(t *testing.T) {
	bus := newTestBus()

	delivered := 0
	bus.On(EventViewChanged, func(e Event) {
		panic("handler bug")
	})
	bus.OnAll(func(e Event) {
		delivered++
	})

	bus.Emit(Event{Type: EventViewChanged})
	assert.Equal(t, 1, delivered)
}

func TestBus_ConcurrentEmit(t *testing.T) {
	bus := newTestBus()

	var mu sync.Mutex
	count := 0
	bus.OnAll(func(e Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				bus.Emit(Event{Type: EventDevicesUpdated})
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 200, count)
}
