package events

import (
	"context"
	"log/slog"
	"sync"
)

// Event is anything with a stable logical name. Listeners are keyed by
// that name.
type Event interface {
	EventName() string
}

// Listener observes one event. A returned error is logged and never
// propagated; one listener failing never blocks the others.
type Listener func(ctx context.Context, e Event) error

// Dispatcher routes events to registered listeners. The listener table
// tolerates registration and removal concurrent with dispatch: Dispatch
// works on a snapshot taken under a read lock.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
	logger    *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for listener failures.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates an independent dispatcher instance.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		listeners: make(map[string][]Listener),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var (
	defaultDispatcher *Dispatcher
	defaultOnce       sync.Once
)

// Default returns the process-wide dispatcher. It exists as a
// composition-root convenience only; core logic always receives a
// dispatcher explicitly.
func Default() *Dispatcher {
	defaultOnce.Do(func() {
		defaultDispatcher = NewDispatcher()
	})
	return defaultDispatcher
}

// On registers a listener for the named event. Listeners run in
// registration order.
func (d *Dispatcher) On(eventName string, l Listener) {
	if l == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventName] = append(d.listeners[eventName], l)
}

// Dispatch invokes all listeners registered for the event's name. Each
// listener's failure or panic is caught and logged independently.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) {
	if e == nil {
		return
	}

	d.mu.RLock()
	registered := d.listeners[e.EventName()]
	listeners := make([]Listener, len(registered))
	copy(listeners, registered)
	d.mu.RUnlock()

	for i, l := range listeners {
		d.invoke(ctx, e, i, l)
	}
}

func (d *Dispatcher) invoke(ctx context.Context, e Event, idx int, l Listener) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.LogAttrs(ctx, slog.LevelError, "event listener panicked",
				slog.String("event", e.EventName()),
				slog.Int("listener_index", idx),
				slog.Any("panic", r),
			)
		}
	}()

	if err := l(ctx, e); err != nil {
		d.logger.LogAttrs(ctx, slog.LevelWarn, "event listener failed",
			slog.String("event", e.EventName()),
			slog.Int("listener_index", idx),
			slog.String("error", err.Error()),
		)
	}
}

// RemoveListeners drops every listener registered for the named event.
func (d *Dispatcher) RemoveListeners(eventName string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.listeners, eventName)
}

// Clear drops all listeners.
func (d *Dispatcher) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = make(map[string][]Listener)
}

// ListenerCount returns the number of listeners for the named event.
func (d *Dispatcher) ListenerCount(eventName string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.listeners[eventName])
}
