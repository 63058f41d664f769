package events_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/notifykit/pkg/events"
)

type testEvent struct {
	name    string
	payload string
}

func (e testEvent) EventName() string { return e.name }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatcher_Dispatch(t *testing.T) {
	t.Parallel()

	d := events.NewDispatcher(events.WithLogger(testLogger()))

	var got []string
	d.On("user.created", func(ctx context.Context, e events.Event) error {
		got = append(got, "first:"+e.(testEvent).payload)
		return nil
	})
	d.On("user.created", func(ctx context.Context, e events.Event) error {
		got = append(got, "second:"+e.(testEvent).payload)
		return nil
	})
	d.On("user.deleted", func(ctx context.Context, e events.Event) error {
		got = append(got, "deleted")
		return nil
	})

	d.Dispatch(context.Background(), testEvent{name: "user.created", payload: "u1"})

	// Listeners run in registration order; unrelated events stay untouched.
	assert.Equal(t, []string{"first:u1", "second:u1"}, got)
}

func TestDispatcher_Dispatch_NoListeners(t *testing.T) {
	t.Parallel()

	d := events.NewDispatcher(events.WithLogger(testLogger()))
	assert.NotPanics(t, func() {
		d.Dispatch(context.Background(), testEvent{name: "nobody.cares"})
		d.Dispatch(context.Background(), nil)
	})
}

func TestDispatcher_ListenerFailureIsolation(t *testing.T) {
	t.Parallel()

	d := events.NewDispatcher(events.WithLogger(testLogger()))

	var reached bool
	d.On("job.done", func(ctx context.Context, e events.Event) error {
		return errors.New("listener failed")
	})
	d.On("job.done", func(ctx context.Context, e events.Event) error {
		panic("listener panicked")
	})
	d.On("job.done", func(ctx context.Context, e events.Event) error {
		reached = true
		return nil
	})

	assert.NotPanics(t, func() {
		d.Dispatch(context.Background(), testEvent{name: "job.done"})
	})
	assert.True(t, reached, "failures in earlier listeners must not block later ones")
}

func TestDispatcher_ConcurrentRegistrationDuringDispatch(t *testing.T) {
	t.Parallel()

	d := events.NewDispatcher(events.WithLogger(testLogger()))

	var delivered atomic.Int64
	d.On("notification.sent", func(ctx context.Context, e events.Event) error {
		delivered.Add(1)
		return nil
	})

	const workers = 8
	const iterations = 100

	var wg sync.WaitGroup

	// Churn the listener table while dispatches are running.
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				d.On("notification.queued", func(ctx context.Context, e events.Event) error { return nil })
				d.ListenerCount("notification.queued")
				d.RemoveListeners("notification.queued")
			}
		}()
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				d.Dispatch(context.Background(), testEvent{name: "notification.sent"})
				d.Dispatch(context.Background(), testEvent{name: "notification.queued"})
			}
		}()
	}

	wg.Wait()

	// The stable listener saw every dispatch regardless of churn elsewhere.
	assert.Equal(t, int64(workers*iterations), delivered.Load())
}

func TestDispatcher_RemoveListeners(t *testing.T) {
	t.Parallel()

	d := events.NewDispatcher(events.WithLogger(testLogger()))
	d.On("a", func(ctx context.Context, e events.Event) error { return nil })
	d.On("a", func(ctx context.Context, e events.Event) error { return nil })
	d.On("b", func(ctx context.Context, e events.Event) error { return nil })
	d.On("a", nil) // ignored

	assert.Equal(t, 2, d.ListenerCount("a"))

	d.RemoveListeners("a")
	assert.Equal(t, 0, d.ListenerCount("a"))
	assert.Equal(t, 1, d.ListenerCount("b"))

	d.Clear()
	assert.Equal(t, 0, d.ListenerCount("b"))
}

func TestDispatcher_Default(t *testing.T) {
	t.Parallel()

	assert.Same(t, events.Default(), events.Default())
}
