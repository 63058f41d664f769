// Package events provides a small synchronous event dispatcher used to
// decouple notification lifecycle observation from the send path.
//
// Listeners are keyed by the event's logical name and invoked in
// registration order. A listener returning an error or panicking is logged
// and never affects other listeners or the dispatching caller, so
// persistence and metrics hooks stay off the delivery critical path.
//
//	d := events.NewDispatcher()
//	d.On("notification.sent", func(ctx context.Context, e events.Event) error {
//	    sent := e.(notify.SentEvent)
//	    return store.Log(ctx, recordFrom(sent))
//	})
//
// Dispatchers are plain values: construct one per test for isolation, or
// use Default() at the application's composition root.
package events
