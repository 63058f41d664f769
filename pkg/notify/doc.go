// Package notify is the dispatch engine: it delivers a single logical
// notification through one or more provider channels, selecting channels
// dynamically, falling back between them on failure and reporting results
// uniformly regardless of provider.
//
// # Architecture
//
// The engine is built from small, explicitly wired parts:
//
//   - Registry: named channel instances, factories, priorities and the
//     default-selection behavior
//   - Notification: the polymorphic payload with per-channel message builders
//   - Routes / Notifiable: recipient routing resolution
//   - Manager: the delivery coordinator enforcing the configured strategy
//   - events.Dispatcher: lifecycle observation off the critical path
//
// # Basic Usage
//
//	mgr, err := notify.New(notify.Config{
//	    DefaultChannel: "postmark",
//	    EnableFallback: true,
//	}, notify.WithChannel(emailCh, 10), notify.WithChannel(smsCh, 5))
//
//	n := notify.NewNotification().
//	    Via(notify.TypeEmail, notify.TypeSMS).
//	    WithReference("order-1234").
//	    OnEmail(func(ctx context.Context, to []notify.Address) (*notify.EmailMessage, error) {
//	        return &notify.EmailMessage{To: to, Subject: "Order shipped"}, nil
//	    }).
//	    OnSMS(func(ctx context.Context, to []notify.Address) (*notify.SMSMessage, error) {
//	        return &notify.SMSMessage{To: to, Body: "Your order shipped"}, nil
//	    })
//
//	report, err := mgr.Send(ctx, n, notify.Routes{
//	    notify.TypeEmail: {notify.NamedAddr("jo@example.com", "Jo")},
//	    notify.TypeSMS:   {notify.Addr("+15550100")},
//	})
//
// # Delivery Strategies
//
// Under the default all-or-nothing strategy any channel failure aborts the
// send with an aggregate *SendError and no partial report. Best-effort
// sends always return a complete report mixing per-channel successes and
// failures and never fail on individual channels:
//
//	mgr, _ := notify.New(cfg, notify.WithStrategy(notify.StrategyBestEffort))
//
// # Fallback
//
// With EnableFallback set, an unavailable channel slot is filled by the
// default channel, then by the remaining channels in priority-descending
// order (ties broken by registration order), first ready one wins. The
// already-attempted channel is excluded from the scan.
//
// # Error Taxonomy
//
// Every error carries a stable Code. Match kinds with errors.Is:
//
//	if errors.Is(err, &notify.Error{Code: notify.CodeChannelNotReady}) { ... }
package notify
