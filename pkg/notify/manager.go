package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/events"
)

// Strategy governs how partial channel failures are reported.
type Strategy int

const (
	// StrategyAllOrNothing aborts the whole send when any channel attempt
	// fails: the caller gets an aggregate *SendError and no partial report.
	StrategyAllOrNothing Strategy = iota

	// StrategyBestEffort always returns a full report mixing successes and
	// failures; individual channel failures never surface as an error.
	StrategyBestEffort
)

// Config declares the Manager's channel set at construction time.
type Config struct {
	// DefaultChannel names the channel used when a requested one is
	// unavailable and during fallback resolution.
	DefaultChannel string `json:"default_channel,omitempty"`

	// EnableFallback allows substituting an alternate ready channel when
	// the preferred or default one is unavailable.
	EnableFallback bool `json:"enable_fallback"`

	// Channels are instantiated through registered factories; a channel
	// whose construction fails is logged and skipped so one bad channel
	// does not prevent startup.
	Channels []ChannelSetting `json:"channels,omitempty"`
}

// Manager orchestrates the full send lifecycle: channel resolution,
// recipient routing, concurrent fan-out and strategy enforcement.
type Manager struct {
	registry *Registry
	events   *events.Dispatcher
	logger   *slog.Logger
	strategy Strategy
}

// Option configures a Manager.
type Option func(*managerOptions)

type managerOptions struct {
	logger    *slog.Logger
	events    *events.Dispatcher
	strategy  Strategy
	factories map[string]Factory
	channels  []preRegistered
}

type preRegistered struct {
	name     string
	channel  Channel
	priority int
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *managerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEvents injects the lifecycle event dispatcher. Without it the
// Manager uses an isolated dispatcher with no listeners.
func WithEvents(d *events.Dispatcher) Option {
	return func(o *managerOptions) {
		if d != nil {
			o.events = d
		}
	}
}

// WithStrategy sets the delivery strategy. The default is all-or-nothing.
func WithStrategy(s Strategy) Option {
	return func(o *managerOptions) { o.strategy = s }
}

// WithFactory registers a channel constructor before the Config channel
// settings are applied, so factory-declared channels auto-instantiate.
func WithFactory(name string, factory Factory) Option {
	return func(o *managerOptions) { o.factories[name] = factory }
}

// WithChannel registers an already-constructed channel instance directly,
// bypassing the factory path.
func WithChannel(ch Channel, priority int) Option {
	return func(o *managerOptions) {
		if ch != nil {
			o.channels = append(o.channels, preRegistered{name: ch.Name(), channel: ch, priority: priority})
		}
	}
}

// New builds a Manager: factories first, then Config channel settings
// (instantiating enabled ones), then directly-registered instances, then
// the default channel. A configured default naming an unregistered channel
// is a construction error.
func New(cfg Config, opts ...Option) (*Manager, error) {
	o := &managerOptions{
		logger:    slog.Default(),
		strategy:  StrategyAllOrNothing,
		factories: make(map[string]Factory),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.events == nil {
		o.events = events.NewDispatcher(events.WithLogger(o.logger))
	}

	registry := NewRegistry(cfg.EnableFallback, o.logger)
	for name, factory := range o.factories {
		registry.RegisterFactory(name, factory)
	}
	for _, setting := range cfg.Channels {
		registry.Configure(setting)
	}
	for _, pre := range o.channels {
		registry.Register(pre.name, pre.channel, pre.priority)
	}

	if cfg.DefaultChannel != "" {
		if err := registry.SetDefault(cfg.DefaultChannel); err != nil {
			return nil, err
		}
	}

	return &Manager{
		registry: registry,
		events:   o.events,
		logger:   o.logger,
		strategy: o.strategy,
	}, nil
}

// Registry exposes the channel registry for runtime management.
func (m *Manager) Registry() *Registry { return m.registry }

// Events exposes the lifecycle event dispatcher so collaborators can
// subscribe without being part of the send's critical path.
func (m *Manager) Events() *events.Dispatcher { return m.events }

// Send delivers one notification through every channel it declares, using
// the explicit routing map to resolve recipients.
func (m *Manager) Send(ctx context.Context, n *Notification, routes Routes) (Report, error) {
	return m.send(ctx, n, routes, nil)
}

// SendTo delivers one notification resolving recipients through the
// notifiable's own routing capability. An explicit routing map can be
// layered on top via Send.
func (m *Manager) SendTo(ctx context.Context, n *Notification, to Notifiable) (Report, error) {
	return m.send(ctx, n, nil, to)
}

// attempt is the settled outcome of one channel slot.
type attempt struct {
	slot     ChannelType
	response *Response
	err      *Error
}

func (m *Manager) send(ctx context.Context, n *Notification, routes Routes, notifiable Notifiable) (Report, error) {
	if n == nil {
		return nil, NewValidationError("notification is nil")
	}

	channels := n.ChannelsFor(notifiable)
	if len(channels) == 0 {
		return nil, NewValidationError("notification declares no channels")
	}

	notificationID := uuid.New().String()

	m.events.Dispatch(ctx, SendingEvent{
		NotificationID: notificationID,
		Reference:      n.Reference(),
		Priority:       n.Priority(),
		Channels:       channels,
	})

	// Fan out one goroutine per channel slot. The registry is read-only
	// for the duration of a send; results are collected over a buffered
	// channel so no slot can block another.
	results := make(chan attempt, len(channels))
	var wg sync.WaitGroup
	for _, slot := range channels {
		wg.Add(1)
		go func(slot ChannelType) {
			defer wg.Done()
			results <- m.attemptChannel(ctx, notificationID, n, slot, routes, notifiable)
		}(slot)
	}
	wg.Wait()
	close(results)

	// Strategy logic runs only on the fully settled set.
	report := make(Report, len(channels))
	failures := make(map[ChannelType]*Error)
	for res := range results {
		if res.err != nil {
			failures[res.slot] = res.err
			report[res.slot] = &Response{
				Success:        false,
				Status:         StatusFailed,
				Channel:        res.slot,
				NotificationID: notificationID,
				SentAt:         time.Now(),
				Err:            res.err,
			}
			continue
		}
		report[res.slot] = res.response
	}

	if m.strategy == StrategyAllOrNothing && len(failures) > 0 {
		first := firstFailed(channels, failures)
		sendErr := &SendError{
			FailedChannel: first,
			Failures:      failures,
			Attempts:      len(channels),
		}
		m.events.Dispatch(ctx, FailedEvent{
			NotificationID: notificationID,
			Reference:      n.Reference(),
			Priority:       n.Priority(),
			Channels:       channels,
			FailedChannel:  first,
			Err:            sendErr,
		})
		return nil, sendErr
	}

	m.events.Dispatch(ctx, SentEvent{
		NotificationID: notificationID,
		Reference:      n.Reference(),
		Priority:       n.Priority(),
		Channels:       channels,
		Report:         report,
	})
	return report, nil
}

// attemptChannel resolves, builds and sends one channel slot.
func (m *Manager) attemptChannel(ctx context.Context, notificationID string, n *Notification, slot ChannelType, routes Routes, notifiable Notifiable) attempt {
	ch, err := m.registry.ResolveWithFallback(string(slot))
	if err != nil {
		return attempt{slot: slot, err: AsError(err)}
	}
	if ch == nil {
		return attempt{slot: slot, err: NewChannelNotFoundError(string(slot)).
			WithDetail("reason", "no ready channel after fallback scan")}
	}

	// Fallback may substitute a channel of a different type; the builder
	// and addresses must then match the resolved channel's type.
	target := ch.Type()
	builder, ok := n.BuilderFor(target)
	if !ok {
		return attempt{slot: slot, err: NewConfigurationError(
			"notification has no builder for channel type %q", target)}
	}

	addrs, err := resolveAddresses(target, routes, notifiable)
	if err != nil {
		return attempt{slot: slot, err: AsError(err)}
	}

	msg, err := builder(ctx, addrs)
	if err != nil {
		return attempt{slot: slot, err: AsError(err)}
	}

	resp, err := ch.Send(ctx, msg)
	if err != nil {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "channel send failed",
			slog.String("notification_id", notificationID),
			slog.String("channel", ch.Name()),
			slog.String("channel_type", string(target)),
			slog.String("error", err.Error()),
		)
		return attempt{slot: slot, err: AsError(err)}
	}

	if resp == nil {
		return attempt{slot: slot, err: NewInvalidResponseError(ch.Name(), nil)}
	}
	resp.Channel = slot
	resp.ChannelName = ch.Name()
	resp.NotificationID = notificationID
	if resp.SentAt.IsZero() {
		resp.SentAt = time.Now()
	}
	return attempt{slot: slot, response: resp}
}

// firstFailed returns the first failing channel in declaration order.
func firstFailed(channels []ChannelType, failures map[ChannelType]*Error) ChannelType {
	for _, ch := range channels {
		if _, ok := failures[ch]; ok {
			return ch
		}
	}
	for ch := range failures {
		return ch
	}
	return ""
}
