package notify

import "context"

// Priority is the notification priority level.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityUrgent
)

// String returns the lowercase priority name.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	default:
		return "normal"
	}
}

// Builder produces the channel-specific message for one delivery attempt.
// The addresses are the recipients resolved for the channel being built.
type Builder func(ctx context.Context, to []Address) (Message, error)

// ViaFunc selects channels dynamically per recipient. A nil notifiable is
// passed when the caller supplied an explicit routing map only.
type ViaFunc func(n Notifiable) []ChannelType

// Notification is a single logical notification: which channels it goes
// through and how to build the message for each. Configure it with the
// fluent setters before dispatch; the Manager never mutates it.
type Notification struct {
	priority  Priority
	reference string
	metadata  map[string]string
	channels  []ChannelType
	viaFn     ViaFunc
	builders  map[ChannelType]Builder
}

// NewNotification creates a notification with normal priority and no
// channels declared.
func NewNotification() *Notification {
	return &Notification{
		priority: PriorityNormal,
		builders: make(map[ChannelType]Builder),
	}
}

// WithPriority sets the delivery priority.
func (n *Notification) WithPriority(p Priority) *Notification {
	n.priority = p
	return n
}

// WithReference attaches a caller-supplied correlation identifier threaded
// through events and delivery logs.
func (n *Notification) WithReference(ref string) *Notification {
	n.reference = ref
	return n
}

// WithMetadata adds one free-form key-value pair.
func (n *Notification) WithMetadata(key, value string) *Notification {
	if n.metadata == nil {
		n.metadata = make(map[string]string)
	}
	n.metadata[key] = value
	return n
}

// Via declares the static channel set the notification is sent through.
func (n *Notification) Via(channels ...ChannelType) *Notification {
	n.channels = channels
	return n
}

// ViaFunc installs a dynamic channel selector evaluated at dispatch time.
// It takes precedence over the static Via list.
func (n *Notification) ViaFunc(fn ViaFunc) *Notification {
	n.viaFn = fn
	return n
}

// On registers the message builder for a channel type. A channel declared
// via Via without a matching builder fails that channel's attempt with a
// configuration error; other channels are unaffected.
func (n *Notification) On(channel ChannelType, b Builder) *Notification {
	n.builders[channel] = b
	return n
}

// OnEmail registers a typed email builder.
func (n *Notification) OnEmail(fn func(ctx context.Context, to []Address) (*EmailMessage, error)) *Notification {
	return n.On(TypeEmail, func(ctx context.Context, to []Address) (Message, error) {
		msg, err := fn(ctx, to)
		if err != nil {
			return nil, err
		}
		return *msg, nil
	})
}

// OnSMS registers a typed SMS builder.
func (n *Notification) OnSMS(fn func(ctx context.Context, to []Address) (*SMSMessage, error)) *Notification {
	return n.On(TypeSMS, func(ctx context.Context, to []Address) (Message, error) {
		msg, err := fn(ctx, to)
		if err != nil {
			return nil, err
		}
		return *msg, nil
	})
}

// OnPush registers a typed push builder.
func (n *Notification) OnPush(fn func(ctx context.Context, to []Address) (*PushMessage, error)) *Notification {
	return n.On(TypePush, func(ctx context.Context, to []Address) (Message, error) {
		msg, err := fn(ctx, to)
		if err != nil {
			return nil, err
		}
		return *msg, nil
	})
}

// OnInApp registers a typed in-app builder.
func (n *Notification) OnInApp(fn func(ctx context.Context, to []Address) (*InAppMessage, error)) *Notification {
	return n.On(TypeInApp, func(ctx context.Context, to []Address) (Message, error) {
		msg, err := fn(ctx, to)
		if err != nil {
			return nil, err
		}
		return *msg, nil
	})
}

// Priority returns the configured priority.
func (n *Notification) Priority() Priority { return n.priority }

// Reference returns the caller-supplied correlation identifier.
func (n *Notification) Reference() string { return n.reference }

// Metadata returns a copy of the metadata map.
func (n *Notification) Metadata() map[string]string {
	if n.metadata == nil {
		return nil
	}
	out := make(map[string]string, len(n.metadata))
	for k, v := range n.metadata {
		out[k] = v
	}
	return out
}

// ChannelsFor resolves the channel set for a notifiable, preferring the
// dynamic selector over the static list.
func (n *Notification) ChannelsFor(notifiable Notifiable) []ChannelType {
	if n.viaFn != nil {
		return n.viaFn(notifiable)
	}
	return n.channels
}

// BuilderFor returns the registered builder for a channel type.
func (n *Notification) BuilderFor(channel ChannelType) (Builder, bool) {
	b, ok := n.builders[channel]
	return b, ok
}
