package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrymomot/notifykit/pkg/notify"
)

// Envelope is the serializable form of one notification send. Builders
// are functions and cannot be persisted, so messages are built eagerly at
// enqueue time and replayed by the worker.
type Envelope struct {
	Reference string                                   `json:"reference,omitempty"`
	Priority  notify.Priority                          `json:"priority"`
	Channels  []notify.ChannelType                     `json:"channels"`
	Messages  map[notify.ChannelType]json.RawMessage   `json:"messages"`
	Routes    map[notify.ChannelType][]notify.Address  `json:"routes"`
	Metadata  map[string]string                        `json:"metadata,omitempty"`
}

// Seal materializes a notification into an envelope: every declared
// channel's builder runs against the addresses resolved from the routing
// map, and the built messages are stored alongside the routes.
func Seal(ctx context.Context, n *notify.Notification, routes notify.Routes) (*Envelope, error) {
	if n == nil {
		return nil, ErrNotificationNil
	}

	channels := n.ChannelsFor(nil)
	if len(channels) == 0 {
		return nil, fmt.Errorf("queue: notification declares no channels")
	}

	env := &Envelope{
		Reference: n.Reference(),
		Priority:  n.Priority(),
		Channels:  channels,
		Messages:  make(map[notify.ChannelType]json.RawMessage, len(channels)),
		Routes:    routes,
		Metadata:  n.Metadata(),
	}

	for _, ch := range channels {
		builder, ok := n.BuilderFor(ch)
		if !ok {
			return nil, notify.NewConfigurationError("queue: notification has no builder for channel type %q", ch)
		}
		addrs := routes[ch]
		msg, err := builder(ctx, addrs)
		if err != nil {
			return nil, fmt.Errorf("queue: build message for channel %q: %w", ch, err)
		}
		raw, err := json.Marshal(msg)
		if err != nil {
			return nil, fmt.Errorf("queue: marshal message for channel %q: %w", ch, err)
		}
		env.Messages[ch] = raw
	}

	return env, nil
}

// Open reconstructs the notification and routing map from a sealed
// envelope. The rebuilt builders replay the stored messages.
func (e *Envelope) Open() (*notify.Notification, notify.Routes, error) {
	n := notify.NewNotification().
		WithPriority(e.Priority).
		WithReference(e.Reference).
		Via(e.Channels...)
	for k, v := range e.Metadata {
		n.WithMetadata(k, v)
	}

	for ch, raw := range e.Messages {
		msg, err := decodeMessage(ch, raw)
		if err != nil {
			return nil, nil, err
		}
		n.On(ch, func(context.Context, []notify.Address) (notify.Message, error) {
			return msg, nil
		})
	}

	routes := make(notify.Routes, len(e.Routes))
	for ch, addrs := range e.Routes {
		routes[ch] = addrs
	}
	return n, routes, nil
}

// decodeMessage maps a stored payload back to its concrete message type.
// Unknown channel types round-trip through RawMessage.
func decodeMessage(ch notify.ChannelType, raw json.RawMessage) (notify.Message, error) {
	var (
		msg notify.Message
		err error
	)
	switch ch {
	case notify.TypeEmail:
		var m notify.EmailMessage
		err = json.Unmarshal(raw, &m)
		msg = m
	case notify.TypeSMS:
		var m notify.SMSMessage
		err = json.Unmarshal(raw, &m)
		msg = m
	case notify.TypePush:
		var m notify.PushMessage
		err = json.Unmarshal(raw, &m)
		msg = m
	case notify.TypeInApp:
		var m notify.InAppMessage
		err = json.Unmarshal(raw, &m)
		msg = m
	case notify.TypeSlack:
		var m notify.SlackMessage
		err = json.Unmarshal(raw, &m)
		msg = m
	case notify.TypeWhatsApp:
		var m notify.WhatsAppMessage
		err = json.Unmarshal(raw, &m)
		msg = m
	default:
		var m notify.RawMessage
		if err = json.Unmarshal(raw, &m); err == nil && m.Type == "" {
			m.Type = ch
		}
		msg = m
	}
	if err != nil {
		return nil, fmt.Errorf("queue: decode message for channel %q: %w", ch, err)
	}
	return msg, nil
}
