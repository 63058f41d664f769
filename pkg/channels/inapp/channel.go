package inapp

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/notify"
)

// Channel delivers in-app notifications by writing them to an Inbox.
// Addresses carry user IDs.
type Channel struct {
	name  string
	inbox Inbox
}

// New creates an in-app channel backed by the given inbox.
func New(name string, inbox Inbox) (*Channel, error) {
	if name == "" {
		name = "in-app"
	}
	if inbox == nil {
		return nil, notify.NewConfigurationError("inapp: inbox is required")
	}
	return &Channel{name: name, inbox: inbox}, nil
}

func (c *Channel) Name() string             { return c.name }
func (c *Channel) Type() notify.ChannelType { return notify.TypeInApp }
func (c *Channel) Ready() bool              { return c.inbox != nil }

// Inbox exposes the backing store for read/unread queries.
func (c *Channel) Inbox() Inbox { return c.inbox }

// Send writes one inbox item per target user. In-app delivery is local
// persistence, so the response is immediately delivered.
func (c *Channel) Send(ctx context.Context, msg notify.Message) (*notify.Response, error) {
	im, ok := msg.(notify.InAppMessage)
	if !ok {
		return nil, notify.NewValidationError("inapp: expected InAppMessage, got %T", msg)
	}
	if len(im.To) == 0 {
		return nil, notify.NewInvalidRecipientError(notify.TypeInApp)
	}

	var lastID string
	for _, to := range im.To {
		item := Item{
			ID:        uuid.New().String(),
			UserID:    to.Value,
			Title:     im.Title,
			Body:      im.Body,
			Data:      im.Data,
			CreatedAt: time.Now(),
		}
		if err := c.inbox.Put(ctx, item); err != nil {
			return nil, notify.NewProviderError(c.name, err)
		}
		lastID = item.ID
	}

	return &notify.Response{
		Success:   true,
		Status:    notify.StatusDelivered,
		MessageID: lastID,
		SentAt:    time.Now(),
	}, nil
}
