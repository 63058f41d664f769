package notify_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/notify"
)

func TestNotification_Defaults(t *testing.T) {
	t.Parallel()

	n := notify.NewNotification()
	assert.Equal(t, notify.PriorityNormal, n.Priority())
	assert.Empty(t, n.Reference())
	assert.Nil(t, n.Metadata())
	assert.Empty(t, n.ChannelsFor(nil))
}

func TestNotification_FluentSetters(t *testing.T) {
	t.Parallel()

	n := notify.NewNotification().
		WithPriority(notify.PriorityUrgent).
		WithReference("order-42").
		WithMetadata("tenant", "acme").
		WithMetadata("kind", "receipt").
		Via(notify.TypeEmail, notify.TypeSMS)

	assert.Equal(t, notify.PriorityUrgent, n.Priority())
	assert.Equal(t, "order-42", n.Reference())
	assert.Equal(t, map[string]string{"tenant": "acme", "kind": "receipt"}, n.Metadata())
	assert.Equal(t, []notify.ChannelType{notify.TypeEmail, notify.TypeSMS}, n.ChannelsFor(nil))
}

func TestNotification_MetadataIsCopied(t *testing.T) {
	t.Parallel()

	n := notify.NewNotification().WithMetadata("k", "v")
	md := n.Metadata()
	md["k"] = "mutated"

	assert.Equal(t, "v", n.Metadata()["k"])
}

func TestNotification_ViaFuncWinsOverVia(t *testing.T) {
	t.Parallel()

	n := notify.NewNotification().
		Via(notify.TypeEmail).
		ViaFunc(func(to notify.Notifiable) []notify.ChannelType {
			return []notify.ChannelType{notify.TypeSMS, notify.TypePush}
		})

	assert.Equal(t, []notify.ChannelType{notify.TypeSMS, notify.TypePush}, n.ChannelsFor(nil))
}

func TestNotification_Builders(t *testing.T) {
	t.Parallel()

	n := notify.NewNotification().
		OnEmail(func(ctx context.Context, to []notify.Address) (*notify.EmailMessage, error) {
			return &notify.EmailMessage{To: to, Subject: "s"}, nil
		}).
		On(notify.TypeTelegram, func(ctx context.Context, to []notify.Address) (notify.Message, error) {
			return notify.RawMessage{Type: notify.TypeTelegram, To: to, Body: "hi"}, nil
		})

	_, ok := n.BuilderFor(notify.TypeSMS)
	assert.False(t, ok)

	b, ok := n.BuilderFor(notify.TypeEmail)
	require.True(t, ok)
	msg, err := b(context.Background(), []notify.Address{notify.Addr("a@b.c")})
	require.NoError(t, err)
	email, ok := msg.(notify.EmailMessage)
	require.True(t, ok)
	assert.Equal(t, "s", email.Subject)
	assert.Equal(t, notify.TypeEmail, email.MessageType())

	b, ok = n.BuilderFor(notify.TypeTelegram)
	require.True(t, ok)
	msg, err = b(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, notify.TypeTelegram, msg.MessageType())
}

func TestPriority_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "low", notify.PriorityLow.String())
	assert.Equal(t, "normal", notify.PriorityNormal.String())
	assert.Equal(t, "high", notify.PriorityHigh.String())
	assert.Equal(t, "urgent", notify.PriorityUrgent.String())
}
