package smtp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mail "gopkg.in/mail.v2"

	"github.com/dmitrymomot/notifykit/pkg/notify"
)

// fakeDialer captures sent messages instead of opening a connection.
type fakeDialer struct {
	messages []*mail.Message
	err      error
	delay    time.Duration
}

func (d *fakeDialer) DialAndSend(m ...*mail.Message) error {
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	if d.err != nil {
		return d.err
	}
	d.messages = append(d.messages, m...)
	return nil
}

func newTestChannel(t *testing.T, d dialer) *Channel {
	t.Helper()
	ch, err := New("smtp", Config{Host: "mail.example.com", From: "noreply@example.com"})
	require.NoError(t, err)
	ch.dialer = d
	return ch
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := New("smtp", Config{From: "noreply@example.com"})
	assert.Equal(t, notify.CodeConfiguration, notify.CodeOf(err))

	_, err = New("smtp", Config{Host: "mail.example.com"})
	assert.Equal(t, notify.CodeConfiguration, notify.CodeOf(err))

	ch, err := New("", Config{Host: "mail.example.com", From: "noreply@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "smtp", ch.Name())
	assert.Equal(t, notify.TypeEmail, ch.Type())
	assert.True(t, ch.Ready())
}

func TestNew_DialTimeout(t *testing.T) {
	t.Parallel()

	// The dial timeout keeps an abandoned DialAndSend goroutine from
	// lingering after the caller's context is cancelled.
	ch, err := New("smtp", Config{Host: "mail.example.com", From: "noreply@example.com"})
	require.NoError(t, err)
	d, ok := ch.dialer.(*mail.Dialer)
	require.True(t, ok)
	assert.Equal(t, 10*time.Second, d.Timeout)

	ch, err = New("smtp", Config{
		Host:    "mail.example.com",
		From:    "noreply@example.com",
		Timeout: 3 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, ch.dialer.(*mail.Dialer).Timeout)
}

func TestChannel_Send(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("relays the message", func(t *testing.T) {
		t.Parallel()
		d := &fakeDialer{}
		ch := newTestChannel(t, d)

		resp, err := ch.Send(ctx, notify.EmailMessage{
			To:       []notify.Address{notify.NamedAddr("user@example.com", "User")},
			Subject:  "welcome",
			BodyText: "hello",
			BodyHTML: "<p>hello</p>",
		})
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, notify.StatusSent, resp.Status)

		require.Len(t, d.messages, 1)
		msg := d.messages[0]
		assert.Equal(t, []string{"noreply@example.com"}, msg.GetHeader("From"))
		assert.Equal(t, []string{"welcome"}, msg.GetHeader("Subject"))
		require.Len(t, msg.GetHeader("To"), 1)
		assert.Contains(t, msg.GetHeader("To")[0], "user@example.com")
	})

	t.Run("dial failure becomes provider error", func(t *testing.T) {
		t.Parallel()
		ch := newTestChannel(t, &fakeDialer{err: errors.New("connection refused")})

		_, err := ch.Send(ctx, notify.EmailMessage{
			To:       []notify.Address{notify.Addr("user@example.com")},
			Subject:  "s",
			BodyText: "b",
		})
		require.Error(t, err)
		assert.Equal(t, notify.CodeProvider, notify.CodeOf(err))
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("context cancellation abandons the dial", func(t *testing.T) {
		t.Parallel()
		ch := newTestChannel(t, &fakeDialer{delay: time.Second})

		cctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()

		_, err := ch.Send(cctx, notify.EmailMessage{
			To:       []notify.Address{notify.Addr("user@example.com")},
			Subject:  "s",
			BodyText: "b",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		ch := newTestChannel(t, &fakeDialer{})

		_, err := ch.Send(ctx, notify.SMSMessage{Body: "x"})
		assert.Equal(t, notify.CodeInvalidRequest, notify.CodeOf(err))

		_, err = ch.Send(ctx, notify.EmailMessage{Subject: "s"})
		assert.Equal(t, notify.CodeInvalidRecipient, notify.CodeOf(err))
	})
}

func TestFactory(t *testing.T) {
	t.Parallel()

	ch, err := Factory("relay")(notify.ChannelConfig{
		SecretKey: "secret",
		Timeout:   5,
		Extra: map[string]string{
			"host":     "mail.example.com",
			"port":     "2525",
			"username": "mailer",
			"from":     "noreply@example.com",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "relay", ch.Name())
	assert.True(t, ch.Ready())
	assert.Equal(t, 5*time.Second, ch.(*Channel).dialer.(*mail.Dialer).Timeout)
}

func TestAtoiOrZero(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2525, atoiOrZero("2525"))
	assert.Equal(t, 0, atoiOrZero(""))
	assert.Equal(t, 0, atoiOrZero("25x"))
}
