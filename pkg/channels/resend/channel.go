package resend

import (
	"context"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/dmitrymomot/notifykit/pkg/notify"
)

// Config holds the Resend channel configuration.
type Config struct {
	APIKey      string `env:"RESEND_API_KEY"`
	SenderEmail string `env:"RESEND_SENDER_EMAIL,required"`
	ReplyTo     string `env:"RESEND_REPLY_TO"`
}

// Channel delivers email through the Resend API.
type Channel struct {
	name   string
	client *resend.Client
	config Config
}

// New creates a Resend-backed email channel. A missing API key leaves the
// channel registered but unready.
func New(name string, cfg Config) (*Channel, error) {
	if name == "" {
		name = "resend"
	}
	if cfg.SenderEmail == "" {
		return nil, notify.NewConfigurationError("resend: SenderEmail is required")
	}

	ch := &Channel{name: name, config: cfg}
	if cfg.APIKey != "" {
		ch.client = resend.NewClient(cfg.APIKey)
	}
	return ch, nil
}

// Factory adapts the channel constructor to the registry factory contract.
func Factory(name string) notify.Factory {
	return func(cc notify.ChannelConfig) (notify.Channel, error) {
		return New(name, Config{
			APIKey:      cc.APIKey,
			SenderEmail: cc.Extra["sender_email"],
			ReplyTo:     cc.Extra["reply_to"],
		})
	}
}

func (c *Channel) Name() string             { return c.name }
func (c *Channel) Type() notify.ChannelType { return notify.TypeEmail }
func (c *Channel) Ready() bool              { return c.client != nil }

// Send delivers one email to all recipients in a single API call.
func (c *Channel) Send(ctx context.Context, msg notify.Message) (*notify.Response, error) {
	email, ok := msg.(notify.EmailMessage)
	if !ok {
		return nil, notify.NewValidationError("resend: expected EmailMessage, got %T", msg)
	}
	if !c.Ready() {
		return nil, notify.NewChannelNotReadyError(c.name)
	}
	if len(email.To) == 0 {
		return nil, notify.NewInvalidRecipientError(notify.TypeEmail)
	}

	to := make([]string, len(email.To))
	for i, addr := range email.To {
		to[i] = addr.Value
	}

	params := &resend.SendEmailRequest{
		From:    c.config.SenderEmail,
		To:      to,
		Subject: email.Subject,
		Html:    email.BodyHTML,
		Text:    email.BodyText,
		ReplyTo: c.config.ReplyTo,
	}

	sent, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return nil, notify.NewProviderError(c.name, err)
	}
	if sent == nil || sent.Id == "" {
		return nil, notify.NewInvalidResponseError(c.name, nil)
	}

	return &notify.Response{
		Success:   true,
		Status:    notify.StatusSent,
		MessageID: sent.Id,
		SentAt:    time.Now(),
	}, nil
}
