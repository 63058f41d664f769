package postmark

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/mrz1836/postmark"

	"github.com/dmitrymomot/notifykit/pkg/notify"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Config holds the Postmark channel configuration.
type Config struct {
	ServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	AccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail  string `env:"SENDER_EMAIL,required"`
	ReplyTo      string `env:"REPLY_TO_EMAIL"`
}

// Channel delivers email through Postmark's transactional API.
type Channel struct {
	name   string
	client *postmark.Client
	config Config
}

// New creates a Postmark-backed email channel. The sender identity is
// validated fail-fast; missing tokens leave the channel registered but
// unready, matching development environments where sending is disabled.
func New(name string, cfg Config) (*Channel, error) {
	if name == "" {
		name = "postmark"
	}
	if cfg.SenderEmail == "" {
		return nil, notify.NewConfigurationError("postmark: SenderEmail is required")
	}
	if !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, notify.NewConfigurationError("postmark: SenderEmail must be a valid email address")
	}
	if cfg.ReplyTo != "" && !emailRegex.MatchString(cfg.ReplyTo) {
		return nil, notify.NewConfigurationError("postmark: ReplyTo must be a valid email address")
	}

	ch := &Channel{name: name, config: cfg}
	if cfg.ServerToken != "" {
		ch.client = postmark.NewClient(cfg.ServerToken, cfg.AccountToken)
	}
	return ch, nil
}

// Factory adapts the channel constructor to the registry factory contract.
// ChannelConfig fields map onto Postmark credentials: APIKey is the server
// token, SecretKey the account token.
func Factory(name string) notify.Factory {
	return func(cc notify.ChannelConfig) (notify.Channel, error) {
		return New(name, Config{
			ServerToken:  cc.APIKey,
			AccountToken: cc.SecretKey,
			SenderEmail:  cc.Extra["sender_email"],
			ReplyTo:      cc.Extra["reply_to"],
		})
	}
}

func (c *Channel) Name() string             { return c.name }
func (c *Channel) Type() notify.ChannelType { return notify.TypeEmail }

// Ready reports whether the channel holds an API token to send with.
func (c *Channel) Ready() bool { return c.client != nil }

// Send delivers one email message per recipient. Tracking is enabled for
// opens and HTML link clicks only.
func (c *Channel) Send(ctx context.Context, msg notify.Message) (*notify.Response, error) {
	email, ok := msg.(notify.EmailMessage)
	if !ok {
		return nil, notify.NewValidationError("postmark: expected EmailMessage, got %T", msg)
	}
	if !c.Ready() {
		return nil, notify.NewChannelNotReadyError(c.name)
	}
	if len(email.To) == 0 {
		return nil, notify.NewInvalidRecipientError(notify.TypeEmail)
	}
	if email.Subject == "" {
		return nil, notify.NewValidationError("postmark: subject is required")
	}

	var lastID string
	for _, to := range email.To {
		if !emailRegex.MatchString(to.Value) {
			return nil, notify.NewInvalidRecipientError(notify.TypeEmail).
				WithDetail("address", to.Value)
		}

		resp, err := c.client.SendEmail(ctx, postmark.Email{
			From:       c.config.SenderEmail,
			ReplyTo:    c.config.ReplyTo,
			To:         formatAddress(to),
			Subject:    email.Subject,
			Tag:        email.Tag,
			HTMLBody:   email.BodyHTML,
			TextBody:   email.BodyText,
			TrackOpens: true,
			TrackLinks: "HtmlOnly",
		})
		if err != nil {
			return nil, notify.NewProviderError(c.name, err)
		}
		if resp.ErrorCode > 0 {
			return nil, notify.NewProviderError(c.name,
				fmt.Errorf("postmark error %d: %s", resp.ErrorCode, resp.Message)).
				WithDetail("error_code", resp.ErrorCode)
		}
		lastID = resp.MessageID
	}

	return &notify.Response{
		Success:   true,
		Status:    notify.StatusSent,
		MessageID: lastID,
		SentAt:    time.Now(),
	}, nil
}

func formatAddress(a notify.Address) string {
	if a.Name == "" {
		return a.Value
	}
	return fmt.Sprintf("%s <%s>", a.Name, a.Value)
}
