package smtp

import (
	"context"
	"time"

	mail "gopkg.in/mail.v2"

	"github.com/dmitrymomot/notifykit/pkg/notify"
)

// Config holds the SMTP channel configuration.
type Config struct {
	Host     string        `env:"SMTP_HOST,required"`
	Port     int           `env:"SMTP_PORT" envDefault:"587"`
	Username string        `env:"SMTP_USERNAME"`
	Password string        `env:"SMTP_PASSWORD"`
	From     string        `env:"SMTP_FROM,required"`
	Timeout  time.Duration `env:"SMTP_TIMEOUT" envDefault:"10s"`
}

// dialer is satisfied by *mail.Dialer; tests substitute a fake.
type dialer interface {
	DialAndSend(m ...*mail.Message) error
}

// Channel delivers email through a plain SMTP relay.
type Channel struct {
	name   string
	config Config
	dialer dialer
}

// New creates an SMTP email channel.
func New(name string, cfg Config) (*Channel, error) {
	if name == "" {
		name = "smtp"
	}
	if cfg.Host == "" {
		return nil, notify.NewConfigurationError("smtp: Host is required")
	}
	if cfg.From == "" {
		return nil, notify.NewConfigurationError("smtp: From is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.Timeout = cfg.Timeout

	return &Channel{
		name:   name,
		config: cfg,
		dialer: d,
	}, nil
}

// Factory adapts the channel constructor to the registry factory contract.
func Factory(name string) notify.Factory {
	return func(cc notify.ChannelConfig) (notify.Channel, error) {
		return New(name, Config{
			Host:     cc.Extra["host"],
			Port:     atoiOrZero(cc.Extra["port"]),
			Username: cc.Extra["username"],
			Password: cc.SecretKey,
			From:     cc.Extra["from"],
			Timeout:  time.Duration(cc.Timeout) * time.Second,
		})
	}
}

func (c *Channel) Name() string             { return c.name }
func (c *Channel) Type() notify.ChannelType { return notify.TypeEmail }
func (c *Channel) Ready() bool              { return c.config.Host != "" && c.config.From != "" }

// Send builds and relays one email per message. The SMTP dial blocks, so
// the caller's context deadline is honored by running the dial in a
// goroutine and abandoning it on cancellation; the dialer's own timeout
// bounds how long an abandoned dial can linger.
func (c *Channel) Send(ctx context.Context, msg notify.Message) (*notify.Response, error) {
	email, ok := msg.(notify.EmailMessage)
	if !ok {
		return nil, notify.NewValidationError("smtp: expected EmailMessage, got %T", msg)
	}
	if len(email.To) == 0 {
		return nil, notify.NewInvalidRecipientError(notify.TypeEmail)
	}

	m := mail.NewMessage()
	m.SetHeader("From", c.config.From)
	to := make([]string, len(email.To))
	for i, addr := range email.To {
		if addr.Name != "" {
			to[i] = m.FormatAddress(addr.Value, addr.Name)
		} else {
			to[i] = addr.Value
		}
	}
	m.SetHeader("To", to...)
	m.SetHeader("Subject", email.Subject)
	if email.BodyText != "" {
		m.SetBody("text/plain", email.BodyText)
		if email.BodyHTML != "" {
			m.AddAlternative("text/html", email.BodyHTML)
		}
	} else {
		m.SetBody("text/html", email.BodyHTML)
	}

	done := make(chan error, 1)
	go func() { done <- c.dialer.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			return nil, notify.NewProviderError(c.name, err)
		}
	case <-ctx.Done():
		return nil, notify.NewProviderError(c.name, ctx.Err())
	}

	return &notify.Response{
		Success: true,
		Status:  notify.StatusSent,
		SentAt:  time.Now(),
	}, nil
}

func atoiOrZero(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
