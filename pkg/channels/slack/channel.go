package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/notify"
)

// Config holds the Slack channel configuration.
type Config struct {
	// WebhookURL is a Slack incoming-webhook endpoint.
	WebhookURL string `env:"SLACK_WEBHOOK_URL,required"`
	// Timeout bounds each webhook call.
	Timeout time.Duration `env:"SLACK_TIMEOUT" envDefault:"10s"`
}

// Channel posts messages to a Slack incoming webhook.
type Channel struct {
	name   string
	config Config
	client *http.Client
}

// New creates a Slack webhook channel.
func New(name string, cfg Config) (*Channel, error) {
	if name == "" {
		name = "slack"
	}
	if cfg.WebhookURL == "" {
		return nil, notify.NewConfigurationError("slack: WebhookURL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Channel{
		name:   name,
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Factory adapts the channel constructor to the registry factory contract.
// The webhook URL travels in BaseURL.
func Factory(name string) notify.Factory {
	return func(cc notify.ChannelConfig) (notify.Channel, error) {
		return New(name, Config{
			WebhookURL: cc.BaseURL,
			Timeout:    time.Duration(cc.Timeout) * time.Second,
		})
	}
}

func (c *Channel) Name() string             { return c.name }
func (c *Channel) Type() notify.ChannelType { return notify.TypeSlack }
func (c *Channel) Ready() bool              { return c.config.WebhookURL != "" }

type webhookPayload struct {
	Channel string `json:"channel,omitempty"`
	Text    string `json:"text"`
}

// Send posts the message once per target channel address. An empty
// address list posts to the webhook's default channel.
func (c *Channel) Send(ctx context.Context, msg notify.Message) (*notify.Response, error) {
	sm, ok := msg.(notify.SlackMessage)
	if !ok {
		return nil, notify.NewValidationError("slack: expected SlackMessage, got %T", msg)
	}
	if sm.Text == "" {
		return nil, notify.NewValidationError("slack: text is required")
	}

	targets := sm.To
	if len(targets) == 0 {
		targets = []notify.Address{{}}
	}

	for _, target := range targets {
		if err := c.post(ctx, webhookPayload{Channel: target.Value, Text: sm.Text}); err != nil {
			return nil, err
		}
	}

	return &notify.Response{
		Success: true,
		Status:  notify.StatusSent,
		SentAt:  time.Now(),
	}, nil
}

func (c *Channel) post(ctx context.Context, payload webhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return notify.NewValidationError("slack: marshal payload: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return notify.NewProviderError(c.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return notify.NewProviderError(c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return notify.NewProviderError(c.name,
			fmt.Errorf("webhook returned %s: %s", resp.Status, snippet)).
			WithDetail("status_code", resp.StatusCode)
	}
	return nil
}
