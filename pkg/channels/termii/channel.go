package termii

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

const defaultBaseURL = "https://api.ng.termii.com"

// Config holds the Termii SMS channel configuration.
type Config struct {
	APIKey   string        `env:"TERMII_API_KEY"`
	SenderID string        `env:"TERMII_SENDER_ID,required"`
	BaseURL  string        `env:"TERMII_BASE_URL"`
	Timeout  time.Duration `env:"TERMII_TIMEOUT" envDefault:"15s"`
}

// Channel delivers SMS through the Termii HTTP API.
type Channel struct {
	name   string
	config Config
	client *http.Client
}

// New creates a Termii SMS channel. A missing API key leaves the channel
// registered but unready.
func New(name string, cfg Config) (*Channel, error) {
	if name == "" {
		name = "termii"
	}
	if cfg.SenderID == "" {
		return nil, notify.NewConfigurationError("termii: SenderID is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &Channel{
		name:   name,
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Factory adapts the channel constructor to the registry factory contract.
func Factory(name string) notify.Factory {
	return func(cc notify.ChannelConfig) (notify.Channel, error) {
		return New(name, Config{
			APIKey:   cc.APIKey,
			SenderID: cc.Extra["sender_id"],
			BaseURL:  cc.BaseURL,
			Timeout:  time.Duration(cc.Timeout) * time.Second,
		})
	}
}

func (c *Channel) Name() string             { return c.name }
func (c *Channel) Type() notify.ChannelType { return notify.TypeSMS }
func (c *Channel) Ready() bool              { return c.config.APIKey != "" }

type sendRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	SMS     string `json:"sms"`
	Type    string `json:"type"`
	Channel string `json:"channel"`
	APIKey  string `json:"api_key"`
}

type sendResponse struct {
	MessageID string `json:"message_id"`
	Message   string `json:"message"`
}

// Send delivers the SMS to each recipient phone number.
func (c *Channel) Send(ctx context.Context, msg notify.Message) (*notify.Response, error) {
	sms, ok := msg.(notify.SMSMessage)
	if !ok {
		return nil, notify.NewValidationError("termii: expected SMSMessage, got %T", msg)
	}
	if !c.Ready() {
		return nil, notify.NewChannelNotReadyError(c.name)
	}
	if len(sms.To) == 0 {
		return nil, notify.NewInvalidRecipientError(notify.TypeSMS)
	}
	if sms.Body == "" {
		return nil, notify.NewValidationError("termii: body is required")
	}

	from := sms.From
	if from == "" {
		from = c.config.SenderID
	}

	var lastID string
	for _, to := range sms.To {
		id, err := c.post(ctx, sendRequest{
			To:      to.Value,
			From:    from,
			SMS:     sms.Body,
			Type:    "plain",
			Channel: "generic",
			APIKey:  c.config.APIKey,
		})
		if err != nil {
			return nil, err
		}
		lastID = id
	}

	return &notify.Response{
		Success:   true,
		Status:    notify.StatusSent,
		MessageID: lastID,
		SentAt:    time.Now(),
	}, nil
}

func (c *Channel) post(ctx context.Context, payload sendRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", notify.NewValidationError("termii: marshal payload: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/sms/send", bytes.NewReader(body))
	if err != nil {
		return "", notify.NewProviderError(c.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", notify.NewProviderError(c.name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", notify.NewInvalidResponseError(c.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", notify.NewProviderError(c.name,
			fmt.Errorf("termii returned %s: %s", resp.Status, raw)).
			WithDetail("status_code", resp.StatusCode)
	}

	var parsed sendResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", notify.NewInvalidResponseError(c.name, err)
	}
	return parsed.MessageID, nil
}
