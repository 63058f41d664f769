package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/notify"
)

const defaultBaseURL = "https://api.telegram.org"

// Config holds the Telegram bot channel configuration.
type Config struct {
	BotToken string        `env:"TELEGRAM_BOT_TOKEN"`
	BaseURL  string        `env:"TELEGRAM_BASE_URL"`
	Timeout  time.Duration `env:"TELEGRAM_TIMEOUT" envDefault:"10s"`
}

// Channel delivers messages through the Telegram Bot API. Telegram is not
// one of the well-known channel types; it demonstrates that custom types
// are first-class in the registry.
type Channel struct {
	name   string
	config Config
	client *http.Client
}

// New creates a Telegram bot channel. A missing bot token leaves the
// channel registered but unready.
func New(name string, cfg Config) (*Channel, error) {
	if name == "" {
		name = "telegram"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
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
func Factory(name string) notify.Factory {
	return func(cc notify.ChannelConfig) (notify.Channel, error) {
		return New(name, Config{
			BotToken: cc.APIKey,
			BaseURL:  cc.BaseURL,
			Timeout:  time.Duration(cc.Timeout) * time.Second,
		})
	}
}

func (c *Channel) Name() string             { return c.name }
func (c *Channel) Type() notify.ChannelType { return notify.TypeTelegram }
func (c *Channel) Ready() bool              { return c.config.BotToken != "" }

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// Send posts the message to each chat ID. RawMessage payloads targeting
// the telegram type are accepted alongside typed messages.
func (c *Channel) Send(ctx context.Context, msg notify.Message) (*notify.Response, error) {
	raw, ok := msg.(notify.RawMessage)
	if !ok || raw.Type != notify.TypeTelegram {
		return nil, notify.NewValidationError("telegram: expected RawMessage with telegram type, got %T", msg)
	}
	if !c.Ready() {
		return nil, notify.NewChannelNotReadyError(c.name)
	}
	if len(raw.To) == 0 {
		return nil, notify.NewInvalidRecipientError(notify.TypeTelegram)
	}
	if raw.Body == "" {
		return nil, notify.NewValidationError("telegram: body is required")
	}

	var lastID string
	for _, to := range raw.To {
		id, err := c.sendMessage(ctx, to.Value, raw.Body)
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

func (c *Channel) sendMessage(ctx context.Context, chatID, text string) (string, error) {
	body, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return "", notify.NewValidationError("telegram: marshal payload: %v", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.config.BaseURL, c.config.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
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

	var parsed sendMessageResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", notify.NewInvalidResponseError(c.name, err)
	}
	if !parsed.OK {
		return "", notify.NewProviderError(c.name,
			fmt.Errorf("telegram API error: %s", parsed.Description)).
			WithDetail("status_code", resp.StatusCode)
	}
	return strconv.FormatInt(parsed.Result.MessageID, 10), nil
}
