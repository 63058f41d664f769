package dev

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/notify"
)

// Channel is a development channel: instead of calling a provider it
// dumps every message to disk as a JSON file, one per send. It can stand
// in for any channel type.
type Channel struct {
	name        string
	channelType notify.ChannelType
	dir         string
}

// New creates a dev channel impersonating the given channel type and
// writing messages into dir. The directory is created on first send.
func New(name string, channelType notify.ChannelType, dir string) *Channel {
	if name == "" {
		name = "dev-" + string(channelType)
	}
	return &Channel{name: name, channelType: channelType, dir: dir}
}

func (c *Channel) Name() string             { return c.name }
func (c *Channel) Type() notify.ChannelType { return c.channelType }
func (c *Channel) Ready() bool              { return c.dir != "" }

type dump struct {
	Timestamp string         `json:"timestamp"`
	Channel   string         `json:"channel"`
	Type      string         `json:"type"`
	Message   notify.Message `json:"message"`
}

// Send writes the message to disk and reports success.
func (c *Channel) Send(ctx context.Context, msg notify.Message) (*notify.Response, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return nil, notify.NewProviderError(c.name, fmt.Errorf("create directory: %w", err))
	}

	now := time.Now()
	data, err := json.MarshalIndent(dump{
		Timestamp: now.Format(time.RFC3339),
		Channel:   c.name,
		Type:      string(msg.MessageType()),
		Message:   msg,
	}, "", "  ")
	if err != nil {
		return nil, notify.NewValidationError("dev: marshal message: %v", err)
	}

	id := uuid.New().String()
	filename := fmt.Sprintf("%s_%s.json", now.Format("2006_01_02_150405"), sanitizeFilename(c.name))
	if err := os.WriteFile(filepath.Join(c.dir, filename), data, 0o644); err != nil {
		return nil, notify.NewProviderError(c.name, fmt.Errorf("write file: %w", err))
	}

	return &notify.Response{
		Success:   true,
		Status:    notify.StatusSent,
		MessageID: id,
		SentAt:    now,
	}, nil
}

var sanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = sanitizeRegex.ReplaceAllString(s, "")
	if s == "" {
		s = "message"
	}
	return strings.ToLower(s)
}
