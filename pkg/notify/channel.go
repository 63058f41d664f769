package notify

import "context"

// ChannelType identifies the kind of endpoint a channel delivers through.
// It is an open string so custom channels are first-class; the constants
// below cover the well-known kinds.
type ChannelType string

const (
	TypeEmail    ChannelType = "email"
	TypeSMS      ChannelType = "sms"
	TypePush     ChannelType = "push"
	TypeInApp    ChannelType = "in-app"
	TypeSlack    ChannelType = "slack"
	TypeWhatsApp ChannelType = "whatsapp"
	TypeTelegram ChannelType = "telegram"
)

// Channel is the contract every provider adapter implements. Construction
// is expected to validate configuration synchronously and fail fast with a
// CONFIGURATION_ERROR when required credentials are absent.
type Channel interface {
	// Name returns the unique channel name. Lookups are case-insensitive.
	Name() string

	// Type returns the kind of messages the channel delivers.
	Type() ChannelType

	// Ready reports whether the channel holds sufficient configuration to
	// send. Unready channels stay registered but are skipped during
	// fallback and raise CHANNEL_NOT_READY when requested explicitly.
	Ready() bool

	// Send delivers one built message. Implementations translate vendor
	// failures into the notify error taxonomy.
	Send(ctx context.Context, msg Message) (*Response, error)
}

// Factory constructs a channel from its provider settings. Factories are
// registered with the Manager and invoked during auto-registration or when
// a matching enabled channel setting exists.
type Factory func(cfg ChannelConfig) (Channel, error)

// ChannelConfig carries opaque provider settings, including credentials.
// Provider packages read the fields they need and ignore the rest.
type ChannelConfig struct {
	APIKey    string            `json:"api_key,omitempty"`
	SecretKey string            `json:"secret_key,omitempty"`
	BaseURL   string            `json:"base_url,omitempty"`
	Timeout   int               `json:"timeout,omitempty"` // seconds, 0 = provider default
	Debug     bool              `json:"debug,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// ChannelSetting declares one channel in the Manager construction config.
type ChannelSetting struct {
	Name     string        `json:"name"`
	Enabled  bool          `json:"enabled"`
	Priority int           `json:"priority"`
	Config   ChannelConfig `json:"config"`
}
