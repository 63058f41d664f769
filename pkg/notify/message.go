package notify

// Message is a channel-specific delivery request produced by a
// notification builder. Each concrete message reports the channel type it
// targets so adapters can reject mismatched payloads early.
type Message interface {
	MessageType() ChannelType
}

// EmailMessage is the request shape for email channels.
type EmailMessage struct {
	To       []Address `json:"to"`
	Subject  string    `json:"subject"`
	BodyHTML string    `json:"body_html,omitempty"`
	BodyText string    `json:"body_text,omitempty"`
	Tag      string    `json:"tag,omitempty"`
}

func (EmailMessage) MessageType() ChannelType { return TypeEmail }

// SMSMessage is the request shape for SMS channels.
type SMSMessage struct {
	To   []Address `json:"to"`
	Body string    `json:"body"`
	From string    `json:"from,omitempty"`
}

func (SMSMessage) MessageType() ChannelType { return TypeSMS }

// PushMessage is the request shape for push channels. Addresses carry
// device tokens.
type PushMessage struct {
	To    []Address         `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

func (PushMessage) MessageType() ChannelType { return TypePush }

// InAppMessage is the request shape for in-app channels. Addresses carry
// user IDs.
type InAppMessage struct {
	To      []Address         `json:"to"`
	Title   string            `json:"title"`
	Body    string            `json:"body"`
	Data    map[string]string `json:"data,omitempty"`
	Actions []InAppAction     `json:"actions,omitempty"`
}

func (InAppMessage) MessageType() ChannelType { return TypeInApp }

// InAppAction is a call-to-action attached to an in-app message.
type InAppAction struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// SlackMessage is the request shape for Slack channels. The address value
// names the target Slack channel; Text is mrkdwn.
type SlackMessage struct {
	To   []Address `json:"to"`
	Text string    `json:"text"`
}

func (SlackMessage) MessageType() ChannelType { return TypeSlack }

// WhatsAppMessage is the request shape for WhatsApp channels.
type WhatsAppMessage struct {
	To       []Address `json:"to"`
	Body     string    `json:"body"`
	MediaURL string    `json:"media_url,omitempty"`
}

func (WhatsAppMessage) MessageType() ChannelType { return TypeWhatsApp }

// RawMessage carries an arbitrary payload for custom channel types.
type RawMessage struct {
	Type    ChannelType       `json:"type"`
	To      []Address         `json:"to"`
	Body    string            `json:"body"`
	Payload map[string]string `json:"payload,omitempty"`
}

func (m RawMessage) MessageType() ChannelType { return m.Type }
