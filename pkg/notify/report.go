package notify

import "time"

// Status is the delivery state of one channel attempt.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
	StatusRead      Status = "read"
)

// Response is the per-channel outcome of one send. Channel adapters return
// it on success; the Manager synthesizes failed responses for attempts
// that errored.
type Response struct {
	Success        bool        `json:"success"`
	Status         Status      `json:"status"`
	Channel        ChannelType `json:"channel"`
	ChannelName    string      `json:"channel_name,omitempty"`
	MessageID      string      `json:"message_id,omitempty"`
	NotificationID string      `json:"notification_id,omitempty"`
	SentAt         time.Time   `json:"sent_at"`
	Err            *Error      `json:"error,omitempty"`
}

// Report maps each declared channel to its response. Best-effort sends
// always return a complete report; all-or-nothing sends return one only
// when every channel succeeded.
type Report map[ChannelType]*Response

// Get returns the response for a channel, or nil when absent.
func (r Report) Get(channel ChannelType) *Response { return r[channel] }

// Succeeded lists channels that delivered successfully.
func (r Report) Succeeded() []ChannelType {
	var out []ChannelType
	for ch, resp := range r {
		if resp.Success {
			out = append(out, ch)
		}
	}
	return out
}

// Failed lists channels whose attempt failed.
func (r Report) Failed() []ChannelType {
	var out []ChannelType
	for ch, resp := range r {
		if !resp.Success {
			out = append(out, ch)
		}
	}
	return out
}

// AllSucceeded reports whether every channel attempt succeeded.
func (r Report) AllSucceeded() bool {
	for _, resp := range r {
		if !resp.Success {
			return false
		}
	}
	return true
}
