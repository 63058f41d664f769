package logstore

import (
	"context"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/notify"
)

// Record is one persisted channel delivery attempt.
type Record struct {
	ID             string             `json:"id"`
	NotificationID string             `json:"notification_id"`
	Reference      string             `json:"reference,omitempty"`
	Channel        notify.ChannelType `json:"channel"`
	ChannelName    string             `json:"channel_name,omitempty"`
	Status         notify.Status      `json:"status"`
	Success        bool               `json:"success"`
	MessageID      string             `json:"message_id,omitempty"`
	ErrorCode      string             `json:"error_code,omitempty"`
	ErrorMessage   string             `json:"error_message,omitempty"`
	SentAt         time.Time          `json:"sent_at"`
	CreatedAt      time.Time          `json:"created_at"`
}

// Filter narrows Query results. Zero values mean "any".
type Filter struct {
	NotificationID string
	Reference      string
	Channel        notify.ChannelType
	Status         notify.Status
	OnlyFailed     bool
	Since          *time.Time
	Limit          int
	Offset         int
}

// Store persists and queries delivery records. Implementations must be
// safe for concurrent use; the Recorder writes from event listeners.
type Store interface {
	// Log persists one delivery record.
	Log(ctx context.Context, rec Record) error

	// Query returns records matching the filter, newest first.
	Query(ctx context.Context, f Filter) ([]Record, error)
}
