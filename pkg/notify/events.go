package notify

// Lifecycle event names dispatched by the Manager. Each is fired at most
// once per Send invocation.
const (
	EventSending = "notification.sending"
	EventSent    = "notification.sent"
	EventFailed  = "notification.failed"
)

// SendingEvent fires before any channel attempt starts.
type SendingEvent struct {
	NotificationID string
	Reference      string
	Priority       Priority
	Channels       []ChannelType
}

func (SendingEvent) EventName() string { return EventSending }

// SentEvent fires when a send completes: after full success under
// all-or-nothing, or after dispatch settles under best-effort (the report
// may then mix successes and failures).
type SentEvent struct {
	NotificationID string
	Reference      string
	Priority       Priority
	Channels       []ChannelType
	Report         Report
}

func (SentEvent) EventName() string { return EventSent }

// FailedEvent fires when an all-or-nothing send is aborted, or when a
// best-effort send could not start at all.
type FailedEvent struct {
	NotificationID string
	Reference      string
	Priority       Priority
	Channels       []ChannelType
	FailedChannel  ChannelType
	Err            error
}

func (FailedEvent) EventName() string { return EventFailed }
