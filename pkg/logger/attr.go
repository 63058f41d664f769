package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

// Channel records the channel name under the key "channel".
func Channel(name string) slog.Attr {
	return slog.String("channel", name)
}

// ChannelType records the channel type under the key "channel_type".
func ChannelType(t string) slog.Attr {
	return slog.String("channel_type", t)
}

// NotificationID records the notification identifier under the key
// "notification_id". If id is empty, it returns an empty Attr.
func NotificationID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("notification_id", id)
}

// Reference records the caller correlation id under the key "reference".
// If ref is empty, it returns an empty Attr.
func Reference(ref string) slog.Attr {
	if ref == "" {
		return slog.Attr{}
	}
	return slog.String("reference", ref)
}

// JobID records the queue job identifier under the key "job_id".
// If id is nil, it returns an empty Attr.
func JobID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("job_id", id)
}

// Event records the event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// RetryCount records the retry count under the key "retry_count".
func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
