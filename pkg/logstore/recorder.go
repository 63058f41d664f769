package logstore

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/events"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notify"
)

// Recorder persists delivery outcomes by listening to the manager's
// lifecycle events, keeping storage off the send's critical path.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithRecorderLogger sets the logger for persistence failures.
func WithRecorderLogger(l *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRecorder creates a recorder writing to the given store.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Attach subscribes the recorder to Sent and Failed events on the
// dispatcher. Listener errors are logged by the dispatcher, never
// surfaced to the sender.
func (r *Recorder) Attach(d *events.Dispatcher) {
	d.On(notify.EventSent, r.onSent)
	d.On(notify.EventFailed, r.onFailed)
}

func (r *Recorder) onSent(ctx context.Context, e events.Event) error {
	sent, ok := e.(notify.SentEvent)
	if !ok {
		return nil
	}

	for channel, resp := range sent.Report {
		rec := Record{
			ID:             uuid.New().String(),
			NotificationID: sent.NotificationID,
			Reference:      sent.Reference,
			Channel:        channel,
			ChannelName:    resp.ChannelName,
			Status:         resp.Status,
			Success:        resp.Success,
			MessageID:      resp.MessageID,
			SentAt:         resp.SentAt,
			CreatedAt:      time.Now(),
		}
		if resp.Err != nil {
			rec.ErrorCode = string(resp.Err.Code)
			rec.ErrorMessage = resp.Err.Message
		}
		if err := r.store.Log(ctx, rec); err != nil {
			r.logger.LogAttrs(ctx, slog.LevelWarn, "failed to persist delivery record",
				logger.NotificationID(sent.NotificationID),
				logger.Channel(string(channel)),
				logger.Error(err),
			)
		}
	}
	return nil
}

func (r *Recorder) onFailed(ctx context.Context, e events.Event) error {
	failed, ok := e.(notify.FailedEvent)
	if !ok {
		return nil
	}

	rec := Record{
		ID:             uuid.New().String(),
		NotificationID: failed.NotificationID,
		Reference:      failed.Reference,
		Channel:        failed.FailedChannel,
		Status:         notify.StatusFailed,
		Success:        false,
		SentAt:         time.Now(),
		CreatedAt:      time.Now(),
	}
	if failed.Err != nil {
		rec.ErrorCode = string(notify.CodeOf(failed.Err))
		rec.ErrorMessage = failed.Err.Error()
	}
	if err := r.store.Log(ctx, rec); err != nil {
		r.logger.LogAttrs(ctx, slog.LevelWarn, "failed to persist delivery record",
			logger.NotificationID(failed.NotificationID),
			logger.Channel(string(failed.FailedChannel)),
			logger.Error(err),
		)
	}
	return nil
}
