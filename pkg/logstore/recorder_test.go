package logstore_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/events"
	"github.com/dmitrymomot/notifykit/pkg/logstore"
	"github.com/dmitrymomot/notifykit/pkg/notify"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecorder_RecordsSentEvent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := logstore.NewMemoryStore()
	d := events.NewDispatcher(events.WithLogger(quietLogger()))
	logstore.NewRecorder(store, logstore.WithRecorderLogger(quietLogger())).Attach(d)

	d.Dispatch(ctx, notify.SentEvent{
		NotificationID: "n-1",
		Reference:      "order-42",
		Channels:       []notify.ChannelType{notify.TypeEmail, notify.TypeSMS},
		Report: notify.Report{
			notify.TypeEmail: &notify.Response{
				Success:     true,
				Status:      notify.StatusSent,
				Channel:     notify.TypeEmail,
				ChannelName: "email",
				MessageID:   "msg-1",
				SentAt:      time.Now(),
			},
			notify.TypeSMS: &notify.Response{
				Success: false,
				Status:  notify.StatusFailed,
				Channel: notify.TypeSMS,
				Err:     notify.NewChannelNotReadyError("sms"),
			},
		},
	})

	recs, err := store.Query(ctx, logstore.Filter{NotificationID: "n-1"})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	emailRecs, err := store.Query(ctx, logstore.Filter{Channel: notify.TypeEmail})
	require.NoError(t, err)
	require.Len(t, emailRecs, 1)
	assert.True(t, emailRecs[0].Success)
	assert.Equal(t, "msg-1", emailRecs[0].MessageID)
	assert.Equal(t, "order-42", emailRecs[0].Reference)

	failedRecs, err := store.Query(ctx, logstore.Filter{OnlyFailed: true})
	require.NoError(t, err)
	require.Len(t, failedRecs, 1)
	assert.Equal(t, string(notify.CodeChannelNotReady), failedRecs[0].ErrorCode)
}

func TestRecorder_RecordsFailedEvent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := logstore.NewMemoryStore()
	d := events.NewDispatcher(events.WithLogger(quietLogger()))
	logstore.NewRecorder(store, logstore.WithRecorderLogger(quietLogger())).Attach(d)

	d.Dispatch(ctx, notify.FailedEvent{
		NotificationID: "n-2",
		FailedChannel:  notify.TypeEmail,
		Err: &notify.SendError{
			FailedChannel: notify.TypeEmail,
			Failures: map[notify.ChannelType]*notify.Error{
				notify.TypeEmail: notify.NewProviderError("email", nil),
			},
			Attempts: 1,
		},
	})

	recs, err := store.Query(ctx, logstore.Filter{NotificationID: "n-2"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, notify.StatusFailed, recs[0].Status)
	assert.Equal(t, string(notify.CodeSendFailed), recs[0].ErrorCode)
	assert.Equal(t, notify.TypeEmail, recs[0].Channel)
}

func TestRecorder_IgnoresForeignEvents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := logstore.NewMemoryStore()
	d := events.NewDispatcher(events.WithLogger(quietLogger()))
	logstore.NewRecorder(store, logstore.WithRecorderLogger(quietLogger())).Attach(d)

	// Sending events are not persisted; only settled outcomes are.
	d.Dispatch(ctx, notify.SendingEvent{NotificationID: "n-3"})

	recs, err := store.Query(ctx, logstore.Filter{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}
