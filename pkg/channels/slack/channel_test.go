package slack_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/channels/slack"
	"github.com/dmitrymomot/notifykit/pkg/notify"
)

type capturedPost struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

func newWebhookServer(t *testing.T, status int) (*httptest.Server, func() []capturedPost) {
	t.Helper()

	var mu sync.Mutex
	var posts []capturedPost
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var p capturedPost
		require.NoError(t, json.Unmarshal(body, &p))
		mu.Lock()
		posts = append(posts, p)
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []capturedPost {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedPost(nil), posts...)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires webhook url", func(t *testing.T) {
		t.Parallel()
		_, err := slack.New("alerts", slack.Config{})
		assert.Equal(t, notify.CodeConfiguration, notify.CodeOf(err))
	})

	t.Run("defaults the name", func(t *testing.T) {
		t.Parallel()
		ch, err := slack.New("", slack.Config{WebhookURL: "https://hooks.slack.example/x"})
		require.NoError(t, err)
		assert.Equal(t, "slack", ch.Name())
		assert.Equal(t, notify.TypeSlack, ch.Type())
		assert.True(t, ch.Ready())
	})
}

func TestChannel_Send(t *testing.T) {
	t.Parallel()

	t.Run("posts once per target channel", func(t *testing.T) {
		t.Parallel()
		srv, posts := newWebhookServer(t, http.StatusOK)
		ch, err := slack.New("alerts", slack.Config{WebhookURL: srv.URL})
		require.NoError(t, err)

		resp, err := ch.Send(context.Background(), notify.SlackMessage{
			To:   []notify.Address{notify.Addr("#ops"), notify.Addr("#oncall")},
			Text: "deploy finished",
		})
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, notify.StatusSent, resp.Status)

		got := posts()
		require.Len(t, got, 2)
		assert.Equal(t, "#ops", got[0].Channel)
		assert.Equal(t, "#oncall", got[1].Channel)
		assert.Equal(t, "deploy finished", got[0].Text)
	})

	t.Run("empty address list uses default channel", func(t *testing.T) {
		t.Parallel()
		srv, posts := newWebhookServer(t, http.StatusOK)
		ch, err := slack.New("alerts", slack.Config{WebhookURL: srv.URL})
		require.NoError(t, err)

		_, err = ch.Send(context.Background(), notify.SlackMessage{Text: "hello"})
		require.NoError(t, err)

		got := posts()
		require.Len(t, got, 1)
		assert.Empty(t, got[0].Channel)
	})

	t.Run("webhook failure becomes provider error", func(t *testing.T) {
		t.Parallel()
		srv, _ := newWebhookServer(t, http.StatusInternalServerError)
		ch, err := slack.New("alerts", slack.Config{WebhookURL: srv.URL})
		require.NoError(t, err)

		_, err = ch.Send(context.Background(), notify.SlackMessage{Text: "hello"})
		require.Error(t, err)
		assert.Equal(t, notify.CodeProvider, notify.CodeOf(err))

		taxErr := notify.AsError(err)
		assert.Equal(t, http.StatusInternalServerError, taxErr.Details["status_code"])
	})

	t.Run("rejects wrong message type", func(t *testing.T) {
		t.Parallel()
		ch, err := slack.New("alerts", slack.Config{WebhookURL: "https://hooks.slack.example/x"})
		require.NoError(t, err)

		_, err = ch.Send(context.Background(), notify.EmailMessage{Subject: "x"})
		assert.Equal(t, notify.CodeInvalidRequest, notify.CodeOf(err))
	})

	t.Run("rejects empty text", func(t *testing.T) {
		t.Parallel()
		ch, err := slack.New("alerts", slack.Config{WebhookURL: "https://hooks.slack.example/x"})
		require.NoError(t, err)

		_, err = ch.Send(context.Background(), notify.SlackMessage{})
		assert.Equal(t, notify.CodeInvalidRequest, notify.CodeOf(err))
	})
}

func TestFactory(t *testing.T) {
	t.Parallel()

	ch, err := slack.Factory("alerts")(notify.ChannelConfig{BaseURL: "https://hooks.slack.example/x"})
	require.NoError(t, err)
	assert.Equal(t, "alerts", ch.Name())
	assert.True(t, ch.Ready())

	_, err = slack.Factory("alerts")(notify.ChannelConfig{})
	assert.Equal(t, notify.CodeConfiguration, notify.CodeOf(err))
}
