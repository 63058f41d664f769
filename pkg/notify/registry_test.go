package notify_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/notify"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	t.Run("case insensitive lookup", func(t *testing.T) {
		t.Parallel()
		r := notify.NewRegistry(false, testLogger())
		r.Register("Email", &stubChannel{name: "Email", typ: notify.TypeEmail, ready: true}, 0)

		ch, err := r.Get("EMAIL")
		require.NoError(t, err)
		assert.Equal(t, "Email", ch.Name())
		assert.True(t, r.Has("  email  "))
	})

	t.Run("replaces duplicate name", func(t *testing.T) {
		t.Parallel()
		r := notify.NewRegistry(false, testLogger())
		r.Register("email", &stubChannel{name: "first", typ: notify.TypeEmail, ready: true}, 0)
		r.Register("EMAIL", &stubChannel{name: "second", typ: notify.TypeEmail, ready: true}, 0)

		assert.Equal(t, 1, r.Len())
		ch, err := r.Get("email")
		require.NoError(t, err)
		assert.Equal(t, "second", ch.Name())
	})

	t.Run("ignores nil channel and empty name", func(t *testing.T) {
		t.Parallel()
		r := notify.NewRegistry(false, testLogger())
		r.Register("", &stubChannel{name: "x", ready: true}, 0)
		r.Register("email", nil, 0)
		assert.Equal(t, 0, r.Len())
	})
}

func TestRegistry_Get(t *testing.T) {
	t.Parallel()

	r := notify.NewRegistry(false, testLogger())
	r.Register("email", &stubChannel{name: "email", typ: notify.TypeEmail, ready: true}, 0)
	r.Register("sms", &stubChannel{name: "sms", typ: notify.TypeSMS, ready: false}, 0)

	t.Run("unknown name", func(t *testing.T) {
		t.Parallel()
		_, err := r.Get("push")
		assert.Equal(t, notify.CodeChannelNotFound, notify.CodeOf(err))
	})

	t.Run("registered but unready", func(t *testing.T) {
		t.Parallel()
		_, err := r.Get("sms")
		assert.Equal(t, notify.CodeChannelNotReady, notify.CodeOf(err))
	})

	t.Run("ready channel", func(t *testing.T) {
		t.Parallel()
		ch, err := r.Get("email")
		require.NoError(t, err)
		assert.Equal(t, notify.TypeEmail, ch.Type())
	})
}

func TestRegistry_Default(t *testing.T) {
	t.Parallel()

	t.Run("empty registry", func(t *testing.T) {
		t.Parallel()
		r := notify.NewRegistry(false, testLogger())
		_, err := r.Default()
		assert.Equal(t, notify.CodeConfiguration, notify.CodeOf(err))
		assert.Empty(t, r.DefaultName())
	})

	t.Run("falls back to first registered", func(t *testing.T) {
		t.Parallel()
		r := notify.NewRegistry(false, testLogger())
		r.Register("sms", &stubChannel{name: "sms", typ: notify.TypeSMS, ready: true}, 1)
		r.Register("email", &stubChannel{name: "email", typ: notify.TypeEmail, ready: true}, 10)

		assert.Equal(t, "sms", r.DefaultName())
	})

	t.Run("explicit default wins", func(t *testing.T) {
		t.Parallel()
		r := notify.NewRegistry(false, testLogger())
		r.Register("sms", &stubChannel{name: "sms", typ: notify.TypeSMS, ready: true}, 0)
		r.Register("email", &stubChannel{name: "email", typ: notify.TypeEmail, ready: true}, 0)

		require.NoError(t, r.SetDefault("EMAIL"))
		assert.Equal(t, "email", r.DefaultName())

		ch, err := r.Default()
		require.NoError(t, err)
		assert.Equal(t, "email", ch.Name())
	})

	t.Run("unregistered default rejected", func(t *testing.T) {
		t.Parallel()
		r := notify.NewRegistry(false, testLogger())
		err := r.SetDefault("push")
		assert.Equal(t, notify.CodeChannelNotFound, notify.CodeOf(err))
	})
}

func TestRegistry_Sorted(t *testing.T) {
	t.Parallel()

	r := notify.NewRegistry(false, testLogger())
	r.Register("a", &stubChannel{name: "a", ready: true}, 5)
	r.Register("b", &stubChannel{name: "b", ready: true}, 1)
	r.Register("c", &stubChannel{name: "c", ready: true}, 5)
	r.Register("d", &stubChannel{name: "d", ready: true}, 2)

	var order []string
	for _, ch := range r.Sorted() {
		order = append(order, ch.Name())
	}

	// Priority descending; equal priorities keep registration order.
	assert.Equal(t, []string{"a", "c", "d", "b"}, order)
}

func TestRegistry_ResolveWithFallback(t *testing.T) {
	t.Parallel()

	t.Run("preferred channel ready", func(t *testing.T) {
		t.Parallel()
		r := notify.NewRegistry(true, testLogger())
		r.Register("email", &stubChannel{name: "email", typ: notify.TypeEmail, ready: true}, 0)
		r.Register("sms", &stubChannel{name: "sms", typ: notify.TypeSMS, ready: true}, 10)

		ch, err := r.ResolveWithFallback("email")
		require.NoError(t, err)
		assert.Equal(t, "email", ch.Name())
	})

	t.Run("fallback disabled surfaces the failure", func(t *testing.T) {
		t.Parallel()
		r := notify.NewRegistry(false, testLogger())
		r.Register("sms", &stubChannel{name: "sms", typ: notify.TypeSMS, ready: false}, 0)

		_, err := r.ResolveWithFallback("sms")
		assert.Equal(t, notify.CodeChannelNotReady, notify.CodeOf(err))
	})

	t.Run("unready preferred falls back to default", func(t *testing.T) {
		t.Parallel()
		r := notify.NewRegistry(true, testLogger())
		r.Register("sms", &stubChannel{name: "sms", typ: notify.TypeSMS, ready: false}, 10)
		r.Register("email", &stubChannel{name: "email", typ: notify.TypeEmail, ready: true}, 0)
		require.NoError(t, r.SetDefault("email"))

		ch, err := r.ResolveWithFallback("sms")
		require.NoError(t, err)
		assert.Equal(t, "email", ch.Name())
	})

	t.Run("scan picks highest priority ready channel", func(t *testing.T) {
		t.Parallel()
		r := notify.NewRegistry(true, testLogger())
		r.Register("sms", &stubChannel{name: "sms", typ: notify.TypeSMS, ready: false}, 100)
		r.Register("push", &stubChannel{name: "push", typ: notify.TypePush, ready: true}, 5)
		r.Register("slack", &stubChannel{name: "slack", typ: notify.TypeSlack, ready: true}, 50)
		require.NoError(t, r.SetDefault("sms"))

		ch, err := r.ResolveWithFallback("sms")
		require.NoError(t, err)
		assert.Equal(t, "slack", ch.Name())
	})

	t.Run("nothing ready returns nil nil", func(t *testing.T) {
		t.Parallel()
		r := notify.NewRegistry(true, testLogger())
		r.Register("sms", &stubChannel{name: "sms", typ: notify.TypeSMS, ready: false}, 0)
		r.Register("email", &stubChannel{name: "email", typ: notify.TypeEmail, ready: false}, 0)

		ch, err := r.ResolveWithFallback("sms")
		assert.NoError(t, err)
		assert.Nil(t, ch)
	})
}

func TestRegistry_ConcurrentMutationDuringSends(t *testing.T) {
	t.Parallel()

	email := &stubChannel{name: "email", typ: notify.TypeEmail, ready: true}
	m, err := notify.New(notify.Config{EnableFallback: true},
		notify.WithLogger(testLogger()),
		notify.WithChannel(email, 100),
	)
	require.NoError(t, err)

	const workers = 8
	const iterations = 50

	var wg sync.WaitGroup

	// Churn the registry while sends are in flight.
	for i := 0; i < workers; i++ {
		name := fmt.Sprintf("sms-%d", i)
		priority := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				m.Registry().Register(name, &stubChannel{name: name, typ: notify.TypeSMS, ready: true}, priority)
				m.Registry().Sorted()
				m.Registry().Remove(name)
			}
		}()
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				report, err := m.Send(context.Background(), emailNotification(), emailRoutes())
				require.NoError(t, err)
				require.True(t, report.AllSucceeded())
			}
		}()
	}

	wg.Wait()

	// The stable channel survived the churn and served every send.
	assert.Equal(t, workers*iterations, email.sentCount())
	assert.True(t, m.Registry().Has("email"))
}

func TestRegistry_FactoryConfiguration(t *testing.T) {
	t.Parallel()

	t.Run("enabled setting instantiates through factory", func(t *testing.T) {
		t.Parallel()
		r := notify.NewRegistry(false, testLogger())
		r.Configure(notify.ChannelSetting{
			Name:     "email",
			Enabled:  true,
			Priority: 3,
			Config:   notify.ChannelConfig{APIKey: "key"},
		})
		r.RegisterFactory("email", func(cfg notify.ChannelConfig) (notify.Channel, error) {
			return &stubChannel{name: "email", typ: notify.TypeEmail, ready: cfg.APIKey != ""}, nil
		})

		ch, err := r.Get("email")
		require.NoError(t, err)
		assert.True(t, ch.Ready())
	})

	t.Run("disabled setting is not instantiated", func(t *testing.T) {
		t.Parallel()
		r := notify.NewRegistry(false, testLogger())
		r.RegisterFactory("email", func(cfg notify.ChannelConfig) (notify.Channel, error) {
			return &stubChannel{name: "email", typ: notify.TypeEmail, ready: true}, nil
		})
		r.Configure(notify.ChannelSetting{Name: "email", Enabled: false})

		assert.False(t, r.Has("email"))
	})

	t.Run("failing factory is skipped", func(t *testing.T) {
		t.Parallel()
		r := notify.NewRegistry(false, testLogger())
		r.RegisterFactory("email", func(cfg notify.ChannelConfig) (notify.Channel, error) {
			return nil, errors.New("no credentials")
		})
		r.Configure(notify.ChannelSetting{Name: "email", Enabled: true})

		assert.False(t, r.Has("email"))
	})
}

func TestRegistry_RemoveAndClear(t *testing.T) {
	t.Parallel()

	r := notify.NewRegistry(false, testLogger())
	r.Register("email", &stubChannel{name: "email", typ: notify.TypeEmail, ready: true}, 0)
	r.Register("sms", &stubChannel{name: "sms", typ: notify.TypeSMS, ready: true}, 0)
	require.NoError(t, r.SetDefault("email"))

	r.Remove("EMAIL")
	assert.False(t, r.Has("email"))
	// Removing the default channel clears it; the first survivor takes over.
	assert.Equal(t, "sms", r.DefaultName())
	assert.Equal(t, []string{"sms"}, r.Names())

	r.Clear()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.DefaultName())
}
