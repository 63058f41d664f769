package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routesOnlyUser struct {
	routes Routes
}

func (u *routesOnlyUser) NotificationRoutes(channel ChannelType) []Address {
	return u.routes[channel]
}

func TestResolveAddresses(t *testing.T) {
	t.Parallel()

	user := &routesOnlyUser{
		routes: Routes{}.Add(TypeEmail, Addr("from-user@example.com")),
	}

	t.Run("explicit map wins over notifiable", func(t *testing.T) {
		t.Parallel()
		routes := Routes{}.Add(TypeEmail, Addr("explicit@example.com"))
		addrs, err := resolveAddresses(TypeEmail, routes, user)
		require.NoError(t, err)
		require.Len(t, addrs, 1)
		assert.Equal(t, "explicit@example.com", addrs[0].Value)
	})

	t.Run("falls back to notifiable", func(t *testing.T) {
		t.Parallel()
		addrs, err := resolveAddresses(TypeEmail, Routes{}, user)
		require.NoError(t, err)
		require.Len(t, addrs, 1)
		assert.Equal(t, "from-user@example.com", addrs[0].Value)
	})

	t.Run("empty explicit entry defers to notifiable", func(t *testing.T) {
		t.Parallel()
		routes := Routes{TypeEmail: nil}
		addrs, err := resolveAddresses(TypeEmail, routes, user)
		require.NoError(t, err)
		assert.Equal(t, "from-user@example.com", addrs[0].Value)
	})

	t.Run("no source yields invalid recipient", func(t *testing.T) {
		t.Parallel()
		_, err := resolveAddresses(TypeSMS, Routes{}, user)
		assert.Equal(t, CodeInvalidRecipient, CodeOf(err))
	})
}

func TestRoutes_Add(t *testing.T) {
	t.Parallel()

	routes := Routes{}.
		Add(TypeEmail, Addr("a@example.com")).
		Add(TypeEmail, NamedAddr("b@example.com", "B")).
		Add(TypeSMS, Addr("+15550001111"))

	require.Len(t, routes[TypeEmail], 2)
	assert.Equal(t, "B", routes[TypeEmail][1].Name)
	assert.Len(t, routes[TypeSMS], 1)
}
