package notify

// Address is a channel-specific destination: an email address, phone
// number, device token, user ID or webhook target, with an optional
// display name.
type Address struct {
	Value string `json:"value"`
	Name  string `json:"name,omitempty"`
}

// Addr builds a bare address.
func Addr(value string) Address { return Address{Value: value} }

// NamedAddr builds an address with a display name.
func NamedAddr(value, name string) Address { return Address{Value: value, Name: name} }

// Routes maps a channel type to one or more destinations for a single
// logical recipient.
type Routes map[ChannelType][]Address

// Add appends addresses for a channel and returns the map for chaining.
func (r Routes) Add(channel ChannelType, addrs ...Address) Routes {
	r[channel] = append(r[channel], addrs...)
	return r
}

// Notifiable is an entity that can resolve its own address for a channel
// type. Returning an empty slice means the entity has no route for that
// channel.
type Notifiable interface {
	NotificationRoutes(channel ChannelType) []Address
}

// resolveAddresses picks the destinations for one channel: the explicit
// routing map wins, then the notifiable's own routes. It fails with
// INVALID_RECIPIENT when neither yields an address.
func resolveAddresses(channel ChannelType, routes Routes, notifiable Notifiable) ([]Address, error) {
	if routes != nil {
		if addrs, ok := routes[channel]; ok && len(addrs) > 0 {
			return addrs, nil
		}
	}
	if notifiable != nil {
		if addrs := notifiable.NotificationRoutes(channel); len(addrs) > 0 {
			return addrs, nil
		}
	}
	return nil, NewInvalidRecipientError(channel)
}
