package notify

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// registration pairs a channel with the declaration metadata that drives
// fallback ordering.
type registration struct {
	channel  Channel
	priority int
	order    int // registration sequence, breaks priority ties
}

// Registry is the single source of truth for which channels exist, their
// priority and the default-selection behavior. All maps are guarded by a
// reader/writer lock so concurrent sends stay safe against registry
// mutation from another goroutine.
type Registry struct {
	mu          sync.RWMutex
	channels    map[string]*registration
	factories   map[string]Factory
	settings    map[string]ChannelSetting
	names       []string // registration order of live channels
	defaultName string
	fallback    bool
	seq         int
	logger      *slog.Logger
}

// NewRegistry creates an empty registry. Fallback substitution is
// controlled by enableFallback; the logger records swallowed
// construction and fallback-scan errors.
func NewRegistry(enableFallback bool, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		channels:  make(map[string]*registration),
		factories: make(map[string]Factory),
		settings:  make(map[string]ChannelSetting),
		fallback:  enableFallback,
		logger:    logger,
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// FallbackEnabled reports whether the registry substitutes alternate
// channels when the requested one is unavailable.
func (r *Registry) FallbackEnabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

// Register adds a channel instance under its declared name, replacing any
// prior registration with the same case-insensitive name.
func (r *Registry) Register(name string, ch Channel, priority int) {
	key := normalizeName(name)
	if key == "" || ch == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.channels[key]; !exists {
		r.names = append(r.names, key)
	}
	r.seq++
	r.channels[key] = &registration{channel: ch, priority: priority, order: r.seq}
}

// RegisterFactory stores a channel constructor keyed by name. When an
// enabled setting for the same name was supplied at construction, the
// channel is instantiated immediately; a failing constructor is logged and
// skipped so one bad channel does not prevent startup.
func (r *Registry) RegisterFactory(name string, factory Factory) {
	key := normalizeName(name)
	if key == "" || factory == nil {
		return
	}

	r.mu.Lock()
	r.factories[key] = factory
	setting, ok := r.settings[key]
	r.mu.Unlock()

	if !ok || !setting.Enabled {
		return
	}

	ch, err := factory(setting.Config)
	if err != nil {
		r.logger.LogAttrs(context.Background(), slog.LevelWarn, "channel construction failed, skipping",
			slog.String("channel", key),
			slog.String("error", err.Error()),
		)
		return
	}
	r.Register(key, ch, setting.Priority)
}

// Configure stores a channel setting and, when a factory for the name is
// already registered and the setting is enabled, instantiates the channel.
func (r *Registry) Configure(setting ChannelSetting) {
	key := normalizeName(setting.Name)
	if key == "" {
		return
	}

	r.mu.Lock()
	r.settings[key] = setting
	factory, ok := r.factories[key]
	r.mu.Unlock()

	if !ok || !setting.Enabled {
		return
	}

	ch, err := factory(setting.Config)
	if err != nil {
		r.logger.LogAttrs(context.Background(), slog.LevelWarn, "channel construction failed, skipping",
			slog.String("channel", key),
			slog.String("error", err.Error()),
		)
		return
	}
	r.Register(key, ch, setting.Priority)
}

// Get returns the channel registered under name. It fails with
// CHANNEL_NOT_FOUND for unknown names and CHANNEL_NOT_READY when the
// channel is registered but unusable.
func (r *Registry) Get(name string) (Channel, error) {
	key := normalizeName(name)

	r.mu.RLock()
	reg, ok := r.channels[key]
	r.mu.RUnlock()

	if !ok {
		return nil, NewChannelNotFoundError(name)
	}
	if !reg.channel.Ready() {
		return nil, NewChannelNotReadyError(name)
	}
	return reg.channel, nil
}

// Has reports whether a channel is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.channels[normalizeName(name)]
	return ok
}

// SetDefault marks a registered channel as the default. It fails with
// CHANNEL_NOT_FOUND when the name is unregistered.
func (r *Registry) SetDefault(name string) error {
	key := normalizeName(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.channels[key]; !ok {
		return NewChannelNotFoundError(name)
	}
	r.defaultName = key
	return nil
}

// Default returns the configured default channel, falling back to the
// first registered channel. An empty registry fails with a
// CONFIGURATION_ERROR.
func (r *Registry) Default() (Channel, error) {
	r.mu.RLock()
	name := r.defaultName
	if name == "" && len(r.names) > 0 {
		name = r.names[0]
	}
	r.mu.RUnlock()

	if name == "" {
		return nil, NewConfigurationError("no default channel: registry is empty")
	}
	return r.Get(name)
}

// DefaultName returns the effective default channel name, or "" when the
// registry is empty.
func (r *Registry) DefaultName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.defaultName != "" {
		return r.defaultName
	}
	if len(r.names) > 0 {
		return r.names[0]
	}
	return ""
}

// Sorted returns all registered channels ordered by priority descending,
// with ties broken by registration order.
func (r *Registry) Sorted() []Channel {
	r.mu.RLock()
	regs := make([]*registration, 0, len(r.channels))
	for _, reg := range r.channels {
		regs = append(regs, reg)
	}
	r.mu.RUnlock()

	sort.SliceStable(regs, func(i, j int) bool {
		if regs[i].priority != regs[j].priority {
			return regs[i].priority > regs[j].priority
		}
		return regs[i].order < regs[j].order
	})

	out := make([]Channel, len(regs))
	for i, reg := range regs {
		out[i] = reg.channel
	}
	return out
}

// Names returns the registered channel names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// ResolveWithFallback picks the channel for one delivery slot:
//
//  1. The preferred channel, when given and ready. With fallback disabled
//     its failure is returned as-is; with fallback enabled the failure is
//     logged and the scan continues.
//  2. The default channel, when it differs from the preferred one, with
//     the same try/continue logic.
//  3. With fallback enabled, the remaining channels in priority-descending
//     order, skipping the preferred and default names, first ready one wins.
//
// When fallback is enabled and nothing is ready it returns (nil, nil): the
// caller decides whether absence is fatal.
func (r *Registry) ResolveWithFallback(preferred string) (Channel, error) {
	r.mu.RLock()
	fallback := r.fallback
	r.mu.RUnlock()

	preferredKey := normalizeName(preferred)
	if preferredKey != "" {
		ch, err := r.Get(preferredKey)
		if err == nil {
			return ch, nil
		}
		if !fallback {
			return nil, err
		}
		r.logger.LogAttrs(context.Background(), slog.LevelDebug, "preferred channel unavailable, scanning fallbacks",
			slog.String("channel", preferredKey),
			slog.String("error", err.Error()),
		)
	}

	defaultKey := r.DefaultName()
	if defaultKey != "" && defaultKey != preferredKey {
		ch, err := r.Get(defaultKey)
		if err == nil {
			return ch, nil
		}
		if !fallback {
			return nil, err
		}
		r.logger.LogAttrs(context.Background(), slog.LevelDebug, "default channel unavailable, scanning fallbacks",
			slog.String("channel", defaultKey),
			slog.String("error", err.Error()),
		)
	}

	// With fallback disabled the only way to get here is an empty registry:
	// any preferred/default failure above was already returned as-is.
	if !fallback {
		return nil, NewConfigurationError("no default channel: registry is empty")
	}

	for _, ch := range r.Sorted() {
		key := normalizeName(ch.Name())
		if key == preferredKey || key == defaultKey {
			continue
		}
		if ch.Ready() {
			return ch, nil
		}
	}

	return nil, nil
}

// Remove deregisters one channel along with its factory and setting,
// clearing the default when it pointed at the removed channel.
func (r *Registry) Remove(name string) {
	key := normalizeName(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels, key)
	delete(r.factories, key)
	delete(r.settings, key)
	for i, n := range r.names {
		if n == key {
			r.names = append(r.names[:i], r.names[i+1:]...)
			break
		}
	}
	if r.defaultName == key {
		r.defaultName = ""
	}
}

// Clear deregisters all channels, factories and settings.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = make(map[string]*registration)
	r.factories = make(map[string]Factory)
	r.settings = make(map[string]ChannelSetting)
	r.names = nil
	r.defaultName = ""
}

// Len returns the number of registered channels.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}
