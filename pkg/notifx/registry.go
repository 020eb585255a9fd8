package notifx

import (
	"sync"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/logx"
)

// Factory builds a provider. It returns an error when the provider is not configured.
type Factory func() (Provider, error)

// Registry maps channels to provider factories. Providers are resolved once,
// at startup, into a Dispatcher.
type Registry struct {
	factories map[Channel]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Channel]Factory)}
}

// Register adds or replaces the factory for a channel.
func (r *Registry) Register(ch Channel, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[ch] = f
}

// Build resolves a single channel into a provider.
func (r *Registry) Build(ch Channel) (Provider, error) {
	r.mu.RLock()
	f, ok := r.factories[ch]
	r.mu.RUnlock()

	if !ok {
		return nil, notifxErrors.New(ErrUnknownChannel).WithDetail("channel", string(ch))
	}
	return f()
}

// BuildDispatcher resolves the primary and fallback channels. A primary that
// cannot be built falls back to the console provider so OTPs stay usable in
// development; a fallback that cannot be built is dropped.
func (r *Registry) BuildDispatcher(primary, fallback Channel, timeout time.Duration) (*Dispatcher, error) {
	p, err := r.Build(primary)
	if err != nil {
		logx.WithError(err).Warnf("notifx: primary provider %q unavailable, using console", primary)
		if p, err = r.Build(ChannelConsole); err != nil {
			return nil, err
		}
	}

	var fb Provider
	if fallback != ChannelNone && fallback != "" && fallback != primary {
		fb, err = r.Build(fallback)
		if err != nil {
			logx.WithError(err).Warnf("notifx: fallback provider %q unavailable, continuing without fallback", fallback)
			fb = nil
		}
	}

	d := NewDispatcher(p, fb, timeout)
	logx.WithFields(logx.Fields{
		"primary":  d.PrimaryName(),
		"fallback": d.FallbackName(),
	}).Info("notifx: OTP delivery configured")
	return d, nil
}
