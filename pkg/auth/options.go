package auth

import (
	"log/slog"
	"time"

	"github.com/crossapp/crossapp-go/pkg/events"
	"github.com/crossapp/crossapp-go/pkg/store"
)

// Option is a functional option for configuring the Manager.
type Option func(*Manager)

// WithStore sets a custom session store.
func WithStore(s store.Store) Option {
	return func(m *Manager) {
		if s != nil {
			m.store = s
		}
	}
}

// WithBus sets a custom event bus.
func WithBus(bus *events.Bus) Option {
	return func(m *Manager) {
		if bus != nil {
			m.bus = bus
		}
	}
}

// WithClock sets a custom clock, primarily for tests.
func WithClock(clock Clock) Option {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithRefreshLead sets how long before token expiry the proactive refresh
// fires. Default is 5 minutes.
func WithRefreshLead(lead time.Duration) Option {
	return func(m *Manager) {
		if lead > 0 {
			m.refreshLead = lead
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}
