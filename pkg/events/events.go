package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/crossapp/crossapp-go/pkg/logger"
)

// Type identifies an auth state transition.
type Type string

const (
	AuthSuccess  Type = "AUTH_SUCCESS"
	AuthFailure  Type = "AUTH_FAILURE"
	AuthLogout   Type = "AUTH_LOGOUT"
	TokenRefresh Type = "TOKEN_REFRESH"
)

// Event is delivered to every subscriber on an auth state transition.
type Event struct {
	Type      Type
	Data      any
	Timestamp time.Time
}

// Listener handles a single event. Listeners run synchronously on the
// publishing goroutine; keep them fast.
type Listener func(Event)

type subscriber struct {
	id       uint64
	listener Listener
}

// Bus is a synchronous in-process multicast for auth transitions. Delivery
// order is subscription order. Events are not queued or replayed: a
// subscriber that attaches after a transition misses it and must ask the
// session manager for current state instead.
//
// A panicking listener is isolated so it cannot prevent delivery to the
// remaining subscribers or abort the publisher's own state transition.
type Bus struct {
	mu          sync.Mutex
	subscribers []subscriber
	nextID      uint64
	closed      bool
	log         *slog.Logger
}

// Option configures the Bus.
type Option func(*Bus)

// WithLogger attaches a logger for reporting recovered listener panics.
func WithLogger(log *slog.Logger) Option {
	return func(b *Bus) {
		if log != nil {
			b.log = log
		}
	}
}

// NewBus creates an empty event bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		log: logger.Discard(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a listener and returns its unsubscribe function.
// Both are safe to call concurrently; unsubscribe is idempotent.
func (b *Bus) Subscribe(listener Listener) (unsubscribe func()) {
	if listener == nil {
		return func() {}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	b.nextID++
	id := b.nextID
	b.subscribers = append(b.subscribers, subscriber{id: id, listener: listener})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, sub := range b.subscribers {
			if sub.id == id {
				b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers the event to all current subscribers in subscription
// order, stamping it with the current time.
func (b *Bus) Publish(eventType Type, data any) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	// Snapshot so a listener can subscribe/unsubscribe without deadlocking.
	subs := make([]subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.Unlock()

	event := Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
	}

	for _, sub := range subs {
		b.deliver(sub, event)
	}
}

func (b *Bus) deliver(sub subscriber, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event listener panicked",
				slog.String("event", string(event.Type)),
				slog.Any("panic", r),
			)
		}
	}()
	sub.listener(event)
}

// Close drops all subscribers. Subsequent Publish and Subscribe calls are
// no-ops. Safe to call multiple times.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.subscribers = nil
	return nil
}
