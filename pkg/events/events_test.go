package events_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossapp/crossapp-go/pkg/events"
)

func TestBus_Publish(t *testing.T) {
	t.Run("delivers in subscription order", func(t *testing.T) {
		bus := events.NewBus()
		var order []int

		bus.Subscribe(func(events.Event) { order = append(order, 1) })
		bus.Subscribe(func(events.Event) { order = append(order, 2) })
		bus.Subscribe(func(events.Event) { order = append(order, 3) })

		bus.Publish(events.AuthSuccess, nil)
		assert.Equal(t, []int{1, 2, 3}, order)
	})

	t.Run("stamps type data and timestamp", func(t *testing.T) {
		bus := events.NewBus()
		var got events.Event

		bus.Subscribe(func(e events.Event) { got = e })

		before := time.Now()
		bus.Publish(events.TokenRefresh, "payload")

		assert.Equal(t, events.TokenRefresh, got.Type)
		assert.Equal(t, "payload", got.Data)
		assert.False(t, got.Timestamp.Before(before))
	})

	t.Run("panicking listener does not block the rest", func(t *testing.T) {
		bus := events.NewBus()
		delivered := false

		bus.Subscribe(func(events.Event) { panic("misbehaving subscriber") })
		bus.Subscribe(func(events.Event) { delivered = true })

		require.NotPanics(t, func() {
			bus.Publish(events.AuthFailure, nil)
		})
		assert.True(t, delivered)
	})

	t.Run("no replay for late subscribers", func(t *testing.T) {
		bus := events.NewBus()
		bus.Publish(events.AuthSuccess, nil)

		called := false
		bus.Subscribe(func(events.Event) { called = true })
		assert.False(t, called)
	})
}

func TestBus_Subscribe(t *testing.T) {
	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		bus := events.NewBus()
		count := 0

		unsubscribe := bus.Subscribe(func(events.Event) { count++ })
		bus.Publish(events.AuthSuccess, nil)
		unsubscribe()
		bus.Publish(events.AuthSuccess, nil)

		assert.Equal(t, 1, count)
	})

	t.Run("unsubscribe is idempotent", func(t *testing.T) {
		bus := events.NewBus()
		count := 0

		first := bus.Subscribe(func(events.Event) { count++ })
		second := bus.Subscribe(func(events.Event) { count++ })

		first()
		first()

		bus.Publish(events.AuthLogout, nil)
		assert.Equal(t, 1, count)
		second()
	})

	t.Run("nil listener is ignored", func(t *testing.T) {
		bus := events.NewBus()
		unsubscribe := bus.Subscribe(nil)

		require.NotPanics(t, func() {
			bus.Publish(events.AuthSuccess, nil)
			unsubscribe()
		})
	})
}

func TestBus_Close(t *testing.T) {
	bus := events.NewBus()
	count := 0
	bus.Subscribe(func(events.Event) { count++ })

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	bus.Publish(events.AuthSuccess, nil)
	assert.Zero(t, count)

	unsubscribe := bus.Subscribe(func(events.Event) { count++ })
	bus.Publish(events.AuthSuccess, nil)
	assert.Zero(t, count)
	unsubscribe()
}
