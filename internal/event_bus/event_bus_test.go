package event_bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEvent EventType = "test.event"

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := NewEventBus()
	var received []Event
	bus.Subscribe(testEvent, func(e Event) error {
		received = append(received, e)
		return nil
	})

	err := bus.Publish(NewEvent(context.Background(), testEvent, "payload"))

	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "payload", received[0].Data)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewEventBus()
	calls := 0
	unsubscribe := bus.Subscribe(testEvent, func(e Event) error {
		calls++
		return nil
	})

	require.NoError(t, bus.Publish(NewEvent(context.Background(), testEvent, nil)))
	unsubscribe()
	require.NoError(t, bus.Publish(NewEvent(context.Background(), testEvent, nil)))

	assert.Equal(t, 1, calls)
}

func TestPublishCollectsHandlerErrors(t *testing.T) {
	bus := NewEventBus()
	bus.Subscribe(testEvent, func(e Event) error {
		return errors.New("handler failed")
	})
	delivered := false
	bus.Subscribe(testEvent, func(e Event) error {
		delivered = true
		return nil
	})

	err := bus.Publish(NewEvent(context.Background(), testEvent, nil))

	assert.Error(t, err)
	assert.True(t, delivered)
}

func TestPublishRecoversFromPanic(t *testing.T) {
	bus := NewEventBus()
	bus.Subscribe(testEvent, func(e Event) error {
		panic("boom")
	})

	err := bus.Publish(NewEvent(context.Background(), testEvent, nil))

	assert.Error(t, err)
}

func TestPublishStopsOnCancelledContext(t *testing.T) {
	bus := NewEventBus()
	bus.Subscribe(testEvent, func(e Event) error { return nil })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := bus.Publish(NewEvent(ctx, testEvent, nil))

	assert.Error(t, err)
}
