package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestForwarder_RepublishesOntoBroker(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := broker.Subscribe(ctx)

	ch := NewChannel[string]()
	ch.Subscribe(NewForwarder(broker, func(e string) EventType {
		if e == "gone" {
			return DeletedEvent
		}
		return CreatedEvent
	}))

	require.NoError(t, ch.Publish("new"))
	require.NoError(t, ch.Publish("gone"))

	for _, want := range []struct {
		payload string
		typ     EventType
	}{{"new", CreatedEvent}, {"gone", DeletedEvent}} {
		select {
		case event := <-sub:
			require.Equal(t, want.payload, event.Payload)
			require.Equal(t, want.typ, event.Type)
		case <-time.After(100 * time.Millisecond):
			require.Fail(t, "timeout waiting for forwarded event")
		}
	}
}

func TestForwarder_DefaultClassification(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()
	sub := broker.Subscribe(context.Background())

	f := NewForwarder(broker, nil)
	require.NoError(t, f.Handle(7))

	event := <-sub
	require.Equal(t, UpdatedEvent, event.Type)
	require.Equal(t, 7, event.Payload)
}

func TestForwarder_NeverBlocksOnFullBroker(t *testing.T) {
	broker := NewBrokerWithBuffer[int](1)
	defer broker.Close()
	_ = broker.Subscribe(context.Background())

	f := NewForwarder(broker, nil)
	for i := 0; i < 5; i++ {
		require.NoError(t, f.Handle(i))
	}
	require.Equal(t, int64(4), broker.Dropped())
}
