// Package pubsub provides the two notification primitives used across leibooks:
// a synchronous, ordered Channel of listeners and an asynchronous Broker that
// fans events out to goroutine consumers over buffered channels.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published on a Broker.
type EventType string

const (
	CreatedEvent EventType = "created"
	UpdatedEvent EventType = "updated"
	DeletedEvent EventType = "deleted"
)

// Event represents a brokered event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Listener receives events delivered synchronously by a Channel.
// Handle runs on the publisher's goroutine; a returned error stops delivery
// to the listeners registered after it.
type Listener[E any] interface {
	Handle(event E) error
}

// ListenerFunc adapts a function to the Listener interface.
// Use it through a pointer (see Func) so that every adapter has its own
// identity inside a Channel.
type ListenerFunc[E any] func(event E) error

// Handle calls f(event).
func (f *ListenerFunc[E]) Handle(event E) error {
	return (*f)(event)
}

// Func wraps fn in a new *ListenerFunc.
func Func[E any](fn func(event E) error) *ListenerFunc[E] {
	lf := ListenerFunc[E](fn)
	return &lf
}

// Subscriber provides a subscription channel for brokered events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing brokered events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T) int
}
