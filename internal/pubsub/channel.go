package pubsub

import (
	"fmt"
	"reflect"
	"slices"
)

// Channel is a synchronous, ordered set of listeners.
//
// Listeners are kept in subscription order and compared by identity, so the
// same listener is never registered twice. Publish delivers on the caller's
// goroutine and returns only after every listener has handled the event.
//
// Channel is not safe for concurrent use; callers that share one across
// goroutines must guard it themselves.
type Channel[E any] struct {
	listeners []Listener[E]
}

// NewChannel creates an empty channel.
func NewChannel[E any]() *Channel[E] {
	return &Channel[E]{
		listeners: make([]Listener[E], 0),
	}
}

// Subscribe registers l. Nil and already-registered listeners are ignored.
// The dynamic type of l must be comparable (typically a pointer).
func (c *Channel[E]) Subscribe(l Listener[E]) {
	if l == nil {
		return
	}
	if t := reflect.TypeOf(l); !t.Comparable() {
		panic(fmt.Sprintf("pubsub: listener of type %s is not comparable; subscribe a pointer", t))
	}
	if c.indexOf(l) >= 0 {
		return
	}
	c.listeners = append(c.listeners, l)
}

// Unsubscribe removes l if it is registered. It may be called from inside a
// listener's Handle; the removal takes effect from the next Publish.
func (c *Channel[E]) Unsubscribe(l Listener[E]) {
	if l == nil || !reflect.TypeOf(l).Comparable() {
		return
	}
	if i := c.indexOf(l); i >= 0 {
		// Copy so a Publish in progress keeps ranging over the old slice.
		c.listeners = slices.Delete(slices.Clone(c.listeners), i, i+1)
	}
}

// Publish delivers event to every listener in subscription order.
// The first listener error aborts delivery and is returned as is.
// Listeners subscribed or unsubscribed during delivery do not change who
// receives the current event.
func (c *Channel[E]) Publish(event E) error {
	for _, l := range c.listeners {
		if err := l.Handle(event); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of registered listeners.
func (c *Channel[E]) Len() int {
	return len(c.listeners)
}

func (c *Channel[E]) indexOf(l Listener[E]) int {
	for i, existing := range c.listeners {
		if existing == l {
			return i
		}
	}
	return -1
}
