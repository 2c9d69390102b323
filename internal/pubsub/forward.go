package pubsub

// Forwarder is a Listener that republishes every event it handles onto a
// Broker, bridging the synchronous Channel to goroutine consumers.
// Handle never fails and never blocks.
type Forwarder[E any] struct {
	broker    *Broker[E]
	eventType func(E) EventType
}

// NewForwarder creates a forwarder onto broker. classify maps an event to the
// broker event type; when nil every event is published as UpdatedEvent.
func NewForwarder[E any](broker *Broker[E], classify func(E) EventType) *Forwarder[E] {
	if classify == nil {
		classify = func(E) EventType { return UpdatedEvent }
	}
	return &Forwarder[E]{broker: broker, eventType: classify}
}

// Handle publishes event on the broker.
func (f *Forwarder[E]) Handle(event E) error {
	f.broker.Publish(f.eventType(event), event)
	return nil
}

var _ Listener[int] = (*Forwarder[int])(nil)
