package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher so publishers and subscribers
// share one dispatcher instance instead of the package-global one.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates an event bus.
func New() *Bus {
	return &Bus{dispatcher: event.NewDispatcher()}
}

// Publish delivers an event to all subscribers of its concrete type.
// The generic event.Publish needs the concrete type, hence the switch.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case ProcessStartedEvent:
		event.Publish(b.dispatcher, e)
	case ProcessCompletedEvent:
		event.Publish(b.dispatcher, e)
	case ProcessFailedEvent:
		event.Publish(b.dispatcher, e)
	case ProcessDestroyedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers a handler; the handler's parameter type selects
// which events it receives. Returns an unsubscribe function.
// Usage: unsub := bus.Subscribe(func(e ProcessStartedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(ProcessStartedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ProcessCompletedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ProcessFailedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ProcessDestroyedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
