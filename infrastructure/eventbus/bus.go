// Package eventbus is a minimal in-process lifecycle event bus. The launcher
// publishes app-terminated and power-cycle notifications; the grant store
// subscribes to invalidate scoped grants.
package eventbus

import (
	"sync"

	"github.com/riverrun-dev/riverrun/domain/ports"
)

// Bus fans lifecycle events out to subscribers, synchronously and in
// publish order.
type Bus struct {
	mu       sync.Mutex
	handlers map[int]func(ports.LifecycleEvent)
	next     int
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{handlers: map[int]func(ports.LifecycleEvent){}}
}

// Subscribe registers a handler; the returned function removes it.
func (b *Bus) Subscribe(handler func(ports.LifecycleEvent)) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = handler
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

// Publish delivers the event to every current subscriber.
func (b *Bus) Publish(ev ports.LifecycleEvent) {
	b.mu.Lock()
	handlers := make([]func(ports.LifecycleEvent), 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}
