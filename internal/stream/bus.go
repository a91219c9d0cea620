package stream

import (
	"sort"
	"sync"
)

// Bus is an in-process Events implementation. Deliveries are serialized, so
// handlers never run concurrently with each other and observe events in
// publish order. Handlers may unsubscribe but must not publish.
type Bus struct {
	mu        sync.RWMutex
	deliver   sync.Mutex
	nextID    int
	lifecycle map[int]func(LifecycleEvent)
	content   map[int]func(ContentEvent)
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		lifecycle: make(map[int]func(LifecycleEvent)),
		content:   make(map[int]func(ContentEvent)),
	}
}

// OnLifecycle registers fn for every lifecycle event.
func (b *Bus) OnLifecycle(fn func(LifecycleEvent)) Unsubscribe {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.lifecycle[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.lifecycle, id)
	}
}

// OnContent registers fn for every content event.
func (b *Bus) OnContent(fn func(ContentEvent)) Unsubscribe {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.content[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.content, id)
	}
}

// PublishLifecycle delivers ev to every lifecycle subscriber.
func (b *Bus) PublishLifecycle(ev LifecycleEvent) {
	b.deliver.Lock()
	defer b.deliver.Unlock()

	b.mu.RLock()
	handlers := snapshot(b.lifecycle)
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

// PublishContent delivers ev to every content subscriber.
func (b *Bus) PublishContent(ev ContentEvent) {
	b.deliver.Lock()
	defer b.deliver.Unlock()

	b.mu.RLock()
	handlers := snapshot(b.content)
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

// Subscribers returns the number of registered handlers of both classes.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lifecycle) + len(b.content)
}

// snapshot returns handlers in subscription order.
func snapshot[E any](m map[int]func(E)) []func(E) {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(E), len(ids))
	for i, id := range ids {
		out[i] = m[id]
	}
	return out
}
