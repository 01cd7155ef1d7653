package engine

import (
	"sync"

	"github.com/avelin/dagflow/pkg/api"
)

// eventBus is the engine-owned publish/subscribe surface. It is an
// explicit field of the engine rather than process-global state, so
// multiple engines can coexist in one process.
//
// Delivery is synchronous on the publishing goroutine, in transition
// order. Subscribers observe events only; nothing in the engine's
// control flow depends on them.
type eventBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(api.Event)
}

func newEventBus() *eventBus {
	return &eventBus{subs: make(map[int]func(api.Event))}
}

// Subscribe registers fn and returns an idempotent unsubscribe func.
func (b *eventBus) Subscribe(fn func(api.Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish delivers ev to every subscriber in registration order.
func (b *eventBus) Publish(ev api.Event) {
	b.mu.Lock()
	fns := make([]func(api.Event), 0, len(b.subs))
	for id := 0; id < b.nextID; id++ {
		if fn, ok := b.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
