// Package connectivity tracks whether the remote expenses service is reachable
// and tells listeners when that changes.
package connectivity

import (
	"sync"
)

// Monitor exposes the current reachability verdict and delivers transitions.
type Monitor interface {
	Online() bool
	// Subscribe registers fn for every online/offline transition. The returned
	// func removes the listener.
	Subscribe(fn func(online bool)) (cancel func())
}

// broadcaster holds the verdict and fans edges out to listeners in
// registration order. Listeners run on the goroutine that set the verdict,
// one edge at a time, so they see edges in the order they happened. A
// listener must not set the verdict itself.
type broadcaster struct {
	deliver   sync.Mutex
	mu        sync.Mutex
	online    bool
	nextID    int
	listeners map[int]func(bool)
	order     []int
}

func (b *broadcaster) Online() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.online
}

func (b *broadcaster) Subscribe(fn func(online bool)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listeners == nil {
		b.listeners = make(map[int]func(bool))
	}
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.order = append(b.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.listeners, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// set records the verdict and notifies listeners when it is an edge.
func (b *broadcaster) set(online bool) bool {
	b.deliver.Lock()
	defer b.deliver.Unlock()

	b.mu.Lock()
	if b.online == online {
		b.mu.Unlock()
		return false
	}
	b.online = online
	fns := make([]func(bool), 0, len(b.order))
	for _, id := range b.order {
		fns = append(fns, b.listeners[id])
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(online)
	}
	return true
}

// Manual is a Monitor whose verdict is set by hand.
type Manual struct {
	broadcaster
}

func NewManual(online bool) *Manual {
	m := &Manual{}
	m.online = online
	return m
}

// Set changes the verdict, notifying listeners on an edge.
func (m *Manual) Set(online bool) {
	m.set(online)
}
