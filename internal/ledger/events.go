package ledger

import (
	"sync"
)

type EventKind int

const (
	EventLoaded EventKind = iota
	EventCreated
	EventDeleted
	EventReconciled
	EventConnectivity
)

func (k EventKind) String() string {
	switch k {
	case EventLoaded:
		return "loaded"
	case EventCreated:
		return "created"
	case EventDeleted:
		return "deleted"
	case EventReconciled:
		return "reconciled"
	case EventConnectivity:
		return "connectivity"
	default:
		return "unknown"
	}
}

// Event tells subscribers that the snapshot or the connectivity verdict changed.
type Event struct {
	Kind     EventKind
	Expenses int
	Online   bool
}

type events struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
	closed bool
}

func (ev *events) subscribe() (<-chan Event, func()) {
	ev.mu.Lock()
	defer ev.mu.Unlock()

	ch := make(chan Event, 1)
	if ev.closed {
		close(ch)
		return ch, func() {}
	}
	if ev.subs == nil {
		ev.subs = make(map[int]chan Event)
	}
	id := ev.nextID
	ev.nextID++
	ev.subs[id] = ch

	return ch, func() {
		ev.mu.Lock()
		defer ev.mu.Unlock()
		if sub, ok := ev.subs[id]; ok {
			delete(ev.subs, id)
			close(sub)
		}
	}
}

func (ev *events) publish(e Event) {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	for _, ch := range ev.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (ev *events) closeAll() {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	ev.closed = true
	for id, ch := range ev.subs {
		delete(ev.subs, id)
		close(ch)
	}
}
