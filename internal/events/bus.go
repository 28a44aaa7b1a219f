package events

import (
	"sync"
	"time"
)

// Bus fans events out to in-process subscribers and, when a Hub is
// attached, to connected TCP/websocket clients. The store owns a Bus;
// screens and remote clients subscribe rather than sharing ambient
// global listener state.
type Bus struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
	hub  *Hub
}

func NewBus() *Bus {
	return &Bus{subs: make(map[chan Event]struct{})}
}

// AttachHub wires remote fan-out. Safe to skip in CLI tools.
func (b *Bus) AttachHub(hub *Hub) {
	b.mu.Lock()
	b.hub = hub
	b.mu.Unlock()
}

// Subscribe returns a buffered event channel and a cancel func. A slow
// subscriber that fills its buffer misses events rather than blocking
// publishers.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	b.mu.Lock()
	hub := b.hub
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	b.mu.Unlock()

	if hub != nil {
		hub.BroadcastJSON(ev)
	}
}
