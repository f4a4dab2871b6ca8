package progress

import (
	"sync"
	"time"
)

// Event is one solver progress snapshot, keyed by instance code.
type Event struct {
	Instance  string    `json:"instance"`
	Iteration int       `json:"iteration"`
	Current   float64   `json:"current"`
	Best      float64   `json:"best"`
	Routes    int       `json:"routes"`
	TS        time.Time `json:"ts"`
}

// EventBroker fans solver progress out to stream subscribers.
type EventBroker interface {
	Subscribe(instance string) chan Event
	Unsubscribe(instance string, ch chan Event)
	Publish(instance string, evt Event)
}

// Broker is the in-process EventBroker. Slow subscribers drop events rather
// than stall the solver.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan Event]struct{}{}}
}

func (b *Broker) Subscribe(instance string) chan Event {
	ch := make(chan Event, 8)
	b.mu.Lock()
	if b.subs[instance] == nil {
		b.subs[instance] = map[chan Event]struct{}{}
	}
	b.subs[instance][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(instance string, ch chan Event) {
	b.mu.Lock()
	if m := b.subs[instance]; m != nil {
		delete(m, ch)
		if len(m) == 0 {
			delete(b.subs, instance)
		}
	}
	b.mu.Unlock()
	close(ch)
}

func (b *Broker) Publish(instance string, evt Event) {
	b.mu.Lock()
	for ch := range b.subs[instance] {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.Unlock()
}
