package api

import (
	"sync"
)

// Event is one item of a tenant's activity stream.
type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

const (
	EventPathComputed    = "path.computed"
	EventCoverageChecked = "coverage.checked"
)

// EventBroker fans tenant events out to stream subscribers.
type EventBroker interface {
	Subscribe(tenantID string) chan Event
	Unsubscribe(tenantID string, ch chan Event)
	Publish(tenantID string, evt Event)
}

// Broker is the in-process EventBroker.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{} // tenantId -> set of channels
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan Event]struct{}{}}
}

func (b *Broker) Subscribe(tenantID string) chan Event {
	ch := make(chan Event, 8)
	b.mu.Lock()
	if b.subs[tenantID] == nil {
		b.subs[tenantID] = map[chan Event]struct{}{}
	}
	b.subs[tenantID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes ch. Calling it twice is safe.
func (b *Broker) Unsubscribe(tenantID string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.subs[tenantID]
	if _, ok := m[ch]; !ok {
		return
	}
	delete(m, ch)
	if len(m) == 0 {
		delete(b.subs, tenantID)
	}
	close(ch)
}

// Publish never blocks: slow subscribers drop events.
func (b *Broker) Publish(tenantID string, evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[tenantID] {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Subscribers reports how many streams are attached for tenantID.
func (b *Broker) Subscribers(tenantID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[tenantID])
}
