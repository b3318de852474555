package server

import (
	"encoding/json"
	"sync"
)

// ActivityEvent is the payload published to the admin dashboard feed.
type ActivityEvent struct {
	Type        string `json:"type"` // registered | captured | finished | verified
	Nick        string `json:"nick,omitempty"`
	PokemonID   int64  `json:"pokemonId,omitempty"`
	PokemonName string `json:"pokemonName,omitempty"`
	Progress    int    `json:"progress,omitempty"`
}

// Broker is an in-process pub/sub for the admin SSE activity feed.
type Broker struct {
	mu   sync.RWMutex
	subs map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded activity events.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the subscriber set.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

// Publish sends an event to all subscribers.
func (b *Broker) Publish(event ActivityEvent) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
