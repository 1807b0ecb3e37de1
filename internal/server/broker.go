package server

import (
	"encoding/json"
	"sync"

	"github.com/scoutbase/matchscout/internal/scouting"
)

// SSEEvent is the payload published to station subscribers.
type SSEEvent struct {
	Type     string            `json:"type"`
	Station  string            `json:"station,omitempty"`
	Phase    scouting.Phase    `json:"phase,omitempty"`
	ActionID scouting.ActionID `json:"actionId,omitempty"`
	ReportID string            `json:"reportId,omitempty"`
}

// Broker is an in-process pub/sub for SSE events, keyed by station.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded SSE events for the given station.
func (b *Broker) Subscribe(station string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[station] == nil {
		b.subs[station] = make(map[chan []byte]struct{})
	}
	b.subs[station][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the station's subscribers.
func (b *Broker) Unsubscribe(station string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[station], ch)
	if len(b.subs[station]) == 0 {
		delete(b.subs, station)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the given station.
func (b *Broker) Publish(station string, event SSEEvent) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs[station] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
