package telemetry

import (
	"sync"

	"github.com/google/uuid"
)

// DefaultQueueSize is the per-subscriber queue length.
const DefaultQueueSize = 16

// Hub fans encoded messages out to subscribers. Broadcast never blocks: a
// subscriber whose queue is full misses the message.
type Hub struct {
	queueSize int

	mu          sync.Mutex
	subscribers map[string]chan []byte
	closed      bool
}

// NewHub creates a hub with the given per-subscriber queue length.
func NewHub(queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Hub{
		queueSize:   queueSize,
		subscribers: make(map[string]chan []byte),
	}
}

// Subscribe registers a new subscriber. The channel is closed on
// Unsubscribe or Close.
func (h *Hub) Subscribe() (string, <-chan []byte) {
	id := uuid.NewString()
	ch := make(chan []byte, h.queueSize)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return id, ch
	}
	h.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subscribers[id]; ok {
		close(ch)
		delete(h.subscribers, id)
	}
}

// Broadcast queues data for every subscriber and returns how many
// subscribers it was delivered to.
func (h *Hub) Broadcast(data []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for _, ch := range h.subscribers {
		select {
		case ch <- data:
			delivered++
		default:
		}
	}
	return delivered
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Close closes every subscriber channel. Later subscriptions are closed
// immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
}
