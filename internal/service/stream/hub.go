// Package stream fans frames out to any number of live subscribers.
package stream

import (
	"context"
	"sync"

	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/logger"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/metrics"
)

// SubscriberBuffer is how many frames a slow client may fall behind before
// frames are dropped for it.
const SubscriberBuffer = 8

// Subscriber receives frames on C until it is unsubscribed or the hub stops,
// after which C is closed.
type Subscriber struct {
	C    <-chan []byte
	send chan []byte
}

// Hub owns the subscriber set; only Run touches it.
type Hub struct {
	clients    map[*Subscriber]bool
	broadcast  chan []byte
	register   chan *Subscriber
	unregister chan *Subscriber
	done       chan struct{}

	countMu sync.RWMutex
	count   int

	metrics *metrics.Metrics
	logger  *logger.Logger
}

func NewHub(m *metrics.Metrics, logger *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Subscriber]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Subscriber),
		unregister: make(chan *Subscriber),
		done:       make(chan struct{}),
		metrics:    m,
		logger:     logger,
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes every
// subscriber.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.setCount(0)
			return

		case client := <-h.register:
			h.clients[client] = true
			h.setCount(len(h.clients))
			h.logger.Info("Client connected. Total: %d", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.setCount(len(h.clients))
			h.logger.Info("Client disconnected. Total: %d", len(h.clients))

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// slow client: skip this frame for it only
				}
			}
		}
	}
}

// Subscribe registers a new subscriber. It returns nil once the hub has stopped.
func (h *Hub) Subscribe() *Subscriber {
	send := make(chan []byte, SubscriberBuffer)
	client := &Subscriber{C: send, send: send}
	select {
	case h.register <- client:
		return client
	case <-h.done:
		return nil
	}
}

// Unsubscribe removes s; it is safe to call more than once.
func (h *Hub) Unsubscribe(s *Subscriber) {
	if s == nil {
		return
	}
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// Broadcast delivers message to every current subscriber. It is a no-op once
// the hub has stopped.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.countMu.RLock()
	defer h.countMu.RUnlock()
	return h.count
}

func (h *Hub) setCount(n int) {
	h.countMu.Lock()
	h.count = n
	h.countMu.Unlock()
	h.metrics.SetSubscribers(n)
}
