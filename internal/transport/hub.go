package transport

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aortez/cellsim-server/internal/cellworld"
	"github.com/aortez/cellsim-server/internal/metrics"
	"github.com/aortez/cellsim-server/internal/statemachine"
)

// Hub owns the set of connected clients: register/unregister channels feed
// a single map-owner goroutine, so the client set is never mutated from
// two goroutines at once.
type Hub struct {
	machine *statemachine.Machine
	metrics *metrics.Metrics

	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// NewHub constructs a Hub bound to machine for command dispatch and m for
// connection-count/parse-error metrics (m may be nil in tests).
func NewHub(machine *statemachine.Machine, m *metrics.Metrics) *Hub {
	return &Hub{
		machine:    machine,
		metrics:    m,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]struct{}),
	}
}

// Run owns the client map; it must run on its own goroutine for the
// lifetime of the process.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			if h.metrics != nil {
				h.metrics.ActiveConnections.Set(float64(n))
			}

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			if h.metrics != nil {
				h.metrics.ActiveConnections.Set(float64(n))
			}
		}
	}
}

// Broadcast implements statemachine.Broadcaster: it serializes data once
// and fans the bytes out to every connected client's write path without
// blocking the simulation thread. Returns the time spent encoding.
func (h *Hub) Broadcast(data *cellworld.WorldData) time.Duration {
	encodeStart := time.Now()
	encoded, err := EncodeSnapshot(data)
	encodeDuration := time.Since(encodeStart)
	if h.metrics != nil {
		h.metrics.SerializationDuration.Observe(encodeDuration.Seconds())
	}
	if err != nil {
		log.Error().Err(err).Msg("transport: failed to encode world snapshot")
		return encodeDuration
	}
	for _, c := range h.clientSnapshot() {
		c.writeBinary(encoded)
	}
	return encodeDuration
}

// HasClients implements statemachine.Broadcaster.
func (h *Hub) HasClients() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients) > 0
}

// clientSnapshot copies out the current client handles under a short
// critical section, so no lock is held across a network send.
func (h *Hub) clientSnapshot() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	return out
}
