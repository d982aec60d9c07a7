// Package server coordinates client attachment, relay wiring, and connection
// cleanup for the chat relay via the Hub type.
package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"chatrelay/internal/relay"
)

// Hub owns the relay core (registry, rooms, broadcaster, router, lifecycle)
// and the set of live transport clients. Each Hub is an independent relay
// instance: nothing here is package-global, so tests can run several hubs
// side by side.
type Hub struct {
	cfg *Config
	log *slog.Logger

	registry  *relay.Registry
	rooms     *relay.RoomManager
	router    *relay.Router
	lifecycle *relay.Lifecycle

	mu      sync.RWMutex
	clients map[*Client]struct{}
	wg      sync.WaitGroup
}

// NewHub wires a relay core and returns a hub ready to accept connections.
func NewHub(cfg *Config, log *slog.Logger) *Hub {
	registry := relay.NewRegistry(log)
	rooms := relay.NewRoomManager()
	broadcaster := relay.NewBroadcaster(rooms, log)

	return &Hub{
		cfg:       cfg,
		log:       log,
		registry:  registry,
		rooms:     rooms,
		router:    relay.NewRouter(registry, rooms, broadcaster, log),
		lifecycle: relay.NewLifecycle(registry, rooms, log),
		clients:   make(map[*Client]struct{}),
	}
}

// attach registers a freshly-upgraded connection: it allocates the relay
// session, tracks the client, and starts both pumps.
func (h *Hub) attach(c *Client) {
	c.session = h.registry.Register(c)

	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.log.Info("client connected", "addr", c.addr, "conn", c.session.ID(), "clients", count)

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		c.writePump()
	}()
	go func() {
		defer h.wg.Done()
		c.readPump()
	}()
}

// detach runs the exactly-once disconnect path for a client: relay cleanup
// first, then transport bookkeeping. Safe to call repeatedly.
func (h *Hub) detach(c *Client) {
	h.lifecycle.ConnectionClosed(c.session)
	c.finish()

	h.mu.Lock()
	_, tracked := h.clients[c]
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()

	if tracked {
		h.log.Info("client disconnected", "addr", c.addr, "conn", c.session.ID(), "clients", count)
	}
}

// Stats reports live counts for the stats endpoint.
func (h *Hub) Stats() (rooms, memberships, connections int) {
	rooms, memberships = h.rooms.Counts()
	return rooms, memberships, h.registry.Len()
}

// Shutdown closes every client connection and waits for all pump goroutines
// to finish, or gives up when the timeout elapses.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	h.log.Info("shutting down client connections", "clients", len(clients))
	for _, c := range clients {
		c.finish()
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			h.log.Warn("closing client connection failed", "addr", c.addr, "err", err)
		}
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("hub shutdown completed")
		return nil
	case <-time.After(timeout):
		h.log.Warn("hub shutdown timed out")
		return context.DeadlineExceeded
	}
}
