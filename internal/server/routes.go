// Package server wires the hub's handlers into a ServeMux.
package server

import "net/http"

// Routes configures and returns the HTTP routes for a hub: health check,
// WebSocket endpoint, stats, and the test page.
func (h *Hub) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.HealthHandler)
	mux.HandleFunc("/ws", h.WebSocketHandler())
	mux.HandleFunc("/stats", h.StatsHandler)
	mux.HandleFunc("/test", h.TestPageHandler)
	return mux
}
