// Package server constructs and runs the HTTP service around the relay hub.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// CreateServer builds an HTTP server with the given address and handler,
// with timeout values suited for long-lived WebSocket traffic alongside the
// plain endpoints.
func CreateServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              port,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// StartServer begins listening and blocks until the server exits.
func StartServer(server *http.Server, log *slog.Logger) error {
	log.Info("server listening", "addr", server.Addr)
	return server.ListenAndServe()
}

// ShutdownServer drains the HTTP server, waiting up to the timeout for
// in-flight requests.
func ShutdownServer(server *http.Server, timeout time.Duration, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Warn("http server shutdown failed", "err", err)
		return err
	}
	log.Info("http server shutdown completed")
	return nil
}
