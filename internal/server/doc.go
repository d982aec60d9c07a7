// Package server implements the WebSocket and HTTP transport around the
// relay core.
//
// The implementation is organized into specialized files for configuration,
// hub management, clients, routing, and HTTP handlers so the transport stays
// a thin shell over the internal/relay package.
package server
