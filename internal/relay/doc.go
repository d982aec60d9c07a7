// Package relay implements the core of the chat event relay: session
// registration and identity binding, room membership tracking, event routing,
// and broadcast with two exclusion rules (exclude the originating connection
// for typing indicators, exclude the originating identity across all of its
// connections for message fan-out).
//
// The package is transport-agnostic: connections appear only as Sink
// implementations, which keeps the core deterministic to test and free of
// WebSocket concerns.
package relay
