// Package relay runs disconnect cleanup through the Lifecycle component,
// exactly once per connection.
package relay

import "log/slog"

// Lifecycle vacates a session's rooms and removes its registry record when
// the transport closes.
type Lifecycle struct {
	registry *Registry
	rooms    *RoomManager
	log      *slog.Logger
}

// NewLifecycle wires a lifecycle manager over the registry and room manager.
func NewLifecycle(registry *Registry, rooms *RoomManager, log *slog.Logger) *Lifecycle {
	return &Lifecycle{
		registry: registry,
		rooms:    rooms,
		log:      log.With("component", "lifecycle"),
	}
}

// ConnectionClosed cleans up after a terminated connection: leave every room,
// then unregister, in that order. It runs at most once per session no matter
// how many transport paths report the close, and works entirely from the
// session's own stored state, so a connection that never completed setup (or
// never joined a room) cleans up as an ordinary no-op.
func (l *Lifecycle) ConnectionClosed(s *Session) {
	s.cleanup.Do(func() {
		l.rooms.LeaveAll(s)
		l.registry.Unregister(s)
		l.log.Debug("connection cleaned up", "conn", s.ID(), "identity", s.Identity())
	})
}
