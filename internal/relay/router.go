// Package relay interprets inbound events per connection through the Router,
// the state machine that drives registry, rooms, and broadcaster.
package relay

import (
	"errors"
	"log/slog"
)

// Router dispatches decoded client events against the relay core. A session
// moves from Connected to Identified on its first setup; every inbound event
// is accepted in either state, an unidentified connection simply cannot be
// the target of identity-room delivery.
//
// Faults are isolated per connection: a malformed frame is logged and
// dropped, never surfaced as anything that could affect other connections.
type Router struct {
	registry    *Registry
	rooms       *RoomManager
	broadcaster *Broadcaster
	log         *slog.Logger
}

// NewRouter wires a router over the given components.
func NewRouter(registry *Registry, rooms *RoomManager, broadcaster *Broadcaster, log *slog.Logger) *Router {
	return &Router{
		registry:    registry,
		rooms:       rooms,
		broadcaster: broadcaster,
		log:         log.With("component", "router"),
	}
}

// Dispatch decodes and handles one inbound frame for the session.
func (r *Router) Dispatch(s *Session, frame []byte) {
	ev, err := DecodeInbound(frame)
	if err != nil {
		r.log.Warn("dropping inbound frame", "conn", s.ID(), "err", err)
		return
	}

	switch ev.Kind {
	case KindSetup:
		r.handleSetup(s, ev.Identity)

	case KindJoinChat:
		r.rooms.Join(s, ev.Room)
		r.log.Debug("joined chat room", "conn", s.ID(), "room", ev.Room)

	case KindTyping:
		r.broadcaster.NotifyRoom(ev.Room, EventTyping, s)

	case KindStopTyping:
		r.broadcaster.NotifyRoom(ev.Room, EventStopTyping, s)

	case KindNewMessage:
		delivered, err := r.broadcaster.FanOutMessage(ev.Message, ev.Raw)
		if errors.Is(err, ErrNoParticipants) {
			r.log.Warn("dropping message without participants", "conn", s.ID())
			return
		}
		if err != nil {
			r.log.Error("message fan-out failed", "conn", s.ID(), "err", err)
			return
		}
		r.log.Debug("message fanned out", "conn", s.ID(), "sender", ev.Message.Sender.ID, "delivered", delivered)
	}
}

// handleSetup binds the identity, moves the session into its identity room,
// and acks with "connected". On a rebind the previous identity room is
// vacated first, so a session is never reachable under two identities at
// once.
func (r *Router) handleSetup(s *Session, identity string) {
	previous := r.registry.BindIdentity(s, identity)
	if previous != "" && previous != identity {
		r.rooms.Leave(s, previous)
	}
	r.rooms.Join(s, identity)

	frame, err := EncodeOutbound(EventConnected, nil)
	if err != nil {
		r.log.Error("encoding ack failed", "conn", s.ID(), "err", err)
		return
	}
	s.Deliver(frame)
	r.log.Info("session identified", "conn", s.ID(), "identity", identity)
}
