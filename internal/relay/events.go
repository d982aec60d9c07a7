// Package relay defines the wire envelope and the closed set of inbound
// events the relay understands, decoded once at the transport edge.
package relay

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Inbound event names accepted from clients.
const (
	EventSetup      = "setup"
	EventJoinChat   = "join chat"
	EventTyping     = "typing"
	EventStopTyping = "stop typing"
	EventNewMessage = "new message"
)

// Outbound event names emitted to clients.
const (
	EventConnected       = "connected"
	EventMessageReceived = "message received"
)

// Envelope is the single frame format exchanged with clients: an event name
// plus an event-specific JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// EventKind enumerates the inbound events. Dispatch switches over this set
// exhaustively, so an event added here without a handler is a compile-time
// review item rather than a silent runtime miss.
type EventKind int

const (
	KindSetup EventKind = iota
	KindJoinChat
	KindTyping
	KindStopTyping
	KindNewMessage
)

// userRef matches the {"_id": "..."} user objects produced by the REST layer
// that resolves and persists messages before they reach the relay.
type userRef struct {
	ID string `json:"_id"`
}

// MessagePayload is the subset of a "new message" body the relay routes on.
// The body is forwarded to recipients verbatim; only the sender identity and
// the participant list are ever read here.
type MessagePayload struct {
	Sender userRef `json:"sender"`
	Chat   struct {
		Users []userRef `json:"users"`
	} `json:"chat"`
}

// InboundEvent is the decoded form of a client frame. Only the fields for the
// decoded Kind are populated.
type InboundEvent struct {
	Kind     EventKind
	Identity string          // KindSetup
	Room     string          // KindJoinChat, KindTyping, KindStopTyping
	Message  MessagePayload  // KindNewMessage
	Raw      json.RawMessage // KindNewMessage: original data, forwarded as-is
}

var (
	// ErrUnknownEvent reports an event name outside the closed inbound set.
	ErrUnknownEvent = errors.New("unknown event")

	// ErrMalformedPayload reports a frame or payload that failed to decode.
	ErrMalformedPayload = errors.New("malformed payload")
)

// DecodeInbound parses a raw client frame into its typed form. Any frame that
// does not decode cleanly is rejected with ErrUnknownEvent or
// ErrMalformedPayload; the caller drops it without touching relay state.
func DecodeInbound(frame []byte) (InboundEvent, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return InboundEvent{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	switch env.Event {
	case EventSetup:
		var user userRef
		if err := json.Unmarshal(env.Data, &user); err != nil {
			return InboundEvent{}, fmt.Errorf("%w: setup: %v", ErrMalformedPayload, err)
		}
		if user.ID == "" {
			return InboundEvent{}, fmt.Errorf("%w: setup without identity", ErrMalformedPayload)
		}
		return InboundEvent{Kind: KindSetup, Identity: user.ID}, nil

	case EventJoinChat, EventTyping, EventStopTyping:
		var room string
		if err := json.Unmarshal(env.Data, &room); err != nil {
			return InboundEvent{}, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, env.Event, err)
		}
		if room == "" {
			return InboundEvent{}, fmt.Errorf("%w: %s without room", ErrMalformedPayload, env.Event)
		}
		kind := KindJoinChat
		switch env.Event {
		case EventTyping:
			kind = KindTyping
		case EventStopTyping:
			kind = KindStopTyping
		}
		return InboundEvent{Kind: kind, Room: room}, nil

	case EventNewMessage:
		var msg MessagePayload
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return InboundEvent{}, fmt.Errorf("%w: new message: %v", ErrMalformedPayload, err)
		}
		return InboundEvent{Kind: KindNewMessage, Message: msg, Raw: env.Data}, nil

	default:
		return InboundEvent{}, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}

// EncodeOutbound marshals an outbound envelope into a wire frame.
func EncodeOutbound(event string, data json.RawMessage) ([]byte, error) {
	return json.Marshal(Envelope{Event: event, Data: data})
}
