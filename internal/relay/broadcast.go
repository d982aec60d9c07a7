// Package relay computes recipient sets and delivers events through the
// Broadcaster, which implements the two exclusion rules of the relay.
package relay

import (
	"encoding/json"
	"errors"
	"log/slog"
)

// ErrNoParticipants reports a "new message" with an absent or empty
// participant list. Fan-out treats it as a no-op, not a fault.
var ErrNoParticipants = errors.New("message has no participants")

// Broadcaster delivers events to room members. It reads membership from the
// RoomManager and never mutates it; failed deliveries are the transport's
// problem to clean up.
type Broadcaster struct {
	rooms *RoomManager
	log   *slog.Logger
}

// NewBroadcaster creates a broadcaster over the given room manager.
func NewBroadcaster(rooms *RoomManager, log *slog.Logger) *Broadcaster {
	return &Broadcaster{
		rooms: rooms,
		log:   log.With("component", "broadcaster"),
	}
}

// NotifyRoom delivers an event with no payload to every member of the room
// except the excluded session. Other sessions bound to the same identity as
// the excluded one do receive it: the exclusion is per connection, which is
// what lets a user's other devices see their own typing indicator. Unknown
// rooms are a normal no-op. Returns the number of accepted deliveries.
func (b *Broadcaster) NotifyRoom(room, event string, excluded *Session) int {
	frame, err := EncodeOutbound(event, nil)
	if err != nil {
		b.log.Error("encoding notification failed", "event", event, "err", err)
		return 0
	}

	delivered := 0
	for _, member := range b.rooms.MembersOf(room) {
		if member == excluded {
			continue
		}
		if member.Deliver(frame) {
			delivered++
		} else {
			b.log.Warn("notification not accepted", "event", event, "room", room, "conn", member.ID())
		}
	}
	return delivered
}

// FanOutMessage delivers "message received" with the original payload to the
// identity room of every participant except the sender. The exclusion is per
// identity: a participant equal to the sender is skipped entirely, so none of
// the sender's connections see an echo, while every connection bound to any
// other participant does. Returns the number of accepted deliveries.
func (b *Broadcaster) FanOutMessage(msg MessagePayload, raw json.RawMessage) (int, error) {
	if len(msg.Chat.Users) == 0 {
		return 0, ErrNoParticipants
	}

	frame, err := EncodeOutbound(EventMessageReceived, raw)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, user := range msg.Chat.Users {
		if user.ID == "" || user.ID == msg.Sender.ID {
			continue
		}
		for _, member := range b.rooms.MembersOf(user.ID) {
			if member.Deliver(frame) {
				delivered++
			} else {
				b.log.Warn("message not accepted", "recipient", user.ID, "conn", member.ID())
			}
		}
	}
	return delivered, nil
}
