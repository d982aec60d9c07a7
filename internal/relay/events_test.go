package relay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeInbound_Setup(t *testing.T) {
	ev, err := DecodeInbound([]byte(`{"event":"setup","data":{"_id":"u1"}}`))
	require.NoError(t, err)
	require.Equal(t, KindSetup, ev.Kind)
	require.Equal(t, "u1", ev.Identity)
}

func TestDecodeInbound_RoomEvents(t *testing.T) {
	cases := []struct {
		event string
		kind  EventKind
	}{
		{EventJoinChat, KindJoinChat},
		{EventTyping, KindTyping},
		{EventStopTyping, KindStopTyping},
	}

	for _, tc := range cases {
		t.Run(tc.event, func(t *testing.T) {
			ev, err := DecodeInbound([]byte(`{"event":"` + tc.event + `","data":"chat42"}`))
			require.NoError(t, err)
			require.Equal(t, tc.kind, ev.Kind)
			require.Equal(t, "chat42", ev.Room)
		})
	}
}

func TestDecodeInbound_NewMessageKeepsRawPayload(t *testing.T) {
	raw := `{"sender":{"_id":"u1"},"chat":{"users":[{"_id":"u1"},{"_id":"u2"}]},"content":"hi"}`
	ev, err := DecodeInbound([]byte(`{"event":"new message","data":` + raw + `}`))
	require.NoError(t, err)
	require.Equal(t, KindNewMessage, ev.Kind)
	require.Equal(t, "u1", ev.Message.Sender.ID)
	require.Len(t, ev.Message.Chat.Users, 2)
	require.JSONEq(t, raw, string(ev.Raw))
}

func TestDecodeInbound_NewMessageWithoutParticipantsDecodes(t *testing.T) {
	// An empty participant list is a fan-out no-op, not a decode error.
	ev, err := DecodeInbound([]byte(`{"event":"new message","data":{"sender":{"_id":"u1"},"chat":{}}}`))
	require.NoError(t, err)
	require.Empty(t, ev.Message.Chat.Users)
}

func TestDecodeInbound_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":           `{{{`,
		"setup no identity":  `{"event":"setup","data":{}}`,
		"setup bad payload":  `{"event":"setup","data":42}`,
		"join empty room":    `{"event":"join chat","data":""}`,
		"typing bad payload": `{"event":"typing","data":{"room":"x"}}`,
		"message bad data":   `{"event":"new message","data":"nope"}`,
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeInbound([]byte(input))
			require.ErrorIs(t, err, ErrMalformedPayload)
		})
	}
}

func TestDecodeInbound_UnknownEvent(t *testing.T) {
	_, err := DecodeInbound([]byte(`{"event":"presence","data":"u1"}`))
	require.ErrorIs(t, err, ErrUnknownEvent)
}
