package relay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotifyRoom_ExcludesOnlyTheOriginatingConnection(t *testing.T) {
	tc := newTestCore()
	sender, senderSink := tc.connect()
	peer, peerSink := tc.connect()
	// Second device of the sender's user: excluded-by-connection means it
	// still receives the event.
	senderTwin, twinSink := tc.connect()

	tc.registry.BindIdentity(sender, "u1")
	tc.registry.BindIdentity(senderTwin, "u1")
	for _, s := range []*Session{sender, peer, senderTwin} {
		tc.rooms.Join(s, "chat42")
	}

	delivered := tc.broadcaster.NotifyRoom("chat42", EventTyping, sender)

	require.Equal(t, 2, delivered)
	require.Empty(t, senderSink.events(t))
	require.Equal(t, []string{EventTyping}, peerSink.events(t))
	require.Equal(t, []string{EventTyping}, twinSink.events(t))
}

func TestNotifyRoom_UnknownRoomIsNoop(t *testing.T) {
	tc := newTestCore()
	s, _ := tc.connect()

	require.Zero(t, tc.broadcaster.NotifyRoom("nowhere", EventTyping, s))
}

func TestFanOutMessage_ExcludesSenderIdentityEntirely(t *testing.T) {
	tc := newTestCore()

	// Participants A, B, C; B is the sender and has two devices.
	devices := map[string][]*captureSink{}
	for _, setup := range []struct{ identity string }{
		{"A"}, {"B"}, {"B"}, {"C"},
	} {
		s, sink := tc.connect()
		tc.registry.BindIdentity(s, setup.identity)
		tc.rooms.Join(s, setup.identity)
		devices[setup.identity] = append(devices[setup.identity], sink)
	}

	raw := json.RawMessage(`{"sender":{"_id":"B"},"chat":{"users":[{"_id":"A"},{"_id":"B"},{"_id":"C"}]},"content":"hi"}`)
	var msg MessagePayload
	require.NoError(t, json.Unmarshal(raw, &msg))

	delivered, err := tc.broadcaster.FanOutMessage(msg, raw)
	require.NoError(t, err)
	require.Equal(t, 2, delivered)

	require.Equal(t, []string{EventMessageReceived}, devices["A"][0].events(t))
	require.Equal(t, []string{EventMessageReceived}, devices["C"][0].events(t))
	for _, sink := range devices["B"] {
		require.Empty(t, sink.events(t))
	}

	// The payload travels unchanged.
	require.JSONEq(t, string(raw), string(devices["A"][0].last(t).Data))
}

func TestFanOutMessage_NoParticipantsIsReportedNoop(t *testing.T) {
	tc := newTestCore()

	var msg MessagePayload
	delivered, err := tc.broadcaster.FanOutMessage(msg, nil)
	require.ErrorIs(t, err, ErrNoParticipants)
	require.Zero(t, delivered)
}

func TestFanOutMessage_DeliversToEveryConnectionOfARecipient(t *testing.T) {
	tc := newTestCore()

	sender, _ := tc.connect()
	tc.registry.BindIdentity(sender, "u1")
	tc.rooms.Join(sender, "u1")

	var recipientSinks []*captureSink
	for i := 0; i < 2; i++ {
		s, sink := tc.connect()
		tc.registry.BindIdentity(s, "u2")
		tc.rooms.Join(s, "u2")
		recipientSinks = append(recipientSinks, sink)
	}

	raw := json.RawMessage(`{"sender":{"_id":"u1"},"chat":{"users":[{"_id":"u1"},{"_id":"u2"}]}}`)
	var msg MessagePayload
	require.NoError(t, json.Unmarshal(raw, &msg))

	delivered, err := tc.broadcaster.FanOutMessage(msg, raw)
	require.NoError(t, err)
	require.Equal(t, 2, delivered)
	for _, sink := range recipientSinks {
		require.Equal(t, []string{EventMessageReceived}, sink.events(t))
	}
}

func TestBroadcaster_CountsOnlyAcceptedDeliveries(t *testing.T) {
	tc := newTestCore()

	healthy, healthySink := tc.connect()
	stuck := tc.registry.Register(&captureSink{reject: true})
	tc.rooms.Join(healthy, "chat42")
	tc.rooms.Join(stuck, "chat42")

	sender, _ := tc.connect()
	tc.rooms.Join(sender, "chat42")

	delivered := tc.broadcaster.NotifyRoom("chat42", EventStopTyping, sender)
	require.Equal(t, 1, delivered)
	require.Equal(t, []string{EventStopTyping}, healthySink.events(t))
}
