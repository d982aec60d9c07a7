// Package testhelpers provides shared utilities for integration tests: a
// relay bootstrapper and small wire-protocol helpers for driving WebSocket
// clients.
package testhelpers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"chatrelay/internal/relay"
	"chatrelay/internal/server"
)

// StartRelay boots a hub behind an httptest server and registers cleanup.
// It returns the hub and the server's base HTTP URL.
func StartRelay(t *testing.T) (*server.Hub, string) {
	t.Helper()

	cfg := server.NewConfig()
	cfg.AllowedOrigins = []string{"*"}

	hub := server.NewHub(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts := httptest.NewServer(hub.Routes())
	t.Cleanup(func() {
		_ = hub.Shutdown(2 * time.Second)
		ts.Close()
	})

	return hub, ts.URL
}

// Dial opens a WebSocket client against a relay started with StartRelay.
func Dial(t *testing.T, baseURL string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws"
	// The relay rejects upgrades without an Origin header, wildcard or not.
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": []string{baseURL}})
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// Send writes one envelope frame.
func Send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()

	raw, err := json.Marshal(data)
	require.NoError(t, err)
	frame, err := json.Marshal(relay.Envelope{Event: event, Data: raw})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

// Expect reads the next frame and requires it to carry the given event name,
// returning its data payload.
func Expect(t *testing.T, conn *websocket.Conn, event string) json.RawMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var env relay.Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	require.Equal(t, event, env.Event)
	return env.Data
}

// ExpectSilence requires that no frame arrives within the given window. The
// read timeout leaves the connection's read side unusable, so this must be
// the last read a test performs on the connection.
func ExpectSilence(t *testing.T, conn *websocket.Conn, window time.Duration) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(window)))
	_, frame, err := conn.ReadMessage()
	require.Error(t, err, "unexpected frame: %s", frame)
	require.True(t, strings.Contains(err.Error(), "timeout") || strings.Contains(err.Error(), "deadline"),
		"expected a read timeout, got: %v", err)
}

// Setup performs the identity handshake and consumes the ack.
func Setup(t *testing.T, conn *websocket.Conn, identity string) {
	t.Helper()

	Send(t, conn, relay.EventSetup, map[string]string{"_id": identity})
	Expect(t, conn, relay.EventConnected)
}

// JoinChat joins a chat room; the relay sends no reply for a join.
func JoinChat(t *testing.T, conn *websocket.Conn, room string) {
	t.Helper()
	Send(t, conn, relay.EventJoinChat, room)
}

// Message builds a "new message" body the way the REST layer would: a
// resolved sender and participant list plus arbitrary content.
func Message(sender string, participants []string, content string) map[string]any {
	users := make([]map[string]string, 0, len(participants))
	for _, p := range participants {
		users = append(users, map[string]string{"_id": p})
	}
	return map[string]any{
		"sender":  map[string]string{"_id": sender},
		"chat":    map[string]any{"users": users},
		"content": content,
	}
}
