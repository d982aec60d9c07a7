package relay

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// captureSink records delivered frames for assertions. When reject is set it
// refuses every delivery, mimicking a client with a full send buffer.
type captureSink struct {
	mu     sync.Mutex
	frames [][]byte
	reject bool
}

func (c *captureSink) Deliver(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reject {
		return false
	}
	c.frames = append(c.frames, append([]byte(nil), frame...))
	return true
}

// events returns the event names of every delivered frame, in order.
func (c *captureSink) events(t *testing.T) []string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.frames))
	for _, frame := range c.frames {
		var env Envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		names = append(names, env.Event)
	}
	return names
}

// last returns the most recently delivered envelope.
func (c *captureSink) last(t *testing.T) Envelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	require.NotEmpty(t, c.frames)
	var env Envelope
	require.NoError(t, json.Unmarshal(c.frames[len(c.frames)-1], &env))
	return env
}

type testCore struct {
	registry    *Registry
	rooms       *RoomManager
	broadcaster *Broadcaster
	router      *Router
	lifecycle   *Lifecycle
}

func newTestCore() testCore {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := NewRegistry(log)
	rooms := NewRoomManager()
	broadcaster := NewBroadcaster(rooms, log)

	return testCore{
		registry:    registry,
		rooms:       rooms,
		broadcaster: broadcaster,
		router:      NewRouter(registry, rooms, broadcaster, log),
		lifecycle:   NewLifecycle(registry, rooms, log),
	}
}

// connect registers a session backed by a fresh capture sink.
func (tc testCore) connect() (*Session, *captureSink) {
	sink := &captureSink{}
	return tc.registry.Register(sink), sink
}

// frame builds a wire frame for an inbound event.
func frame(t *testing.T, event string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	out, err := json.Marshal(Envelope{Event: event, Data: raw})
	require.NoError(t, err)
	return out
}

type wireUser struct {
	ID string `json:"_id"`
}

type wireMessage struct {
	Sender  wireUser `json:"sender"`
	Chat    wireChat `json:"chat"`
	Content string   `json:"content,omitempty"`
}

type wireChat struct {
	Users []wireUser `json:"users,omitempty"`
}

func messageFrame(t *testing.T, sender string, participants []string, content string) []byte {
	t.Helper()
	msg := wireMessage{Sender: wireUser{ID: sender}, Content: content}
	for _, p := range participants {
		msg.Chat.Users = append(msg.Chat.Users, wireUser{ID: p})
	}
	return frame(t, EventNewMessage, msg)
}
