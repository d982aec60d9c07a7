// Package relay tracks per-connection session state via the Registry, which
// owns identity binding and session lookup for the relay core.
package relay

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Sink delivers an encoded frame to one connection. Deliver must not block;
// it reports false when the frame could not be accepted (for example a full
// outbound buffer), leaving the transport to tear the connection down.
type Sink interface {
	Deliver(frame []byte) bool
}

// Session is the relay-side state of one live connection: a unique id, the
// identity bound by "setup" (empty until then), and the delivery sink.
// Room membership is tracked by the RoomManager, not duplicated here.
type Session struct {
	id   string
	sink Sink

	mu       sync.RWMutex
	identity string

	cleanup sync.Once
}

// ID returns the session's connection id.
func (s *Session) ID() string { return s.id }

// Identity returns the identity bound to this session, or "" before setup.
func (s *Session) Identity() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Deliver forwards a frame to the session's transport sink.
func (s *Session) Deliver(frame []byte) bool {
	return s.sink.Deliver(frame)
}

func (s *Session) setIdentity(identity string) (previous string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous = s.identity
	s.identity = identity
	return previous
}

// Registry owns the set of live sessions. All methods are safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	log      *slog.Logger
}

// NewRegistry creates an empty session registry.
func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		log:      log.With("component", "registry"),
	}
}

// Register allocates a session for a freshly-established connection, with no
// identity and no room memberships.
func (r *Registry) Register(sink Sink) *Session {
	s := &Session{id: uuid.NewString(), sink: sink}

	r.mu.Lock()
	r.sessions[s.id] = s
	count := len(r.sessions)
	r.mu.Unlock()

	r.log.Debug("session registered", "conn", s.id, "sessions", count)
	return s
}

// BindIdentity stores the identity on the session and returns the previously
// bound identity ("" if none). Room moves for a rebind are the Router's job,
// so that membership state stays solely in the RoomManager.
func (r *Registry) BindIdentity(s *Session, identity string) (previous string) {
	previous = s.setIdentity(identity)
	if previous != "" && previous != identity {
		r.log.Info("session identity rebound", "conn", s.id, "previous", previous, "identity", identity)
	}
	return previous
}

// Unregister removes the session record. Calling it for a session that was
// already removed is a no-op.
func (r *Registry) Unregister(s *Session) {
	r.mu.Lock()
	_, ok := r.sessions[s.id]
	delete(r.sessions, s.id)
	count := len(r.sessions)
	r.mu.Unlock()

	if ok {
		r.log.Debug("session unregistered", "conn", s.id, "sessions", count)
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
