// Package relay maintains room membership through the RoomManager, a pair of
// mutually-consistent indexes: room to members, and connection to rooms.
package relay

import (
	"sync"

	"github.com/samber/lo"
)

// RoomManager owns the room-to-members map and the reverse
// connection-to-rooms index used for O(rooms) disconnect cleanup. Rooms are created lazily on
// first join and never destroyed; an empty room behaves exactly like an
// unknown one. Safe for concurrent use.
type RoomManager struct {
	mu     sync.RWMutex
	byRoom map[string]map[*Session]struct{}
	byConn map[*Session]map[string]struct{}
}

// NewRoomManager creates an empty room manager.
func NewRoomManager() *RoomManager {
	return &RoomManager{
		byRoom: make(map[string]map[*Session]struct{}),
		byConn: make(map[*Session]map[string]struct{}),
	}
}

// Join adds the session to the named room, creating the room if absent.
// Re-joining is idempotent: membership is a set, so repeated joins never
// cause duplicate delivery.
func (m *RoomManager) Join(s *Session, room string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.byRoom[room]
	if !ok {
		members = make(map[*Session]struct{})
		m.byRoom[room] = members
	}
	members[s] = struct{}{}

	rooms, ok := m.byConn[s]
	if !ok {
		rooms = make(map[string]struct{})
		m.byConn[s] = rooms
	}
	rooms[room] = struct{}{}
}

// Leave removes the session from the named room. A no-op when the session is
// not a member or the room does not exist.
func (m *RoomManager) Leave(s *Session, room string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveLocked(s, room)
}

func (m *RoomManager) leaveLocked(s *Session, room string) {
	if members, ok := m.byRoom[room]; ok {
		delete(members, s)
	}
	if rooms, ok := m.byConn[s]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(m.byConn, s)
		}
	}
}

// LeaveAll removes the session from every room it occupies. Idempotent: safe
// to call for a session that never joined anything or was already cleaned.
func (m *RoomManager) LeaveAll(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for room := range m.byConn[s] {
		if members, ok := m.byRoom[room]; ok {
			delete(members, s)
		}
	}
	delete(m.byConn, s)
}

// MembersOf returns a snapshot of the room's members. Unknown rooms yield an
// empty slice, never an error.
func (m *RoomManager) MembersOf(room string) []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.Keys(m.byRoom[room])
}

// RoomsOf returns a snapshot of the rooms the session currently occupies.
func (m *RoomManager) RoomsOf(s *Session) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.Keys(m.byConn[s])
}

// Counts reports the number of known rooms and the total number of
// memberships across them.
func (m *RoomManager) Counts() (rooms, memberships int) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rooms = len(m.byRoom)
	for _, members := range m.byRoom {
		memberships += len(members)
	}
	return rooms, memberships
}
