package relay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoomManager_JoinIsIdempotent(t *testing.T) {
	tc := newTestCore()
	s, _ := tc.connect()

	tc.rooms.Join(s, "chat42")
	tc.rooms.Join(s, "chat42")

	require.Len(t, tc.rooms.MembersOf("chat42"), 1)
	require.Equal(t, []string{"chat42"}, tc.rooms.RoomsOf(s))
}

func TestRoomManager_MembersOfUnknownRoomIsEmpty(t *testing.T) {
	tc := newTestCore()
	require.Empty(t, tc.rooms.MembersOf("nowhere"))
}

func TestRoomManager_LeaveIsNoopForNonMember(t *testing.T) {
	tc := newTestCore()
	s, _ := tc.connect()

	tc.rooms.Leave(s, "chat42")
	tc.rooms.Join(s, "chat42")
	tc.rooms.Leave(s, "other")

	require.Len(t, tc.rooms.MembersOf("chat42"), 1)
}

func TestRoomManager_LeaveAll(t *testing.T) {
	tc := newTestCore()
	s, _ := tc.connect()
	other, _ := tc.connect()

	tc.rooms.Join(s, "a")
	tc.rooms.Join(s, "b")
	tc.rooms.Join(other, "b")

	tc.rooms.LeaveAll(s)

	require.Empty(t, tc.rooms.RoomsOf(s))
	require.Empty(t, tc.rooms.MembersOf("a"))
	require.Len(t, tc.rooms.MembersOf("b"), 1)

	// Idempotent on an already-cleaned connection.
	tc.rooms.LeaveAll(s)
	require.Empty(t, tc.rooms.RoomsOf(s))
}

func TestRoomManager_IndexesStayConsistent(t *testing.T) {
	tc := newTestCore()
	s1, _ := tc.connect()
	s2, _ := tc.connect()

	tc.rooms.Join(s1, "a")
	tc.rooms.Join(s1, "b")
	tc.rooms.Join(s2, "b")
	tc.rooms.Leave(s1, "a")

	// A connection's room set must equal the set of rooms listing it.
	for _, s := range []*Session{s1, s2} {
		for _, room := range tc.rooms.RoomsOf(s) {
			require.Contains(t, tc.rooms.MembersOf(room), s)
		}
	}
	require.NotContains(t, tc.rooms.MembersOf("a"), s1)

	rooms, memberships := tc.rooms.Counts()
	require.Equal(t, 2, rooms) // "a" survives empty
	require.Equal(t, 2, memberships)
}
