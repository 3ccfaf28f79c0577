package core

import (
	"bytes"
	"slices"

	"github.com/google/uuid"
)

// GlobalRoom is the persistent room every lobby has.
const GlobalRoom = "lobby"

// Membership is a bidirectional index between rooms and their users.
// Rooms other than GlobalRoom exist only while they have members.
// It is owned by the lobby loop and is not safe for concurrent use.
type Membership struct {
	rooms map[string]map[uuid.UUID]struct{}
	users map[uuid.UUID]map[string]struct{}
}

// NewMembership creates an index holding only the empty GlobalRoom.
func NewMembership() *Membership {
	return &Membership{
		rooms: map[string]map[uuid.UUID]struct{}{
			GlobalRoom: {},
		},
		users: make(map[uuid.UUID]map[string]struct{}),
	}
}

// Join adds the user to the room. Returns true if newly added.
func (m *Membership) Join(user uuid.UUID, room string) bool {
	members, ok := m.rooms[room]
	if !ok {
		members = make(map[uuid.UUID]struct{})
		m.rooms[room] = members
	}
	if _, exists := members[user]; exists {
		return false
	}
	members[user] = struct{}{}

	joined, ok := m.users[user]
	if !ok {
		joined = make(map[string]struct{})
		m.users[user] = joined
	}
	joined[room] = struct{}{}
	return true
}

// Leave removes the user from the room and returns how many members remain.
// A non-global room left empty is deleted.
func (m *Membership) Leave(user uuid.UUID, room string) int {
	if joined, ok := m.users[user]; ok {
		delete(joined, room)
		if len(joined) == 0 {
			delete(m.users, user)
		}
	}

	members, ok := m.rooms[room]
	if !ok {
		return 0
	}
	delete(members, user)
	if len(members) == 0 && room != GlobalRoom {
		delete(m.rooms, room)
	}
	return len(members)
}

// Contains reports whether the user is in the room.
func (m *Membership) Contains(user uuid.UUID, room string) bool {
	_, ok := m.rooms[room][user]
	return ok
}

// Exists reports whether the room is tracked.
func (m *Membership) Exists(room string) bool {
	_, ok := m.rooms[room]
	return ok
}

// MembersOf returns the room's members, empty for unknown rooms.
func (m *Membership) MembersOf(room string) []uuid.UUID {
	members := m.rooms[room]
	ids := make([]uuid.UUID, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// RoomsOf returns the rooms the user is in, empty for unknown users.
func (m *Membership) RoomsOf(user uuid.UUID) []string {
	joined := m.users[user]
	rooms := make([]string, 0, len(joined))
	for room := range joined {
		rooms = append(rooms, room)
	}
	slices.Sort(rooms)
	return rooms
}

func sortIDs(ids []uuid.UUID) {
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
}
