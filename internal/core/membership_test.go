package core

import (
	"slices"
	"testing"

	"github.com/google/uuid"
	"pgregory.net/rapid"
)

func TestMembershipJoinIsIdempotent(t *testing.T) {
	m := NewMembership()
	u := uuid.New()

	if !m.Join(u, "g1") {
		t.Fatalf("expected first join to add")
	}
	if m.Join(u, "g1") {
		t.Fatalf("expected second join to be a no-op")
	}
	if got := m.MembersOf("g1"); len(got) != 1 || got[0] != u {
		t.Fatalf("unexpected members: %v", got)
	}
	if got := m.RoomsOf(u); !slices.Equal(got, []string{"g1"}) {
		t.Fatalf("unexpected rooms: %v", got)
	}
}

func TestMembershipPrunesEmptyGameRooms(t *testing.T) {
	m := NewMembership()
	a, b := uuid.New(), uuid.New()

	m.Join(a, "g1")
	m.Join(b, "g1")

	if left := m.Leave(a, "g1"); left != 1 {
		t.Fatalf("expected 1 member left, got %d", left)
	}
	if !m.Exists("g1") {
		t.Fatalf("room with members must survive")
	}
	if left := m.Leave(b, "g1"); left != 0 {
		t.Fatalf("expected 0 members left, got %d", left)
	}
	if m.Exists("g1") {
		t.Fatalf("empty game room must be pruned")
	}
	if got := m.RoomsOf(b); len(got) != 0 {
		t.Fatalf("expected no rooms for b, got %v", got)
	}
}

func TestMembershipNeverPrunesGlobal(t *testing.T) {
	m := NewMembership()
	u := uuid.New()

	if !m.Exists(GlobalRoom) {
		t.Fatalf("global room must exist from the start")
	}
	m.Join(u, GlobalRoom)
	m.Leave(u, GlobalRoom)

	if !m.Exists(GlobalRoom) {
		t.Fatalf("global room must never be pruned")
	}
	if got := m.MembersOf(GlobalRoom); len(got) != 0 {
		t.Fatalf("expected empty global room, got %v", got)
	}
}

func TestMembershipUnknownReadsAreEmpty(t *testing.T) {
	m := NewMembership()

	if got := m.MembersOf("nope"); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil members, got %v", got)
	}
	if got := m.RoomsOf(uuid.New()); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil rooms, got %v", got)
	}
	if m.Exists("nope") {
		t.Fatalf("reads must not create rooms")
	}
	if left := m.Leave(uuid.New(), "nope"); left != 0 {
		t.Fatalf("expected 0, got %d", left)
	}
}

func TestMembershipSymmetryProperty(t *testing.T) {
	users := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	rooms := []string{GlobalRoom, "g1", "g2", "g3"}

	rapid.Check(t, func(t *rapid.T) {
		m := NewMembership()

		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			user := rapid.SampledFrom(users).Draw(t, "user")
			room := rapid.SampledFrom(rooms).Draw(t, "room")
			if rapid.Bool().Draw(t, "join") {
				m.Join(user, room)
			} else {
				m.Leave(user, room)
			}

			for _, u := range users {
				for _, r := range rooms {
					inRooms := slices.Contains(m.RoomsOf(u), r)
					inMembers := slices.Contains(m.MembersOf(r), u)
					if inRooms != inMembers {
						t.Fatalf("asymmetric index for %s/%s: rooms=%v members=%v", u, r, inRooms, inMembers)
					}
				}
			}
			for r, members := range m.rooms {
				if len(members) == 0 && r != GlobalRoom {
					t.Fatalf("empty room %s not pruned", r)
				}
			}
			if !m.Exists(GlobalRoom) {
				t.Fatalf("global room pruned")
			}
		}
	})
}
