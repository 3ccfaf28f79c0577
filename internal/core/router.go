package core

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DestinationKind selects how an envelope is addressed.
type DestinationKind int

const (
	// DestinationDirect delivers to a single user.
	DestinationDirect DestinationKind = iota
	// DestinationGame fans out to every member of a game room.
	DestinationGame
	// DestinationGlobal fans out to every member of GlobalRoom.
	DestinationGlobal
)

// Destination is where an envelope should go.
type Destination struct {
	Kind DestinationKind
	User uuid.UUID // DestinationDirect
	Room string    // DestinationGame
}

// Direct addresses a single user.
func Direct(user uuid.UUID) Destination {
	return Destination{Kind: DestinationDirect, User: user}
}

// Game addresses a game room.
func Game(room string) Destination {
	return Destination{Kind: DestinationGame, Room: room}
}

// Global addresses the global room.
func Global() Destination {
	return Destination{Kind: DestinationGlobal}
}

// RoomDestination addresses a room by id, mapping GlobalRoom to Global.
func RoomDestination(room string) Destination {
	if room == "" || room == GlobalRoom {
		return Global()
	}
	return Game(room)
}

func (d Destination) String() string {
	switch d.Kind {
	case DestinationDirect:
		return "direct:" + d.User.String()
	case DestinationGame:
		return "game:" + d.Room
	case DestinationGlobal:
		return "global"
	default:
		return fmt.Sprintf("unknown(%d)", d.Kind)
	}
}

// Envelope is a serialized payload on its way to a destination.
type Envelope struct {
	Destination Destination
	Payload     []byte
	From        uuid.UUID
}

func (Envelope) isCommand() {}

// Router resolves destinations to recipients and delivers through the registry.
type Router struct {
	registry   *Registry
	membership *Membership
	log        *zerolog.Logger
}

// NewRouter creates a router over the given registry and membership index.
func NewRouter(registry *Registry, membership *Membership, logger *zerolog.Logger) *Router {
	return &Router{
		registry:   registry,
		membership: membership,
		log:        orNop(logger),
	}
}

// Dispatch delivers the envelope and returns how many recipients accepted it.
// Room destinations first join the sender to the room when the sender has a
// live session.
func (r *Router) Dispatch(env Envelope) (int, error) {
	switch env.Destination.Kind {
	case DestinationDirect:
		if err := r.registry.Send(env.Destination.User, env.Payload); err != nil {
			return 0, err
		}
		return 1, nil
	case DestinationGame:
		if env.Destination.Room == "" {
			return 0, fmt.Errorf("%w: empty room", ErrBadDestination)
		}
		return r.fanOut(env.From, env.Destination.Room, env.Payload), nil
	case DestinationGlobal:
		return r.fanOut(env.From, GlobalRoom, env.Payload), nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrBadDestination, env.Destination)
	}
}

func (r *Router) fanOut(sender uuid.UUID, room string, payload []byte) int {
	if _, live := r.registry.Lookup(sender); live && !r.membership.Contains(sender, room) {
		r.membership.Join(sender, room)
		r.log.Debug().Str("user_id", sender.String()).Str("room", room).Msg("sender joined room")
	}
	return r.Broadcast(room, payload)
}

// Broadcast delivers the payload to every current member of the room.
// A failed recipient is skipped.
func (r *Router) Broadcast(room string, payload []byte) int {
	delivered := 0
	for _, member := range r.membership.MembersOf(room) {
		if err := r.registry.Send(member, payload); err != nil {
			continue
		}
		delivered++
	}
	return delivered
}
