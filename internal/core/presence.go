package core

import (
	"context"

	"github.com/google/uuid"

	"github.com/vovakirdan/lobby-server/internal/proto"
)

func (l *Lobby) handleConnect(ctx context.Context, ev Connect) {
	room := ev.RoomID
	if room == "" {
		room = GlobalRoom
	}

	replaced := l.registry.Register(ev.UserID, ev.Socket)
	l.membership.Join(ev.UserID, room)

	l.log.Info().
		Str("user_id", ev.UserID.String()).
		Str("username", ev.Username).
		Str("room", room).
		Bool("reconnect", replaced).
		Int("sessions", l.registry.Len()).
		Msg("user connected")

	peers := make([]uuid.UUID, 0, l.registry.Len())
	for _, id := range l.registry.Online() {
		if id != ev.UserID {
			peers = append(peers, id)
		}
	}

	user, username := ev.UserID, ev.Username
	l.spawn(ctx, "announce", user, func(ctx context.Context) {
		l.announceOnline(ctx, user, room, username)
	})
	l.spawn(ctx, "hydrate", user, func(ctx context.Context) {
		l.hydrate(ctx, user, peers)
	})
}

// announceOnline tells the user's room that a known user came online.
func (l *Lobby) announceOnline(ctx context.Context, user uuid.UUID, room, username string) {
	profile, err := l.dir.PublicProfile(ctx, user)
	if err != nil {
		l.log.Debug().Err(err).Str("user_id", user.String()).Msg("no profile, online broadcast skipped")
		return
	}
	payload := proto.MustEncode(proto.UserStatus{
		Status:   proto.StatusOnline,
		User:     profile,
		Username: username,
	})
	if err := l.submit(announce{user: user, room: room, payload: payload}); err != nil {
		l.log.Debug().Err(err).Str("user_id", user.String()).Msg("online broadcast dropped")
	}
}

// announce is an Online broadcast computed off the loop. It only goes out if
// the user is still connected and still in the room when it arrives.
type announce struct {
	user    uuid.UUID
	room    string
	payload []byte
}

func (announce) isCommand() {}

func (l *Lobby) handleAnnounce(a announce) {
	if _, live := l.registry.Lookup(a.user); !live || !l.membership.Contains(a.user, a.room) {
		l.log.Debug().Str("user_id", a.user.String()).Str("room", a.room).Msg("late online broadcast dropped")
		return
	}
	l.router.Broadcast(a.room, a.payload)
}

func (l *Lobby) handleDisconnect(ev Disconnect) {
	current, ok := l.registry.Lookup(ev.UserID)
	if !ok {
		return
	}
	if ev.Socket != nil && current != ev.Socket {
		l.log.Debug().Str("user_id", ev.UserID.String()).Msg("stale disconnect ignored")
		return
	}

	l.registry.Unregister(ev.UserID)

	payload := proto.MustEncode(proto.UserStatus{
		Status:   proto.StatusOffline,
		Username: ev.Username,
	})
	for _, room := range l.membership.RoomsOf(ev.UserID) {
		if l.membership.Leave(ev.UserID, room) == 0 {
			continue
		}
		l.router.Broadcast(room, payload)
	}

	l.log.Info().
		Str("user_id", ev.UserID.String()).
		Str("username", ev.Username).
		Int("sessions", l.registry.Len()).
		Msg("user disconnected")
}
