package core

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Registry maps a user to the socket of its current connection.
// It is owned by the lobby loop and is not safe for concurrent use.
type Registry struct {
	sessions map[uuid.UUID]Socket
	log      *zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zerolog.Logger) *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]Socket),
		log:      orNop(logger),
	}
}

// Register inserts or replaces the user's socket. Returns true if a previous
// socket was replaced; that socket is left open.
func (r *Registry) Register(id uuid.UUID, s Socket) bool {
	_, replaced := r.sessions[id]
	r.sessions[id] = s
	return replaced
}

// Unregister removes the user's socket. It is a no-op for unknown users.
func (r *Registry) Unregister(id uuid.UUID) {
	delete(r.sessions, id)
}

// Lookup returns the user's current socket.
func (r *Registry) Lookup(id uuid.UUID) (Socket, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

// Online returns the ids of all registered users.
func (r *Registry) Online() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return len(r.sessions)
}

// Send pushes a payload to the user's socket. Failures are logged and
// returned; they never affect other deliveries.
func (r *Registry) Send(id uuid.UUID, payload []byte) error {
	s, ok := r.sessions[id]
	if !ok {
		r.log.Debug().Str("user_id", id.String()).Msg("send to unknown recipient skipped")
		return fmt.Errorf("%w: %s", ErrUnknownRecipient, id)
	}
	if err := s.Push(payload); err != nil {
		r.log.Warn().Err(err).Str("user_id", id.String()).Msg("drop outbound message")
		return fmt.Errorf("push to %s: %w", id, err)
	}
	return nil
}
