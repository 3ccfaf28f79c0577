package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Options tunes the lobby loop and its background tasks.
type Options struct {
	// HydrationTimeout bounds every background task started for a Connect.
	HydrationTimeout time.Duration
	// MaxHydrations caps concurrently running background tasks.
	MaxHydrations int64
	// InboxSize is the buffer of the command queue.
	InboxSize int
}

// DefaultOptions returns the options used when fields are left zero.
func DefaultOptions() Options {
	return Options{
		HydrationTimeout: 10 * time.Second,
		MaxHydrations:    256,
		InboxSize:        256,
	}
}

// Connect registers a user's connection and puts it in a room.
type Connect struct {
	UserID   uuid.UUID
	RoomID   string // empty means GlobalRoom
	Socket   Socket
	Username string
}

// Disconnect removes a user's connection. If Socket is set and no longer the
// registered one, the event is stale and ignored.
type Disconnect struct {
	UserID   uuid.UUID
	Username string
	Socket   Socket
}

type command interface {
	isCommand()
}

func (Connect) isCommand()    {}
func (Disconnect) isCommand() {}

type query struct {
	fn   func()
	done chan struct{}
}

func (query) isCommand() {}

// Lobby owns all cross-connection state. Every mutation runs on the Run loop;
// background tasks only feed it commands.
type Lobby struct {
	dir  Directory
	opts Options
	log  *zerolog.Logger

	inbox chan command
	quit  chan struct{}
	tasks sync.WaitGroup
	slots *semaphore.Weighted

	registry   *Registry
	membership *Membership
	router     *Router
}

// New creates a lobby backed by the given directory.
func New(dir Directory, opts Options, logger *zerolog.Logger) *Lobby {
	def := DefaultOptions()
	if opts.HydrationTimeout <= 0 {
		opts.HydrationTimeout = def.HydrationTimeout
	}
	if opts.MaxHydrations <= 0 {
		opts.MaxHydrations = def.MaxHydrations
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = def.InboxSize
	}

	logger = orNop(logger)
	registry := NewRegistry(logger)
	membership := NewMembership()

	return &Lobby{
		dir:        dir,
		opts:       opts,
		log:        logger,
		inbox:      make(chan command, opts.InboxSize),
		quit:       make(chan struct{}),
		slots:      semaphore.NewWeighted(opts.MaxHydrations),
		registry:   registry,
		membership: membership,
		router:     NewRouter(registry, membership, logger),
	}
}

// Run processes commands until ctx is cancelled, then waits for background
// tasks to finish. It must be called once.
func (l *Lobby) Run(ctx context.Context) {
	defer l.tasks.Wait()
	defer close(l.quit)

	l.log.Info().Msg("lobby started")
	for {
		select {
		case <-ctx.Done():
			l.log.Info().Int("sessions", l.registry.Len()).Msg("lobby stopping")
			return
		case cmd := <-l.inbox:
			l.handle(ctx, cmd)
		}
	}
}

func (l *Lobby) handle(ctx context.Context, cmd command) {
	switch c := cmd.(type) {
	case Connect:
		l.handleConnect(ctx, c)
	case Disconnect:
		l.handleDisconnect(c)
	case announce:
		l.handleAnnounce(c)
	case Envelope:
		if _, err := l.router.Dispatch(c); err != nil {
			l.log.Debug().Err(err).Str("destination", c.Destination.String()).Msg("dispatch incomplete")
		}
	case query:
		c.fn()
		close(c.done)
	}
}

func (l *Lobby) submit(cmd command) error {
	select {
	case l.inbox <- cmd:
		return nil
	case <-l.quit:
		return ErrLobbyStopped
	}
}

// Connect queues a Connect event.
func (l *Lobby) Connect(ev Connect) error {
	return l.submit(ev)
}

// Disconnect queues a Disconnect event.
func (l *Lobby) Disconnect(ev Disconnect) error {
	return l.submit(ev)
}

// Dispatch queues an envelope for delivery.
func (l *Lobby) Dispatch(env Envelope) error {
	return l.submit(env)
}

func (l *Lobby) query(ctx context.Context, fn func()) error {
	q := query{fn: fn, done: make(chan struct{})}
	select {
	case l.inbox <- q:
	case <-l.quit:
		return ErrLobbyStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-q.done:
		return nil
	case <-l.quit:
		return ErrLobbyStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MembersOf returns the current members of a room.
func (l *Lobby) MembersOf(ctx context.Context, room string) ([]uuid.UUID, error) {
	var members []uuid.UUID
	if err := l.query(ctx, func() { members = l.membership.MembersOf(room) }); err != nil {
		return nil, err
	}
	return members, nil
}

// RoomsOf returns the rooms a user is currently in.
func (l *Lobby) RoomsOf(ctx context.Context, user uuid.UUID) ([]string, error) {
	var rooms []string
	if err := l.query(ctx, func() { rooms = l.membership.RoomsOf(user) }); err != nil {
		return nil, err
	}
	return rooms, nil
}

// Online returns the users with a live session.
func (l *Lobby) Online(ctx context.Context) ([]uuid.UUID, error) {
	var online []uuid.UUID
	if err := l.query(ctx, func() { online = l.registry.Online() }); err != nil {
		return nil, err
	}
	return online, nil
}

func orNop(logger *zerolog.Logger) *zerolog.Logger {
	if logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return logger
}
