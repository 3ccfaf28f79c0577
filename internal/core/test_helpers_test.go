package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/lobby-server/internal/proto"
)

var errNotFound = errors.New("not found")

type fakeChallenge struct {
	summary proto.ChallengeSummary
	owner   uuid.UUID
	public  bool
}

// fakeDirectory is an in-memory Directory. A non-zero delay makes every call
// wait that long or until ctx is done.
type fakeDirectory struct {
	mu         sync.Mutex
	profiles   map[uuid.UUID]*proto.UserProfile
	urgent     map[uuid.UUID][]string
	games      map[string]*proto.GameSummary
	challenges []fakeChallenge
	delay      time.Duration
	failOwn    bool
	failPublic bool

	publicCalls []*uuid.UUID
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		profiles: make(map[uuid.UUID]*proto.UserProfile),
		urgent:   make(map[uuid.UUID][]string),
		games:    make(map[string]*proto.GameSummary),
	}
}

func (d *fakeDirectory) addUser(name string) uuid.UUID {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := uuid.New()
	d.profiles[id] = &proto.UserProfile{UID: id, Username: name, Rating: 1500}
	return id
}

func (d *fakeDirectory) addChallenge(id string, owner uuid.UUID, public bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.challenges = append(d.challenges, fakeChallenge{
		summary: proto.ChallengeSummary{ChallengeID: id, Challenger: proto.UserProfile{UID: owner}},
		owner:   owner,
		public:  public,
	})
}

func (d *fakeDirectory) wait(ctx context.Context) error {
	if d.delay == 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(d.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *fakeDirectory) PublicProfile(ctx context.Context, id uuid.UUID) (*proto.UserProfile, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.profiles[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *p
	return &cp, nil
}

func (d *fakeDirectory) UrgentGames(ctx context.Context, id uuid.UUID) ([]string, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.urgent[id]...), nil
}

func (d *fakeDirectory) GameSummary(ctx context.Context, gameID string) (*proto.GameSummary, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.games[gameID]
	if !ok {
		return nil, errNotFound
	}
	cp := *g
	return &cp, nil
}

func (d *fakeDirectory) PublicChallenges(ctx context.Context, exclude *uuid.UUID) ([]string, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.publicCalls = append(d.publicCalls, exclude)
	if d.failPublic {
		return nil, errors.New("storage unavailable")
	}
	var ids []string
	for _, c := range d.challenges {
		if !c.public || (exclude != nil && c.owner == *exclude) {
			continue
		}
		ids = append(ids, c.summary.ChallengeID)
	}
	return ids, nil
}

func (d *fakeDirectory) OwnChallenges(ctx context.Context, id uuid.UUID) ([]string, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failOwn {
		return nil, errors.New("storage unavailable")
	}
	var ids []string
	for _, c := range d.challenges {
		if c.owner == id {
			ids = append(ids, c.summary.ChallengeID)
		}
	}
	return ids, nil
}

func (d *fakeDirectory) ChallengeSummary(ctx context.Context, challengeID string) (*proto.ChallengeSummary, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range d.challenges {
		if c.summary.ChallengeID == challengeID {
			cp := c.summary
			return &cp, nil
		}
	}
	return nil, errNotFound
}

func (d *fakeDirectory) publicExclusions() []*uuid.UUID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*uuid.UUID(nil), d.publicCalls...)
}

// startLobby runs a lobby until the test ends.
func startLobby(t *testing.T, dir Directory, opts Options) *Lobby {
	t.Helper()

	l := New(dir, opts, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return l
}

// connect registers a client and returns it.
func connect(t *testing.T, l *Lobby, id uuid.UUID, room, name string) *Client {
	t.Helper()

	c := NewClient(id, name, 64)
	if err := l.Connect(Connect{UserID: id, RoomID: room, Socket: c, Username: name}); err != nil {
		t.Fatalf("connect %s: %v", name, err)
	}
	return c
}

// collect decodes frames from ch until it stays quiet for the given period.
func collect(t *testing.T, ch <-chan []byte, quiet time.Duration) []proto.Payload {
	t.Helper()

	var out []proto.Payload
	for {
		select {
		case raw := <-ch:
			p, err := proto.Decode(raw)
			if err != nil {
				t.Fatalf("decode frame: %v", err)
			}
			out = append(out, p)
		case <-time.After(quiet):
			return out
		}
	}
}

// settle waits for queued work to drain and returns everything c received.
func settle(t *testing.T, c *Client) []proto.Payload {
	t.Helper()
	return collect(t, c.Send, 150*time.Millisecond)
}

func statuses(payloads []proto.Payload) []proto.UserStatus {
	var out []proto.UserStatus
	for _, p := range payloads {
		if s, ok := p.(proto.UserStatus); ok {
			out = append(out, s)
		}
	}
	return out
}

func challengeLists(payloads []proto.Payload) []proto.ChallengeList {
	var out []proto.ChallengeList
	for _, p := range payloads {
		if c, ok := p.(proto.ChallengeList); ok {
			out = append(out, c)
		}
	}
	return out
}

func gameNotifications(payloads []proto.Payload) []proto.GameActionNotification {
	var out []proto.GameActionNotification
	for _, p := range payloads {
		if g, ok := p.(proto.GameActionNotification); ok {
			out = append(out, g)
		}
	}
	return out
}

func challengeIDs(list proto.ChallengeList) map[string]bool {
	ids := make(map[string]bool, len(list.Challenges))
	for _, c := range list.Challenges {
		ids[c.ChallengeID] = true
	}
	return ids
}
