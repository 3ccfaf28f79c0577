package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/vovakirdan/lobby-server/internal/core"
	"github.com/vovakirdan/lobby-server/internal/store"
	"github.com/vovakirdan/lobby-server/internal/store/sqlite"
)

var _ core.Directory = (*Service)(nil)

func newTestService(t *testing.T) (*Service, store.Store) {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.ApplySchema)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return New(st), st
}

func TestPublicProfileUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.PublicProfile(context.Background(), uuid.New()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGameSummaryResolvesPlayers(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	alice, err := st.CreateUser(ctx, "alice", "hash")
	if err != nil {
		t.Fatalf("create alice: %v", err)
	}
	bob, err := st.CreateUser(ctx, "bob", "hash")
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}
	game := &store.Game{ID: "g1", WhiteID: alice.ID, BlackID: bob.ID, CurrentPlayerID: bob.ID, Turn: 3, Status: store.GameStatusInProgress}
	if err := st.CreateGame(ctx, game); err != nil {
		t.Fatalf("create game: %v", err)
	}

	ids, err := svc.UrgentGames(ctx, bob.ID)
	if err != nil || len(ids) != 1 {
		t.Fatalf("expected one urgent game, got %v (%v)", ids, err)
	}

	summary, err := svc.GameSummary(ctx, ids[0])
	if err != nil {
		t.Fatalf("GameSummary: %v", err)
	}
	if summary.White.Username != "alice" || summary.Black.Username != "bob" || summary.ToMove != bob.ID || summary.Turn != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestChallengeSummaries(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	alice, _ := st.CreateUser(ctx, "alice", "hash")
	bob, _ := st.CreateUser(ctx, "bob", "hash")

	for _, c := range []*store.Challenge{
		{ID: "pub", ChallengerID: alice.ID, ColorChoice: "white", Rated: true},
		{ID: "dm", ChallengerID: bob.ID, OpponentID: &alice.ID, Visibility: store.ChallengeVisibilityDirect},
	} {
		if err := st.CreateChallenge(ctx, c); err != nil {
			t.Fatalf("create challenge: %v", err)
		}
	}

	public, err := svc.PublicChallenges(ctx, &bob.ID)
	if err != nil || len(public) != 1 || public[0] != "pub" {
		t.Fatalf("expected [pub], got %v (%v)", public, err)
	}
	own, err := svc.OwnChallenges(ctx, bob.ID)
	if err != nil || len(own) != 1 || own[0] != "dm" {
		t.Fatalf("expected [dm], got %v (%v)", own, err)
	}

	summary, err := svc.ChallengeSummary(ctx, "dm")
	if err != nil {
		t.Fatalf("ChallengeSummary: %v", err)
	}
	if summary.Challenger.Username != "bob" || summary.Opponent == nil || summary.Opponent.Username != "alice" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Visibility != string(store.ChallengeVisibilityDirect) {
		t.Fatalf("unexpected visibility %q", summary.Visibility)
	}
}
