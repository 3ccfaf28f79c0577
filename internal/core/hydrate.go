package core

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/vovakirdan/lobby-server/internal/proto"
)

// Directory is the read side of storage the lobby hydrates connections from.
// All methods may block on I/O and must honour ctx.
type Directory interface {
	// PublicProfile resolves a user. An error means the user is not known.
	PublicProfile(ctx context.Context, id uuid.UUID) (*proto.UserProfile, error)
	// UrgentGames lists ids of games waiting on the user.
	UrgentGames(ctx context.Context, id uuid.UUID) ([]string, error)
	// GameSummary resolves a game id.
	GameSummary(ctx context.Context, gameID string) (*proto.GameSummary, error)
	// PublicChallenges lists public challenge ids, leaving out exclude's own.
	PublicChallenges(ctx context.Context, exclude *uuid.UUID) ([]string, error)
	// OwnChallenges lists ids of the user's own challenges.
	OwnChallenges(ctx context.Context, id uuid.UUID) ([]string, error)
	// ChallengeSummary resolves a challenge id.
	ChallengeSummary(ctx context.Context, challengeID string) (*proto.ChallengeSummary, error)
}

// spawn runs fn in a detached task bounded by HydrationTimeout and the
// MaxHydrations slots. The task may only reach lobby state through submit.
func (l *Lobby) spawn(ctx context.Context, name string, user uuid.UUID, fn func(context.Context)) {
	l.tasks.Add(1)
	go func() {
		defer l.tasks.Done()

		taskCtx, cancel := context.WithTimeout(ctx, l.opts.HydrationTimeout)
		defer cancel()

		if err := l.slots.Acquire(taskCtx, 1); err != nil {
			l.log.Warn().Err(err).Str("task", name).Str("user_id", user.String()).Msg("no task slot, dropped")
			return
		}
		defer l.slots.Release(1)

		fn(taskCtx)

		if errors.Is(taskCtx.Err(), context.DeadlineExceeded) {
			l.log.Warn().Str("task", name).Str("user_id", user.String()).Msg("task timed out, results partial")
		}
	}()
}

// hydrate pushes initial state to a freshly connected user. Each step is
// independent; a failed step only omits its own message.
func (l *Lobby) hydrate(ctx context.Context, user uuid.UUID, peers []uuid.UUID) {
	for _, peer := range peers {
		if ctx.Err() != nil {
			break
		}
		profile, err := l.dir.PublicProfile(ctx, peer)
		if err != nil {
			continue
		}
		l.deliver(user, proto.UserStatus{
			Status:   proto.StatusOnline,
			User:     profile,
			Username: profile.Username,
		})
	}

	if _, err := l.dir.PublicProfile(ctx, user); err != nil {
		l.log.Debug().Err(err).Str("user_id", user.String()).Msg("hydrating anonymous user")
		l.sendChallenges(ctx, user, false)
		return
	}
	l.sendUrgentGames(ctx, user)
	l.sendChallenges(ctx, user, true)
}

func (l *Lobby) sendUrgentGames(ctx context.Context, user uuid.UUID) {
	ids, err := l.dir.UrgentGames(ctx, user)
	if err != nil {
		l.log.Warn().Err(err).Str("user_id", user.String()).Msg("list urgent games")
		return
	}

	games := make([]proto.GameSummary, 0, len(ids))
	for _, id := range ids {
		game, err := l.dir.GameSummary(ctx, id)
		if err != nil {
			l.log.Debug().Err(err).Str("game_id", id).Msg("resolve game")
			continue
		}
		games = append(games, *game)
	}
	if len(games) == 0 {
		return
	}
	l.deliver(user, proto.GameActionNotification{Games: games})
}

func (l *Lobby) sendChallenges(ctx context.Context, user uuid.UUID, known bool) {
	var exclude *uuid.UUID
	if known {
		exclude = &user
	}

	// Each listing contributes what it can; the message is omitted only when
	// none of them succeeded.
	var ids []string
	listed := false
	public, err := l.dir.PublicChallenges(ctx, exclude)
	if err != nil {
		l.log.Warn().Err(err).Str("user_id", user.String()).Msg("list public challenges")
	} else {
		ids = append(ids, public...)
		listed = true
	}
	if known {
		own, err := l.dir.OwnChallenges(ctx, user)
		if err != nil {
			l.log.Warn().Err(err).Str("user_id", user.String()).Msg("list own challenges")
		} else {
			ids = append(ids, own...)
			listed = true
		}
	}
	if !listed {
		return
	}

	challenges := make([]proto.ChallengeSummary, 0, len(ids))
	for _, id := range ids {
		challenge, err := l.dir.ChallengeSummary(ctx, id)
		if err != nil {
			l.log.Debug().Err(err).Str("challenge_id", id).Msg("resolve challenge")
			continue
		}
		challenges = append(challenges, *challenge)
	}
	l.deliver(user, proto.ChallengeList{Challenges: challenges})
}

// deliver re-enters the loop with a message addressed to the user only.
func (l *Lobby) deliver(user uuid.UUID, p proto.Payload) {
	env := Envelope{
		Destination: Direct(user),
		Payload:     proto.MustEncode(p),
		From:        user,
	}
	if err := l.submit(env); err != nil {
		l.log.Debug().Err(err).Str("user_id", user.String()).Msg("hydration message dropped")
	}
}
