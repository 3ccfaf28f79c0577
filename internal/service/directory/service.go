package directory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vovakirdan/lobby-server/internal/proto"
	"github.com/vovakirdan/lobby-server/internal/store"
)

// Service resolves stored records into their public response shapes.
type Service struct {
	store store.Store
}

// New creates a new directory Service.
func New(st store.Store) *Service {
	return &Service{
		store: st,
	}
}

// Profile converts a user into its public profile.
func Profile(u *store.User) proto.UserProfile {
	return proto.UserProfile{
		UID:       u.ID,
		Username:  u.Username,
		Rating:    u.Rating,
		CreatedAt: u.CreatedAt,
	}
}

// PublicProfile resolves a user by id.
func (s *Service) PublicProfile(ctx context.Context, id uuid.UUID) (*proto.UserProfile, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	profile := Profile(user)
	return &profile, nil
}

// UrgentGames lists games waiting on the user.
func (s *Service) UrgentGames(ctx context.Context, id uuid.UUID) ([]string, error) {
	return s.store.ListUrgentGameIDs(ctx, id)
}

// GameSummary resolves a game together with both players.
func (s *Service) GameSummary(ctx context.Context, gameID string) (*proto.GameSummary, error) {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	white, err := s.PublicProfile(ctx, game.WhiteID)
	if err != nil {
		return nil, fmt.Errorf("white player: %w", err)
	}
	black, err := s.PublicProfile(ctx, game.BlackID)
	if err != nil {
		return nil, fmt.Errorf("black player: %w", err)
	}

	return &proto.GameSummary{
		GameID:     game.ID,
		White:      *white,
		Black:      *black,
		ToMove:     game.CurrentPlayerID,
		Turn:       game.Turn,
		GameStatus: string(game.Status),
		TimeMode:   game.TimeMode,
		UpdatedAt:  game.UpdatedAt,
	}, nil
}

// PublicChallenges lists public challenge ids, leaving out exclude's own.
func (s *Service) PublicChallenges(ctx context.Context, exclude *uuid.UUID) ([]string, error) {
	challenges, err := s.store.ListPublicChallenges(ctx, exclude)
	if err != nil {
		return nil, err
	}
	return challengeIDs(challenges), nil
}

// OwnChallenges lists ids of every challenge the user created.
func (s *Service) OwnChallenges(ctx context.Context, id uuid.UUID) ([]string, error) {
	challenges, err := s.store.ListOwnChallenges(ctx, id)
	if err != nil {
		return nil, err
	}
	return challengeIDs(challenges), nil
}

// ChallengeSummary resolves a challenge by id.
func (s *Service) ChallengeSummary(ctx context.Context, challengeID string) (*proto.ChallengeSummary, error) {
	challenge, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	return s.Summarize(ctx, challenge)
}

// Summarize resolves the users a challenge refers to.
func (s *Service) Summarize(ctx context.Context, c *store.Challenge) (*proto.ChallengeSummary, error) {
	challenger, err := s.PublicProfile(ctx, c.ChallengerID)
	if err != nil {
		return nil, fmt.Errorf("challenger: %w", err)
	}

	summary := &proto.ChallengeSummary{
		ChallengeID: c.ID,
		Challenger:  *challenger,
		Visibility:  string(c.Visibility),
		ColorChoice: c.ColorChoice,
		Rated:       c.Rated,
		TimeMode:    c.TimeMode,
		CreatedAt:   c.CreatedAt,
	}
	if c.OpponentID != nil {
		opponent, err := s.PublicProfile(ctx, *c.OpponentID)
		if err != nil {
			return nil, fmt.Errorf("opponent: %w", err)
		}
		summary.Opponent = opponent
	}
	return summary, nil
}

func challengeIDs(challenges []*store.Challenge) []string {
	ids := make([]string, 0, len(challenges))
	for _, c := range challenges {
		ids = append(ids, c.ID)
	}
	return ids
}
