package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/lobby-server/internal/core"
	"github.com/vovakirdan/lobby-server/internal/proto"
	"github.com/vovakirdan/lobby-server/internal/service/directory"
	"github.com/vovakirdan/lobby-server/internal/store"
	"github.com/vovakirdan/lobby-server/internal/utils"
)

// ChallengeHandlers provides HTTP handlers for challenge endpoints.
type ChallengeHandlers struct {
	store store.Store
	dir   *directory.Service
	lobby *core.Lobby
	log   *zerolog.Logger
}

// NewChallengeHandlers creates a new challenge handlers instance.
func NewChallengeHandlers(st store.Store, dir *directory.Service, lobby *core.Lobby, logger *zerolog.Logger) *ChallengeHandlers {
	return &ChallengeHandlers{
		store: st,
		dir:   dir,
		lobby: lobby,
		log:   logger,
	}
}

// CreateChallengeRequest represents the create challenge request body.
type CreateChallengeRequest struct {
	Opponent    string `json:"opponent"`
	Visibility  string `json:"visibility" binding:"omitempty,oneof=public private direct"`
	ColorChoice string `json:"color_choice" binding:"omitempty,oneof=white black random"`
	Rated       bool   `json:"rated"`
	TimeMode    string `json:"time_mode" binding:"max=32"`
}

// ChallengesResponse lists the challenges visible to the caller.
type ChallengesResponse struct {
	Public []proto.ChallengeSummary `json:"public"`
	Own    []proto.ChallengeSummary `json:"own"`
}

// ListChallenges returns other users' public challenges and the caller's own.
// GET /api/challenges
func (h *ChallengeHandlers) ListChallenges(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		h.log.Error().Msg("user_id not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}
	ctx := c.Request.Context()

	publicIDs, err := h.dir.PublicChallenges(ctx, &uid)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list public challenges")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	ownIDs, err := h.dir.OwnChallenges(ctx, uid)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", uid.String()).Msg("failed to list own challenges")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ChallengesResponse{
		Public: h.summaries(ctx, publicIDs),
		Own:    h.summaries(ctx, ownIDs),
	})
}

func (h *ChallengeHandlers) summaries(ctx context.Context, ids []string) []proto.ChallengeSummary {
	out := make([]proto.ChallengeSummary, 0, len(ids))
	for _, id := range ids {
		summary, err := h.dir.ChallengeSummary(ctx, id)
		if err != nil {
			h.log.Warn().Err(err).Str("challenge_id", id).Msg("skipping unresolvable challenge")
			continue
		}
		out = append(out, *summary)
	}
	return out
}

// CreateChallenge creates a challenge and announces it to the lobby.
// POST /api/challenges
func (h *ChallengeHandlers) CreateChallenge(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		h.log.Error().Msg("user_id not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create challenge request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	ctx := c.Request.Context()

	challenge := &store.Challenge{
		ID:           utils.NewID(),
		ChallengerID: uid,
		Visibility:   store.ChallengeVisibility(req.Visibility),
		ColorChoice:  req.ColorChoice,
		Rated:        req.Rated,
		TimeMode:     req.TimeMode,
	}
	if challenge.Visibility == "" {
		challenge.Visibility = store.ChallengeVisibilityPublic
	}
	if challenge.ColorChoice == "" {
		challenge.ColorChoice = "random"
	}

	if challenge.Visibility == store.ChallengeVisibilityDirect {
		opponent, err := uuid.Parse(req.Opponent)
		if err != nil || opponent == uid {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "direct challenge needs another user as opponent"})
			return
		}
		if _, err := h.store.GetUserByID(ctx, opponent); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, ErrorResponse{Error: "opponent not found"})
				return
			}
			h.log.Error().Err(err).Msg("failed to load opponent")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}
		challenge.OpponentID = &opponent
	}

	if err := h.store.CreateChallenge(ctx, challenge); err != nil {
		h.log.Error().Err(err).Str("user_id", uid.String()).Msg("failed to create challenge")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	summary, err := h.dir.Summarize(ctx, challenge)
	if err != nil {
		h.log.Error().Err(err).Str("challenge_id", challenge.ID).Msg("failed to summarize challenge")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.announce(challenge, *summary)

	h.log.Info().
		Str("challenge_id", challenge.ID).
		Str("user_id", uid.String()).
		Str("visibility", string(challenge.Visibility)).
		Msg("challenge created")
	c.JSON(http.StatusCreated, summary)
}

// announce pushes a new challenge to whoever can see it. Private challenges
// are shared out of band.
func (h *ChallengeHandlers) announce(challenge *store.Challenge, summary proto.ChallengeSummary) {
	var dest core.Destination
	switch challenge.Visibility {
	case store.ChallengeVisibilityPublic:
		dest = core.Global()
	case store.ChallengeVisibilityDirect:
		dest = core.Direct(*challenge.OpponentID)
	default:
		return
	}

	// uuid.Nil marks a server-originated envelope, so nobody is auto-joined.
	err := h.lobby.Dispatch(core.Envelope{
		Destination: dest,
		Payload:     proto.MustEncode(proto.ChallengeList{Challenges: []proto.ChallengeSummary{summary}}),
		From:        uuid.Nil,
	})
	if err != nil {
		h.log.Warn().Err(err).Str("challenge_id", challenge.ID).Msg("challenge announcement dropped")
	}
}
