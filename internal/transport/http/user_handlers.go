package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/lobby-server/internal/core"
	"github.com/vovakirdan/lobby-server/internal/proto"
	"github.com/vovakirdan/lobby-server/internal/service/directory"
	"github.com/vovakirdan/lobby-server/internal/store"
)

// UserHandlers provides HTTP handlers for user lookups and presence.
type UserHandlers struct {
	dir   *directory.Service
	lobby *core.Lobby
	log   *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(dir *directory.Service, lobby *core.Lobby, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		dir:   dir,
		lobby: lobby,
		log:   logger,
	}
}

// OnlineResponse lists users with a live lobby session.
// Anonymous sessions are counted but have no profile.
type OnlineResponse struct {
	Count int                 `json:"count"`
	Users []proto.UserProfile `json:"users"`
}

// GetUser returns a user's public profile.
// GET /api/users/:id
func (h *UserHandlers) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	profile, err := h.dir.PublicProfile(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Str("user_id", id.String()).Msg("failed to load user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Online lists connected users.
// GET /api/online
func (h *UserHandlers) Online(c *gin.Context) {
	ctx := c.Request.Context()

	ids, err := h.lobby.Online(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to query online users")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "lobby unavailable"})
		return
	}

	response := OnlineResponse{Count: len(ids), Users: make([]proto.UserProfile, 0, len(ids))}
	for _, id := range ids {
		profile, err := h.dir.PublicProfile(ctx, id)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				h.log.Warn().Err(err).Str("user_id", id.String()).Msg("failed to resolve online user")
			}
			continue
		}
		response.Users = append(response.Users, *profile)
	}

	c.JSON(http.StatusOK, response)
}
