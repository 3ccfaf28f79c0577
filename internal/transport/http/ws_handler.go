package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/lobby-server/internal/auth"
	"github.com/vovakirdan/lobby-server/internal/config"
	"github.com/vovakirdan/lobby-server/internal/core"
	"github.com/vovakirdan/lobby-server/internal/proto"
	"github.com/vovakirdan/lobby-server/internal/utils"
)

// WSHandler upgrades HTTP connections and bridges them to the lobby.
type WSHandler struct {
	lobby *core.Lobby
	auth  *auth.Service
	cfg   *config.Config
	log   *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(lobby *core.Lobby, authService *auth.Service, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{lobby: lobby, auth: authService, cfg: cfg, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	userID, username, rejected := h.identify(r)
	room := r.URL.Query().Get("game")

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	client := core.NewClient(userID, username, h.cfg.ClientBuffer)
	if err := h.lobby.Connect(core.Connect{
		UserID:   userID,
		RoomID:   room,
		Socket:   client,
		Username: username,
	}); err != nil {
		h.log.Warn().Err(err).Str("user_id", userID.String()).Msg("lobby refused connection")
		conn.Close(websocket.StatusTryAgainLater, "lobby unavailable")
		return
	}
	if rejected {
		h.reject(client, proto.Error{Code: core.ErrCodeUnauthorized, Msg: "invalid token, connected as guest"})
	}
	defer func() {
		if err := h.lobby.Disconnect(core.Disconnect{
			UserID:   userID,
			Username: username,
			Socket:   client,
		}); err != nil {
			h.log.Debug().Err(err).Str("user_id", userID.String()).Msg("disconnect not delivered")
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = "connection error"
			h.log.Warn().Err(err).Str("user_id", userID.String()).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// identify resolves the connecting user from a token in the query string or
// the Authorization header. Anything else connects anonymously; rejected
// reports that a token was presented but did not validate.
func (h *WSHandler) identify(r *stdhttp.Request) (id uuid.UUID, username string, rejected bool) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if token != "" && h.auth != nil {
		claims, err := h.auth.ValidateToken(token)
		if err == nil {
			return claims.UserID, claims.Username, false
		}
		h.log.Debug().Err(err).Msg("ws token rejected, connecting as guest")
		rejected = true
	}
	return uuid.New(), utils.GuestName(), rejected
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.cfg.RateLimitPerMinute)
	stop := make(chan struct{})
	defer close(stop)
	limiter.startReset(stop)

	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			h.log.Debug().Err(err).Str("user_id", client.ID.String()).Msg("read ws inbound")
			return err
		}

		if !limiter.allow() {
			h.reject(client, proto.Error{Code: core.ErrCodeRateLimited, Msg: "too many messages"})
			continue
		}

		env, protoErr := inboundToEnvelope(client, inbound, time.Now())
		if protoErr != nil {
			h.reject(client, *protoErr)
			continue
		}
		if err := h.lobby.Dispatch(env); err != nil {
			return err
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case frame := <-client.Send:
			if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
				h.log.Debug().Err(err).Str("user_id", client.ID.String()).Msg("write ws frame")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) reject(client *core.Client, e proto.Error) {
	if err := client.Push(proto.MustEncode(e)); err != nil {
		h.log.Debug().Err(err).Str("user_id", client.ID.String()).Str("code", e.Code).Msg("error frame dropped")
	}
}
