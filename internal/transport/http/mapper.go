package http

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/lobby-server/internal/core"
	"github.com/vovakirdan/lobby-server/internal/proto"
)

const maxChatText = 2000

// inboundToEnvelope maps a client frame onto a routed envelope.
// A non-nil *proto.Error is reported back to the sender and the frame is dropped.
func inboundToEnvelope(client *core.Client, inbound proto.Inbound, now time.Time) (core.Envelope, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeChat:
		var chat proto.ChatData
		if err := json.Unmarshal(inbound.Data, &chat); err != nil {
			return core.Envelope{}, &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: "malformed chat data"}
		}
		if chat.Text == "" {
			return core.Envelope{}, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "text is required"}
		}
		if len(chat.Text) > maxChatText {
			return core.Envelope{}, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "text is too long"}
		}

		dest, protoErr := destinationFromWire(chat.Destination)
		if protoErr != nil {
			return core.Envelope{}, protoErr
		}

		payload, err := proto.Encode(proto.Chat{
			From:        client.ID,
			Username:    client.Name,
			Destination: chat.Destination,
			Text:        chat.Text,
			Extra:       chat.Extra,
			TS:          now.Unix(),
		})
		if err != nil {
			return core.Envelope{}, &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: "extra must be valid JSON"}
		}

		return core.Envelope{
			Destination: dest,
			Payload:     payload,
			From:        client.ID,
		}, nil
	default:
		return core.Envelope{}, &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: "unknown message type"}
	}
}

func destinationFromWire(d proto.Destination) (core.Destination, *proto.Error) {
	switch d.Kind {
	case proto.DestinationDirect:
		user, err := uuid.Parse(d.ID)
		if err != nil {
			return core.Destination{}, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "direct destination needs a user id"}
		}
		return core.Direct(user), nil
	case proto.DestinationGame:
		if d.ID == "" {
			return core.Destination{}, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "game destination needs a game id"}
		}
		return core.RoomDestination(d.ID), nil
	case proto.DestinationGlobal:
		return core.Global(), nil
	default:
		return core.Destination{}, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "unknown destination kind"}
	}
}
