package proto

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownType        = errors.New("unknown message type")
	ErrUnsupportedVersion = errors.New("unsupported protocol version")
)

// Encode serializes a payload into a versioned frame.
func Encode(p Payload) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", p.messageType(), err)
	}
	frame, err := json.Marshal(Frame{
		Version: ProtocolVersion,
		Type:    p.messageType(),
		Data:    data,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal frame: %w", err)
	}
	return frame, nil
}

// MustEncode is Encode for payloads built by the server itself.
// A failure means the payload type is broken, so it panics.
func MustEncode(p Payload) []byte {
	frame, err := Encode(p)
	if err != nil {
		panic(fmt.Sprintf("proto: %v", err))
	}
	return frame
}

// Decode parses a frame produced by Encode.
func Decode(raw []byte) (Payload, error) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("unmarshal frame: %w", err)
	}
	if frame.Version != ProtocolVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, frame.Version)
	}

	var (
		p   Payload
		err error
	)
	switch frame.Type {
	case TypeUserStatus:
		var v UserStatus
		err = json.Unmarshal(frame.Data, &v)
		p = v
	case TypeGameActionNotification:
		var v GameActionNotification
		err = json.Unmarshal(frame.Data, &v)
		p = v
	case TypeChallenges:
		var v ChallengeList
		err = json.Unmarshal(frame.Data, &v)
		p = v
	case TypeChat:
		var v Chat
		err = json.Unmarshal(frame.Data, &v)
		p = v
	case TypeError:
		var v Error
		err = json.Unmarshal(frame.Data, &v)
		p = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, frame.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", frame.Type, err)
	}
	return p, nil
}
