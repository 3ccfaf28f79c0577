package proto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ProtocolVersion is stamped on every frame the server emits.
const ProtocolVersion = 1

const (
	InboundTypeChat = "chat"

	TypeUserStatus             = "user_status"
	TypeGameActionNotification = "game_action_notification"
	TypeChallenges             = "challenges"
	TypeChat                   = "chat"
	TypeError                  = "error"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Destination kinds as they appear on the wire.
const (
	DestinationDirect = "direct"
	DestinationGame   = "game"
	DestinationGlobal = "global"
)

// Destination addresses a chat message.
type Destination struct {
	Kind string `json:"kind"`
	ID   string `json:"id,omitempty"`
}

// ChatData is a chat message from the client.
type ChatData struct {
	Destination Destination     `json:"destination"`
	Text        string          `json:"text"`
	Extra       json.RawMessage `json:"extra,omitempty"`
}

// Frame is the envelope for messages sent to the client.
type Frame struct {
	Version int             `json:"v"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
}

// Payload is implemented only by the server message types below.
type Payload interface {
	messageType() string
}

// Status is a user's presence state.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// UserProfile is the public view of a user.
type UserProfile struct {
	UID       uuid.UUID `json:"uid"`
	Username  string    `json:"username"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// UserStatus announces a presence transition.
type UserStatus struct {
	Status   Status       `json:"status"`
	User     *UserProfile `json:"user,omitempty"`
	Username string       `json:"username"`
}

// GameSummary is the public view of a game.
type GameSummary struct {
	GameID     string      `json:"game_id"`
	White      UserProfile `json:"white_player"`
	Black      UserProfile `json:"black_player"`
	ToMove     uuid.UUID   `json:"to_move"`
	Turn       int         `json:"turn"`
	GameStatus string      `json:"game_status"`
	TimeMode   string      `json:"time_mode"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// GameActionNotification lists games waiting on the recipient.
type GameActionNotification struct {
	Games []GameSummary `json:"games"`
}

// ChallengeSummary is the public view of an open challenge.
type ChallengeSummary struct {
	ChallengeID string       `json:"challenge_id"`
	Challenger  UserProfile  `json:"challenger"`
	Opponent    *UserProfile `json:"opponent,omitempty"`
	Visibility  string       `json:"visibility"`
	ColorChoice string       `json:"color_choice"`
	Rated       bool         `json:"rated"`
	TimeMode    string       `json:"time_mode"`
	CreatedAt   time.Time    `json:"created_at"`
}

// ChallengeList carries the challenges visible to the recipient.
type ChallengeList struct {
	Challenges []ChallengeSummary `json:"challenges"`
}

// Chat is a relayed client message.
type Chat struct {
	From        uuid.UUID       `json:"from"`
	Username    string          `json:"username"`
	Destination Destination     `json:"destination"`
	Text        string          `json:"text"`
	Extra       json.RawMessage `json:"extra,omitempty"`
	TS          int64           `json:"ts"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

func (UserStatus) messageType() string             { return TypeUserStatus }
func (GameActionNotification) messageType() string { return TypeGameActionNotification }
func (ChallengeList) messageType() string          { return TypeChallenges }
func (Chat) messageType() string                   { return TypeChat }
func (Error) messageType() string                  { return TypeError }
