package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// User represents a registered player.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Rating       int
	CreatedAt    time.Time
}

// GameStatus defines where a game is in its lifecycle.
type GameStatus string

const (
	GameStatusNotStarted GameStatus = "not_started"
	GameStatusInProgress GameStatus = "in_progress"
	GameStatusFinished   GameStatus = "finished"
)

// Game represents a persisted game.
type Game struct {
	ID              string // short random id
	WhiteID         uuid.UUID
	BlackID         uuid.UUID
	CurrentPlayerID uuid.UUID
	Turn            int
	Status          GameStatus
	TimeMode        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ChallengeVisibility defines who can see a challenge.
type ChallengeVisibility string

const (
	ChallengeVisibilityPublic  ChallengeVisibility = "public"
	ChallengeVisibilityPrivate ChallengeVisibility = "private"
	ChallengeVisibilityDirect  ChallengeVisibility = "direct"
)

// Challenge represents an open invitation to play.
type Challenge struct {
	ID           string // short random id
	ChallengerID uuid.UUID
	OpponentID   *uuid.UUID // set for direct challenges
	Visibility   ChallengeVisibility
	ColorChoice  string
	Rated        bool
	TimeMode     string
	CreatedAt    time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// GameStore handles game persistence.
type GameStore interface {
	// CreateGame inserts a game. CreatedAt and UpdatedAt are filled in.
	CreateGame(ctx context.Context, game *Game) error

	// GetGame retrieves a game by its short id.
	GetGame(ctx context.Context, id string) (*Game, error)

	// ListUrgentGameIDs lists unfinished games where it is the user's turn.
	ListUrgentGameIDs(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// ChallengeStore handles challenge persistence.
type ChallengeStore interface {
	// CreateChallenge inserts a challenge. CreatedAt is filled in.
	CreateChallenge(ctx context.Context, challenge *Challenge) error

	// GetChallenge retrieves a challenge by its short id.
	GetChallenge(ctx context.Context, id string) (*Challenge, error)

	// ListPublicChallenges lists public challenges, newest first.
	// If exclude is set, that user's own challenges are left out.
	ListPublicChallenges(ctx context.Context, exclude *uuid.UUID) ([]*Challenge, error)

	// ListOwnChallenges lists every challenge the user created, any visibility.
	ListOwnChallenges(ctx context.Context, userID uuid.UUID) ([]*Challenge, error)

	// DeleteChallenge removes a challenge.
	DeleteChallenge(ctx context.Context, id string) error
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	GameStore
	ChallengeStore

	// Close closes the underlying database connection.
	Close() error
}
