package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/lobby-server/internal/store"
)

//go:embed schema.sql
var schema string

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, ApplySchema)
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to seed data on top of the schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with single connection; it also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// ApplySchema creates all tables if they do not exist.
func ApplySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	return fmt.Errorf("query %s: %w", what, err)
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (id, username, password_hash)
		VALUES (?, ?, ?)
	`
	id := uuid.New()
	if _, err := s.db.ExecContext(ctx, query, id, username, passwordHash); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id uuid.UUID) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, rating, created_at
		FROM users
		WHERE id = ?
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Rating,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, "user")
	}

	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, rating, created_at
		FROM users
		WHERE username = ?
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Rating,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, "user")
	}

	return &user, nil
}

// ==== GameStore implementation ====

// CreateGame inserts a game.
func (s *SQLiteStore) CreateGame(ctx context.Context, game *store.Game) error {
	query := `
		INSERT INTO games (id, white_id, black_id, current_player_id, turn, status, time_mode, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC()
	if game.Status == "" {
		game.Status = store.GameStatusNotStarted
	}
	_, err := s.db.ExecContext(ctx, query,
		game.ID, game.WhiteID, game.BlackID, game.CurrentPlayerID,
		game.Turn, game.Status, game.TimeMode, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	game.CreatedAt = now
	game.UpdatedAt = now
	return nil
}

// GetGame retrieves a game by its short id.
func (s *SQLiteStore) GetGame(ctx context.Context, id string) (*store.Game, error) {
	query := `
		SELECT id, white_id, black_id, current_player_id, turn, status, time_mode, created_at, updated_at
		FROM games
		WHERE id = ?
	`
	var game store.Game
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&game.ID,
		&game.WhiteID,
		&game.BlackID,
		&game.CurrentPlayerID,
		&game.Turn,
		&game.Status,
		&game.TimeMode,
		&game.CreatedAt,
		&game.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "game")
	}

	return &game, nil
}

// ListUrgentGameIDs lists unfinished games where it is the user's turn.
func (s *SQLiteStore) ListUrgentGameIDs(ctx context.Context, userID uuid.UUID) ([]string, error) {
	query := `
		SELECT id
		FROM games
		WHERE current_player_id = ?
		  AND status != ?
		ORDER BY updated_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID, store.GameStatusFinished)
	if err != nil {
		return nil, fmt.Errorf("query urgent games: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan game id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// ==== ChallengeStore implementation ====

const challengeColumns = `id, challenger_id, opponent_id, visibility, color_choice, rated, time_mode, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChallenge(row rowScanner) (*store.Challenge, error) {
	var c store.Challenge
	var opponent uuid.NullUUID
	if err := row.Scan(
		&c.ID,
		&c.ChallengerID,
		&opponent,
		&c.Visibility,
		&c.ColorChoice,
		&c.Rated,
		&c.TimeMode,
		&c.CreatedAt,
	); err != nil {
		return nil, err
	}
	if opponent.Valid {
		c.OpponentID = &opponent.UUID
	}
	return &c, nil
}

// CreateChallenge inserts a challenge.
func (s *SQLiteStore) CreateChallenge(ctx context.Context, challenge *store.Challenge) error {
	query := `
		INSERT INTO challenges (` + challengeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	var opponent uuid.NullUUID
	if challenge.OpponentID != nil {
		opponent = uuid.NullUUID{UUID: *challenge.OpponentID, Valid: true}
	}
	if challenge.Visibility == "" {
		challenge.Visibility = store.ChallengeVisibilityPublic
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, query,
		challenge.ID, challenge.ChallengerID, opponent, challenge.Visibility,
		challenge.ColorChoice, challenge.Rated, challenge.TimeMode, now,
	)
	if err != nil {
		return fmt.Errorf("insert challenge: %w", err)
	}
	challenge.CreatedAt = now
	return nil
}

// GetChallenge retrieves a challenge by its short id.
func (s *SQLiteStore) GetChallenge(ctx context.Context, id string) (*store.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE id = ?`
	c, err := scanChallenge(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "challenge")
	}
	return c, nil
}

// ListPublicChallenges lists public challenges, optionally excluding one challenger.
func (s *SQLiteStore) ListPublicChallenges(ctx context.Context, exclude *uuid.UUID) ([]*store.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE visibility = ?`
	args := []any{store.ChallengeVisibilityPublic}
	if exclude != nil {
		query += ` AND challenger_id != ?`
		args = append(args, *exclude)
	}
	query += ` ORDER BY created_at DESC`

	return s.listChallenges(ctx, query, args...)
}

// ListOwnChallenges lists every challenge the user created.
func (s *SQLiteStore) ListOwnChallenges(ctx context.Context, userID uuid.UUID) ([]*store.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE challenger_id = ? ORDER BY created_at DESC`
	return s.listChallenges(ctx, query, userID)
}

func (s *SQLiteStore) listChallenges(ctx context.Context, query string, args ...any) ([]*store.Challenge, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query challenges: %w", err)
	}
	defer rows.Close()

	var challenges []*store.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}

	return challenges, rows.Err()
}

// DeleteChallenge removes a challenge.
func (s *SQLiteStore) DeleteChallenge(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM challenges WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete challenge: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("challenge: %w", store.ErrNotFound)
	}
	return nil
}
