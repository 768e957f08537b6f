package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/tictacduel/server/internal/domain"
)

type GameRepo struct {
	DB *sql.DB
}

func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{DB: db}
}

// Insert persists a new session with an empty move list.
func (r *GameRepo) Insert(ctx context.Context, s *domain.GameSession) error {
	movesJSON, err := json.Marshal(s.Moves)
	if err != nil {
		return fmt.Errorf("failed to marshal moves: %v", err)
	}

	query := `
	INSERT INTO games (id, player_x_id, player_x_email, player_o_id, player_o_email, moves, move_count, winner, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`

	_, err = r.DB.ExecContext(ctx, query,
		s.ID,
		s.PlayerX.ID, s.PlayerX.Email,
		s.PlayerO.ID, s.PlayerO.Email,
		movesJSON, len(s.Moves), winnerColumn(s.Winner), s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert game: %v", err)
	}
	return nil
}

// GetByID retrieves a session. Returns (nil, nil) when absent.
func (r *GameRepo) GetByID(ctx context.Context, id string) (*domain.GameSession, error) {
	query := `
	SELECT id, player_x_id, player_x_email, player_o_id, player_o_email, moves, winner, created_at
	FROM games
	WHERE id = $1;
	`

	var s domain.GameSession
	var movesJSON []byte
	var winner sql.NullString

	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.PlayerX.ID,
		&s.PlayerX.Email,
		&s.PlayerO.ID,
		&s.PlayerO.Email,
		&movesJSON,
		&winner,
		&s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %v", err)
	}

	if err := json.Unmarshal(movesJSON, &s.Moves); err != nil {
		return nil, fmt.Errorf("failed to unmarshal moves: %v", err)
	}
	if winner.Valid {
		s.Winner = domain.Winner(winner.String)
	}
	return &s, nil
}

// SaveMoves writes the full move list and outcome, guarded by the expected
// prior move count. Returns false when another writer appended first; the
// caller must reload and report the conflict.
func (r *GameRepo) SaveMoves(ctx context.Context, id string, moves []domain.Move, expectedCount int, winner domain.Winner) (bool, error) {
	movesJSON, err := json.Marshal(moves)
	if err != nil {
		return false, fmt.Errorf("failed to marshal moves: %v", err)
	}

	query := `
	UPDATE games
	SET moves = $1, move_count = $2, winner = $3
	WHERE id = $4 AND move_count = $5;
	`

	res, err := r.DB.ExecContext(ctx, query, movesJSON, len(moves), winnerColumn(winner), id, expectedCount)
	if err != nil {
		return false, fmt.Errorf("failed to save moves: %v", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %v", err)
	}
	return affected == 1, nil
}

// winner is stored as NULL while the game is open
func winnerColumn(w domain.Winner) interface{} {
	if w == domain.WinnerNone {
		return nil
	}
	return string(w)
}
