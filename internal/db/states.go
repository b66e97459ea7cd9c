package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrNoState = errors.New("no saved state for game")

func (d *DB) SaveGameState(ctx context.Context, gameID string, state []byte) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO game_states (game_id, state_data)
		VALUES ($1, $2)
		ON CONFLICT (game_id) DO UPDATE SET state_data = $2, updated_at = now()
	`, gameID, string(state))
	if err != nil {
		return fmt.Errorf("saving game state: %w", err)
	}
	return nil
}

func (d *DB) LoadGameState(ctx context.Context, gameID string) ([]byte, error) {
	var state []byte
	err := d.conn.QueryRowContext(ctx, `
		SELECT state_data FROM game_states WHERE game_id = $1
	`, gameID).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("loading game state: %w", err)
	}
	return state, nil
}
