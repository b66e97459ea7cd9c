package db

import (
	"context"
	"fmt"
	"time"
)

// FinishedGame is everything written when a game reaches final rankings.
type FinishedGame struct {
	GameID     string
	Code       string
	Rounds     int
	WinnerID   string
	StartedAt  time.Time
	FinishedAt time.Time
	Players    []FinishedPlayer
}

type FinishedPlayer struct {
	ID        string
	Name      string
	AvatarURL string
	Score     int
	Rank      int
}

// RecordFinishedGame stores the game, each player's placing and the
// lifetime stats rollup in one transaction.
func (d *DB) RecordFinishedGame(ctx context.Context, g FinishedGame) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range g.Players {
		if err := upsertPlayer(ctx, tx, p.ID, p.Name, p.AvatarURL); err != nil {
			return err
		}
	}

	var winner, started any
	if g.WinnerID != "" {
		winner = g.WinnerID
	}
	if !g.StartedAt.IsZero() {
		started = g.StartedAt
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO games (id, room_code, rounds, winner_id, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, g.GameID, g.Code, g.Rounds, winner, started, g.FinishedAt)
	if err != nil {
		return fmt.Errorf("inserting game: %w", err)
	}

	for _, p := range g.Players {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO game_players (game_id, player_id, final_score, rank)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (game_id, player_id) DO UPDATE SET final_score = $3, rank = $4
		`, g.GameID, p.ID, p.Score, p.Rank)
		if err != nil {
			return fmt.Errorf("adding game player: %w", err)
		}

		won := 0
		if p.ID == g.WinnerID {
			won = 1
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO player_stats
				(player_id, games_played, games_won, total_points, highest_score, current_win_streak, best_win_streak)
			VALUES ($1, 1, $2, $3, $4, $5, $6)
			ON CONFLICT (player_id) DO UPDATE SET
				games_played = player_stats.games_played + 1,
				games_won = player_stats.games_won + EXCLUDED.games_won,
				total_points = player_stats.total_points + EXCLUDED.total_points,
				highest_score = GREATEST(player_stats.highest_score, EXCLUDED.highest_score),
				current_win_streak = CASE WHEN EXCLUDED.games_won = 1
					THEN player_stats.current_win_streak + 1 ELSE 0 END,
				best_win_streak = GREATEST(player_stats.best_win_streak, CASE WHEN EXCLUDED.games_won = 1
					THEN player_stats.current_win_streak + 1 ELSE 0 END),
				updated_at = now()
		`, p.ID, won, int64(p.Score), p.Score, won, won)
		if err != nil {
			return fmt.Errorf("updating player stats: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing finished game: %w", err)
	}
	return nil
}
