package analytics

import (
	"context"
	"errors"
	"fmt"

	"memebattle/internal/db"
)

var ErrUnknownMetric = errors.New("unknown leaderboard metric")

// leaderboardColumns maps a metric name to its player_stats column.
var leaderboardColumns = map[string]string{
	"points":  "total_points",
	"wins":    "games_won",
	"games":   "games_played",
	"highest": "highest_score",
	"streak":  "best_win_streak",
}

type Queries struct {
	DB *db.DB
}

func NewQueries(database *db.DB) *Queries {
	return &Queries{DB: database}
}

func (q *Queries) GetPlayerStats(ctx context.Context, playerID string) (*PlayerStats, error) {
	stats := &PlayerStats{PlayerID: playerID}

	err := q.DB.QueryRow(ctx, `
		SELECT p.name, p.avatar_url,
			COALESCE(s.games_played, 0), COALESCE(s.games_won, 0), COALESCE(s.total_points, 0),
			COALESCE(s.highest_score, 0), COALESCE(s.current_win_streak, 0), COALESCE(s.best_win_streak, 0)
		FROM players p
		LEFT JOIN player_stats s ON s.player_id = p.id
		WHERE p.id = $1
	`, playerID).Scan(&stats.Name, &stats.AvatarURL,
		&stats.GamesPlayed, &stats.GamesWon, &stats.TotalPoints,
		&stats.HighestScore, &stats.CurrentWinStreak, &stats.BestWinStreak)
	if err != nil {
		return nil, fmt.Errorf("getting player stats: %w", err)
	}

	stats.WinRate = winRate(stats.GamesPlayed, stats.GamesWon)
	stats.Badges = EvaluateBadges(*stats)
	return stats, nil
}

func (q *Queries) GetLeaderboard(ctx context.Context, metric string, limit int) ([]LeaderboardEntry, error) {
	column, ok := leaderboardColumns[metric]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMetric, metric)
	}

	rows, err := q.DB.Query(ctx, fmt.Sprintf(`
		SELECT p.id, p.name, p.avatar_url, s.%[1]s
		FROM player_stats s
		JOIN players p ON p.id = s.player_id
		WHERE s.games_played > 0
		ORDER BY s.%[1]s DESC, p.name ASC
		LIMIT $1`, column), limit)
	if err != nil {
		return nil, fmt.Errorf("getting leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []LeaderboardEntry{}
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.PlayerID, &e.Name, &e.AvatarURL, &e.Value); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (q *Queries) GetGameRecap(ctx context.Context, gameID string) (*GameRecap, error) {
	recap := &GameRecap{GameID: gameID}

	err := q.DB.QueryRow(ctx, `
		SELECT room_code, rounds, winner_id, started_at, ended_at FROM games WHERE id = $1
	`, gameID).Scan(&recap.RoomCode, &recap.Rounds, &recap.WinnerID, &recap.StartedAt, &recap.EndedAt)
	if err != nil {
		return nil, fmt.Errorf("getting game: %w", err)
	}

	rows, err := q.DB.Query(ctx, `
		SELECT gp.player_id, p.name, gp.final_score, gp.rank
		FROM game_players gp
		JOIN players p ON p.id = gp.player_id
		WHERE gp.game_id = $1
		ORDER BY gp.rank
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("getting game players: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p RecapPlayer
		if err := rows.Scan(&p.PlayerID, &p.Name, &p.Score, &p.Rank); err != nil {
			return nil, err
		}
		recap.Players = append(recap.Players, p)
	}
	return recap, rows.Err()
}
