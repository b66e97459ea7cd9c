package analytics

import "time"

type PlayerStats struct {
	PlayerID         string  `json:"playerId"`
	Name             string  `json:"username"`
	AvatarURL        string  `json:"avatarUrl"`
	GamesPlayed      int     `json:"gamesPlayed"`
	GamesWon         int     `json:"gamesWon"`
	TotalPoints      int64   `json:"totalPoints"`
	HighestScore     int     `json:"highestScore"`
	CurrentWinStreak int     `json:"currentWinStreak"`
	BestWinStreak    int     `json:"bestWinStreak"`
	WinRate          float64 `json:"winRate"` // percentage of games won
	Badges           []Badge `json:"badges"`
}

type LeaderboardEntry struct {
	PlayerID  string `json:"playerId"`
	Name      string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
	Value     int64  `json:"value"`
	Rank      int    `json:"rank"`
}

type RecapPlayer struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"username"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
}

type GameRecap struct {
	GameID    string        `json:"gameId"`
	RoomCode  string        `json:"passcode"`
	Rounds    int           `json:"rounds"`
	WinnerID  *string       `json:"winnerId"`
	StartedAt *time.Time    `json:"startedAt"`
	EndedAt   time.Time     `json:"endedAt"`
	Players   []RecapPlayer `json:"players"`
}
