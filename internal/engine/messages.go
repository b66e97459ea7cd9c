package engine

import (
	"time"

	"memebattle/internal/artifacts"
	"memebattle/internal/gamedata"
	"memebattle/internal/memes"
	"memebattle/internal/scoring"
)

// Outbound payloads. Each is built under the game lock from copied values.

type PlayerInfo struct {
	ID             string `json:"id"`
	Name           string `json:"username"`
	AvatarURL      string `json:"avatarUrl"`
	WinningMessage string `json:"winningMessage,omitempty"`
	GameID         string `json:"gameId,omitempty"`
}

type RosterUpdate struct {
	GameID  string                `json:"gameId"`
	HostID  string                `json:"hostId"`
	Players []gamedata.PlayerView `json:"players"`
}

type PlayerEvent struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"username"`
}

type HostChanged struct {
	HostID string `json:"hostId"`
	Name   string `json:"username"`
}

type GameStarted struct {
	GameID   string            `json:"gameId"`
	Settings gamedata.Settings `json:"settings"`
}

type MemeSubmitted struct {
	PlayerID  string `json:"playerId"`
	Name      string `json:"username"`
	Submitted int    `json:"submitted"`
	Total     int    `json:"total"`
}

type VotingStarted struct {
	Round int `json:"round"`
	Total int `json:"total"`
}

type Reveal struct {
	PlayerID    string              `json:"playerId"`
	Name        string              `json:"username"`
	ImageURL    string              `json:"imageUrl"`
	TemplateURL string              `json:"templateUrl"`
	Captions    []artifacts.Caption `json:"captions"`
}

type VotingSubmission struct {
	Index      int    `json:"index"`
	Total      int    `json:"total"`
	Submission Reveal `json:"submission"`
}

type VoteCast struct {
	SubmissionPlayerID string `json:"submissionPlayerId"`
	Votes              int    `json:"votes"`
}

type TimeUpdate struct {
	Phase    gamedata.Phase `json:"phase"`
	TimeLeft int            `json:"timeLeft"`
}

type VotingEnded struct {
	Round int `json:"round"`
}

type ScoreUpdate struct {
	Points     int             `json:"points"`
	Bonuses    []scoring.Bonus `json:"bonuses"`
	TotalScore int             `json:"totalScore"`
}

type RoundResults struct {
	Round       int                    `json:"round"`
	TotalRounds int                    `json:"totalRounds"`
	Results     []gamedata.RoundResult `json:"results"`
	NextIn      int                    `json:"nextIn"`
	Final       bool                   `json:"final"`
}

type GameRankings struct {
	GameID   string            `json:"gameId"`
	Rankings []scoring.Ranking `json:"rankings"`
	Winner   *gamedata.Winner  `json:"winner,omitempty"`
}

type RerollResult struct {
	Template    memes.Template `json:"memeTemplate"`
	RerollsLeft int            `json:"rerollsLeft"`
}

type RematchStarted struct {
	OldGameID string `json:"oldGameId"`
	NewGameID string `json:"newGameId"`
	Code      string `json:"code"`
}

type ChatMessage struct {
	PlayerID  string    `json:"playerId"`
	Name      string    `json:"username"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type LeftRoom struct {
	GameID string `json:"gameId"`
}
