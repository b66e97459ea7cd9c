package gamedata

import (
	"slices"
	"sync"
	"time"

	"memebattle/internal/players"
	"memebattle/internal/scoring"
)

type Status string

const (
	StatusWaiting  = Status("waiting")
	StatusPlaying  = Status("playing")
	StatusFinished = Status("finished")
)

type Winner struct {
	PlayerID       string `json:"userId"`
	Name           string `json:"username"`
	AvatarURL      string `json:"avatarUrl,omitempty"`
	WinningMessage string `json:"winningMessage"`
	Score          int    `json:"score"`
}

// Game is one room. Every field is guarded by the game lock; the engine
// holds it for the whole of each event it processes.
type Game struct {
	mu sync.Mutex

	ID           string
	Code         string
	Players      *players.Roster
	Status       Status
	CurrentRound int
	Settings     Settings
	Round        *Round
	Winner       *Winner
	Rankings     []scoring.Ranking
	LastResults  []RoundResult
	Starred      map[string]bool
	CreatedAt    time.Time
	StartedAt    time.Time
	FinishedAt   time.Time
	UpdatedAt    time.Time

	// Closed is set once the registry has evicted the game.
	Closed bool
}

func NewGame(id, code string, host *players.Player) *Game {
	now := time.Now()
	g := &Game{
		ID:        id,
		Code:      code,
		Players:   players.NewRoster(),
		Status:    StatusWaiting,
		Settings:  DefaultSettings(),
		Starred:   make(map[string]bool),
		CreatedAt: now,
		UpdatedAt: now,
	}
	g.Players.Add(host)
	return g
}

func (g *Game) Lock() {
	g.mu.Lock()
}

func (g *Game) Unlock() {
	g.mu.Unlock()
}

func (g *Game) Touch() {
	g.UpdatedAt = time.Now()
}

func (g *Game) HostID() string {
	if h := g.Players.Host(); h != nil {
		return h.ID
	}
	return ""
}

func (g *Game) Phase() Phase {
	if g.Round == nil {
		return ""
	}
	return g.Round.Phase
}

// StarredRefs returns the keep set in a stable order.
func (g *Game) StarredRefs() []string {
	refs := make([]string, 0, len(g.Starred))
	for ref := range g.Starred {
		refs = append(refs, ref)
	}
	slices.Sort(refs)
	return refs
}

// HasArtifact reports whether ref was produced by a submission of this game.
func (g *Game) HasArtifact(ref string) bool {
	if ref == "" {
		return false
	}
	if g.Round != nil {
		for _, s := range g.Round.Submissions {
			if s.ImageURL == ref {
				return true
			}
		}
	}
	for _, r := range g.LastResults {
		if r.ImageURL == ref {
			return true
		}
	}
	for _, p := range g.Players.List() {
		if p.LastArtifact == ref {
			return true
		}
	}
	return false
}

// HasJudgedAll reports whether p has voted on, or owns, every submission of the round.
func (g *Game) HasJudgedAll(p *players.Player) bool {
	if g.Round == nil || g.Round.Phase == PhaseSubmitting {
		return false
	}
	for _, s := range g.Round.Submissions {
		if !p.Judged[s.PlayerID] {
			return false
		}
	}
	return true
}

// AllVoted scans every player for unjudged submissions. It is a query only;
// the voting reveal timer decides when a round ends.
func (g *Game) AllVoted() bool {
	if g.Round == nil || g.Round.Phase != PhaseVoting {
		return false
	}
	for _, p := range g.Players.List() {
		if !g.HasJudgedAll(p) {
			return false
		}
	}
	return true
}

// WasLastPlace reports whether every other player is strictly ahead of p.
func (g *Game) WasLastPlace(p *players.Player) bool {
	others := 0
	for _, o := range g.Players.List() {
		if o.ID == p.ID {
			continue
		}
		if o.Score <= p.Score {
			return false
		}
		others++
	}
	return others > 0
}

type Summary struct {
	ID           string    `json:"id"`
	Code         string    `json:"passcode"`
	Status       Status    `json:"status"`
	Players      int       `json:"players"`
	MaxPlayers   int       `json:"maxPlayers"`
	HostName     string    `json:"hostName"`
	CurrentRound int       `json:"currentRound"`
	TotalRounds  int       `json:"totalRounds"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (g *Game) Summary() Summary {
	s := Summary{
		ID:           g.ID,
		Code:         g.Code,
		Status:       g.Status,
		Players:      g.Players.Len(),
		MaxPlayers:   MaxPlayers,
		CurrentRound: g.CurrentRound,
		TotalRounds:  g.Settings.TotalRounds,
		CreatedAt:    g.CreatedAt,
	}
	if h := g.Players.Host(); h != nil {
		s.HostName = h.Name
	}
	return s
}
