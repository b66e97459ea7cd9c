package gamedata

import (
	"slices"

	"memebattle/internal/artifacts"
	"memebattle/internal/memes"
	"memebattle/internal/players"
	"memebattle/internal/scoring"
)

// The views below are copies built under the game lock and safe to hand to
// the transport after the lock is released.

type PlayerView struct {
	ID             string   `json:"id"`
	Name           string   `json:"username"`
	AvatarURL      string   `json:"avatarUrl"`
	WinningMessage string   `json:"winningMessage,omitempty"`
	Score          int      `json:"score"`
	Connected      bool     `json:"connected"`
	HasSubmitted   bool     `json:"hasSubmitted"`
	HasVoted       bool     `json:"hasVoted"`
	VotedOn        []string `json:"votedOn"`
	IsHost         bool     `json:"isHost"`
}

type SubmissionView struct {
	PlayerID string              `json:"playerId"`
	Name     string              `json:"username"`
	Captions []artifacts.Caption `json:"captions"`
	ImageURL string              `json:"imageUrl"`
	Votes    int                 `json:"votes"`
}

type RoundView struct {
	Number       int              `json:"number"`
	Phase        Phase            `json:"status"`
	TimeLeft     int              `json:"timeLeft"`
	MemeTemplate *memes.Template  `json:"memeTemplate,omitempty"`
	Submissions  []SubmissionView `json:"submissions"`
	VotingIndex  int              `json:"votingIndex"`
}

type Me struct {
	ID           string `json:"id"`
	Rerolls      int    `json:"rerolls"`
	LastArtifact string `json:"lastArtifact,omitempty"`
}

type StateView struct {
	ID           string            `json:"id"`
	Code         string            `json:"passcode"`
	Status       Status            `json:"status"`
	CurrentRound int               `json:"currentRound"`
	TotalRounds  int               `json:"totalRounds"`
	Settings     Settings          `json:"settings"`
	HostID       string            `json:"hostId"`
	Round        *RoundView        `json:"round,omitempty"`
	Players      []PlayerView      `json:"players"`
	Me           *Me               `json:"me,omitempty"`
	LastResults  []RoundResult     `json:"lastResults,omitempty"`
	Winner       *Winner           `json:"winner,omitempty"`
	Rankings     []scoring.Ranking `json:"rankings,omitempty"`
	AllVoted     bool              `json:"allVoted"`
}

func (g *Game) playerView(p *players.Player) PlayerView {
	voted := make([]string, 0, len(p.Judged))
	for id := range p.Judged {
		if id != p.ID {
			voted = append(voted, id)
		}
	}
	slices.Sort(voted)
	return PlayerView{
		ID:             p.ID,
		Name:           p.Name,
		AvatarURL:      p.AvatarURL,
		WinningMessage: p.WinningMessage,
		Score:          p.Score,
		Connected:      p.Connected,
		HasSubmitted:   p.HasSubmitted,
		HasVoted:       g.HasJudgedAll(p),
		VotedOn:        voted,
		IsHost:         p.ID == g.HostID(),
	}
}

// Roster is the ordered player list as sent in players_update.
func (g *Game) Roster() []PlayerView {
	list := g.Players.List()
	views := make([]PlayerView, len(list))
	for i, p := range list {
		views[i] = g.playerView(p)
	}
	return views
}

// View is the full game state as seen by one player.
func (g *Game) View(playerID string) StateView {
	v := StateView{
		ID:           g.ID,
		Code:         g.Code,
		Status:       g.Status,
		CurrentRound: g.CurrentRound,
		TotalRounds:  g.Settings.TotalRounds,
		Settings:     g.Settings,
		HostID:       g.HostID(),
		Players:      g.Roster(),
		LastResults:  slices.Clone(g.LastResults),
		Rankings:     slices.Clone(g.Rankings),
		AllVoted:     g.AllVoted(),
	}
	if g.Winner != nil {
		w := *g.Winner
		v.Winner = &w
	}
	if p := g.Players.Get(playerID); p != nil {
		v.Me = &Me{ID: p.ID, Rerolls: p.Rerolls, LastArtifact: p.LastArtifact}
	}
	if g.Round != nil {
		v.Round = g.roundView(playerID)
	}
	return v
}

func (g *Game) roundView(playerID string) *RoundView {
	r := g.Round
	rv := &RoundView{
		Number:      r.Number,
		Phase:       r.Phase,
		TimeLeft:    r.TimeLeft,
		Submissions: make([]SubmissionView, len(r.Submissions)),
		VotingIndex: r.Cursor,
	}
	if t, ok := r.Templates[playerID]; ok {
		rv.MemeTemplate = &t
	}
	for i, s := range r.Submissions {
		rv.Submissions[i] = SubmissionView{
			PlayerID: s.PlayerID,
			Name:     s.Name,
			Captions: slices.Clone(s.Captions),
			ImageURL: s.ImageURL,
			Votes:    len(s.Votes),
		}
	}
	return rv
}
