package gamedata

import (
	"memebattle/internal/artifacts"
	"memebattle/internal/memes"
	"memebattle/internal/scoring"
)

type Phase string

const (
	PhaseSubmitting = Phase("submitting")
	PhaseVoting     = Phase("voting")
	PhaseResults    = Phase("results")
)

type Vote struct {
	VoterID string
	Kind    scoring.VoteKind
}

type Submission struct {
	PlayerID      string
	Name          string
	Captions      []artifacts.Caption
	ImageURL      string
	TemplateURL   string
	Votes         []Vote
	Bonuses       []scoring.Bonus
	AutoSubmitted bool
}

func (s *Submission) HasVoteFrom(voterID string) bool {
	for _, v := range s.Votes {
		if v.VoterID == voterID {
			return true
		}
	}
	return false
}

func (s *Submission) VoteKinds() []scoring.VoteKind {
	kinds := make([]scoring.VoteKind, len(s.Votes))
	for i, v := range s.Votes {
		kinds[i] = v.Kind
	}
	return kinds
}

type Round struct {
	Number      int
	Phase       Phase
	TimeLeft    int
	Templates   map[string]memes.Template
	Submissions []*Submission

	// Voting playback. Cursor is -1 until the first reveal.
	Cursor           int
	VotingInProgress bool

	// ResultsEmitted makes end-of-round processing run once.
	ResultsEmitted bool
}

func NewRound(number, seconds int) *Round {
	return &Round{
		Number:    number,
		Phase:     PhaseSubmitting,
		TimeLeft:  seconds,
		Templates: make(map[string]memes.Template),
		Cursor:    -1,
	}
}

func (r *Round) Submission(playerID string) *Submission {
	for _, s := range r.Submissions {
		if s.PlayerID == playerID {
			return s
		}
	}
	return nil
}

// Current is the submission under the voting cursor.
func (r *Round) Current() *Submission {
	if r.Cursor < 0 || r.Cursor >= len(r.Submissions) {
		return nil
	}
	return r.Submissions[r.Cursor]
}

// Winner returns the owner of the submission holding the single highest
// vote count. Ties and rounds without votes have no winner.
func (r *Round) Winner() (string, bool) {
	best, bestCount, tied := "", 0, false
	for _, s := range r.Submissions {
		switch n := len(s.Votes); {
		case n > bestCount:
			best, bestCount, tied = s.PlayerID, n, false
		case n == bestCount && n > 0:
			tied = true
		}
	}
	if bestCount == 0 || tied {
		return "", false
	}
	return best, true
}

type VoteCounts struct {
	Like int `json:"like"`
	Meh  int `json:"meh"`
	Pass int `json:"pass"`
}

func CountVotes(votes []Vote) VoteCounts {
	kinds := make([]scoring.VoteKind, len(votes))
	for i, v := range votes {
		kinds[i] = v.Kind
	}
	t := scoring.Tally(kinds)
	return VoteCounts{Like: t[scoring.Like], Meh: t[scoring.Meh], Pass: t[scoring.Pass]}
}

type RoundResult struct {
	PlayerID    string              `json:"playerId"`
	Name        string              `json:"username"`
	Captions    []artifacts.Caption `json:"captions"`
	Votes       VoteCounts          `json:"votes"`
	ImageURL    string              `json:"imageUrl"`
	TemplateURL string              `json:"templateUrl"`
	Bonuses     []scoring.Bonus     `json:"bonuses"`
	Points      int                 `json:"points"`
}
