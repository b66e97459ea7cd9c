package scoring

import (
	"fmt"
	"slices"
)

type VoteKind string

const (
	Like VoteKind = "like"
	Meh  VoteKind = "meh"
	Pass VoteKind = "pass"
)

// Valid reports whether k is one of the three accepted kinds.
func (k VoteKind) Valid() bool {
	return k == Like || k == Meh || k == Pass
}

// Points is the base value a single vote of this kind is worth.
func (k VoteKind) Points() int {
	switch k {
	case Like:
		return 100
	case Meh:
		return 10
	case Pass:
		return -50
	}
	return 0
}

const (
	UnanimousPoints   = 100
	FirstSubmitPoints = 25
	StreakPoints      = 50
)

type Bonus struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
}

var (
	BonusUnanimous = Bonus{Name: "Unanimous Victory", Points: UnanimousPoints}
	BonusFirst     = Bonus{Name: "Speed Demon", Points: FirstSubmitPoints}
)

// StreakBonus is the Hot Streak bonus for a streak of n consecutive round wins.
func StreakBonus(n int) Bonus {
	return Bonus{Name: fmt.Sprintf("Hot Streak x%d", n), Points: StreakPoints * n}
}

type Input struct {
	Votes        []VoteKind
	TotalPlayers int
	IsFirst      bool
	WasLastPlace bool
	WinStreak    int
}

type Result struct {
	Points  int     `json:"points"`
	Bonuses []Bonus `json:"bonuses"`
}

func Calculate(in Input) Result {
	res := Result{Bonuses: []Bonus{}}

	for _, v := range in.Votes {
		res.Points += v.Points()
	}

	if unanimous(in) {
		res.add(BonusUnanimous)
	}

	if in.IsFirst {
		res.add(BonusFirst)
	}

	// WasLastPlace is tracked but the comeback bonus is switched off.

	if in.WinStreak > 1 {
		res.add(StreakBonus(in.WinStreak))
	}

	return res
}

func (r *Result) add(b Bonus) {
	r.Points += b.Points
	r.Bonuses = append(r.Bonuses, b)
}

func unanimous(in Input) bool {
	if in.TotalPlayers < 3 || len(in.Votes) != in.TotalPlayers-1 {
		return false
	}
	return !slices.ContainsFunc(in.Votes, func(v VoteKind) bool { return v != Like })
}

// Tally counts votes per kind.
func Tally(votes []VoteKind) map[VoteKind]int {
	counts := map[VoteKind]int{Like: 0, Meh: 0, Pass: 0}
	for _, v := range votes {
		counts[v]++
	}
	return counts
}
