package scoring

import "slices"

var Titles = []string{
	"Meme Lord",
	"Dank Master",
	"Meme Apprentice",
	"Casual Memer",
	"Meme Enthusiast",
	"Needs More JPG",
	"Keep Practicing",
	"At Least You Tried",
}

// Title returns the flavor title for a zero-based position, clamped to the last title.
func Title(position int) string {
	if position < 0 {
		position = 0
	}
	return Titles[min(position, len(Titles)-1)]
}

type Entry struct {
	PlayerID       string
	Name           string
	AvatarURL      string
	WinningMessage string
	Score          int
}

type Ranking struct {
	PlayerID       string `json:"playerId"`
	Name           string `json:"username"`
	AvatarURL      string `json:"avatarUrl,omitempty"`
	WinningMessage string `json:"winningMessage,omitempty"`
	Score          int    `json:"score"`
	Rank           int    `json:"rank"`
	Title          string `json:"title"`
}

// Rankings orders entries by score, highest first. Equal scores keep their input order.
func Rankings(entries []Entry) []Ranking {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		return b.Score - a.Score
	})

	out := make([]Ranking, len(sorted))
	for i, e := range sorted {
		out[i] = Ranking{
			PlayerID:       e.PlayerID,
			Name:           e.Name,
			AvatarURL:      e.AvatarURL,
			WinningMessage: e.WinningMessage,
			Score:          e.Score,
			Rank:           i + 1,
			Title:          Title(i),
		}
	}
	return out
}
