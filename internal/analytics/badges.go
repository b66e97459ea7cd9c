package analytics

type BadgeID string

const (
	BadgeFirstWin      BadgeID = "first_win"
	BadgeUnstoppable   BadgeID = "unstoppable"
	BadgeVeteran       BadgeID = "veteran"
	BadgeCrowdFavorite BadgeID = "crowd_favorite"
	BadgeDominator     BadgeID = "dominator"
)

type Badge struct {
	ID          BadgeID `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

var AllBadges = map[BadgeID]Badge{
	BadgeFirstWin:      {ID: BadgeFirstWin, Name: "First Blood", Description: "Won a game", Icon: "🏆"},
	BadgeUnstoppable:   {ID: BadgeUnstoppable, Name: "Unstoppable", Description: "3-game win streak", Icon: "🔥"},
	BadgeVeteran:       {ID: BadgeVeteran, Name: "Veteran", Description: "Played 10+ games", Icon: "🏅"},
	BadgeCrowdFavorite: {ID: BadgeCrowdFavorite, Name: "Crowd Favorite", Description: "1000+ points in a single game", Icon: "😂"},
	BadgeDominator:     {ID: BadgeDominator, Name: "Dominator", Description: "Won half of 5+ games played", Icon: "👑"},
}

// EvaluateBadges checks which badges a player earned across their career.
func EvaluateBadges(stats PlayerStats) []Badge {
	earned := []Badge{}

	if stats.GamesWon >= 1 {
		earned = append(earned, AllBadges[BadgeFirstWin])
	}

	// Unstoppable: 3-game win streak, current or past
	if stats.BestWinStreak >= 3 {
		earned = append(earned, AllBadges[BadgeUnstoppable])
	}

	if stats.GamesPlayed >= 10 {
		earned = append(earned, AllBadges[BadgeVeteran])
	}

	if stats.HighestScore >= 1000 {
		earned = append(earned, AllBadges[BadgeCrowdFavorite])
	}

	if stats.GamesPlayed >= 5 && stats.WinRate >= 50.0 {
		earned = append(earned, AllBadges[BadgeDominator])
	}

	return earned
}

func winRate(played, won int) float64 {
	if played == 0 {
		return 0
	}
	return float64(won) / float64(played) * 100
}
