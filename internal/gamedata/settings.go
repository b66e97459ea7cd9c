package gamedata

const (
	MaxPlayers      = 10
	MinPlayers      = 2
	RerollsPerRound = 3

	MinRounds        = 1
	MaxRounds        = 10
	MinSubmitSeconds = 30
	MaxSubmitSeconds = 180
	MinVoteSeconds   = 10
	MaxVoteSeconds   = 60

	DefaultRounds        = 1
	DefaultSubmitSeconds = 90
	DefaultVoteSeconds   = 15
)

type Settings struct {
	TotalRounds   int `json:"totalRounds"`
	SubmitSeconds int `json:"roundTime"`
	VoteSeconds   int `json:"votingTime"`
}

func DefaultSettings() Settings {
	return Settings{
		TotalRounds:   DefaultRounds,
		SubmitSeconds: DefaultSubmitSeconds,
		VoteSeconds:   DefaultVoteSeconds,
	}
}

// Clamp replaces zero values with defaults and pulls the rest into range.
func (s Settings) Clamp() Settings {
	d := DefaultSettings()
	if s.TotalRounds == 0 {
		s.TotalRounds = d.TotalRounds
	}
	if s.SubmitSeconds == 0 {
		s.SubmitSeconds = d.SubmitSeconds
	}
	if s.VoteSeconds == 0 {
		s.VoteSeconds = d.VoteSeconds
	}
	return Settings{
		TotalRounds:   clamp(s.TotalRounds, MinRounds, MaxRounds),
		SubmitSeconds: clamp(s.SubmitSeconds, MinSubmitSeconds, MaxSubmitSeconds),
		VoteSeconds:   clamp(s.VoteSeconds, MinVoteSeconds, MaxVoteSeconds),
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
