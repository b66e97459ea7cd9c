package players

const DefaultAvatar = "/uploads/avatars/default-avatar.png"

type Player struct {
	ID             string
	Name           string
	AvatarURL      string
	WinningMessage string
	Connected      bool
	Score          int
	HasSubmitted   bool
	Judged         map[string]bool // submission owners already voted on, self included
	Rerolls        int
	WinStreak      int
	LastArtifact   string
}

func New(id, name, avatar, winningMessage string) *Player {
	if avatar == "" {
		avatar = DefaultAvatar
	}
	return &Player{
		ID:             id,
		Name:           name,
		AvatarURL:      avatar,
		WinningMessage: winningMessage,
		Connected:      true,
		Judged:         make(map[string]bool),
	}
}

// ResetRound clears the per-round flags.
func (p *Player) ResetRound(rerolls int) {
	p.HasSubmitted = false
	p.Judged = make(map[string]bool)
	p.Rerolls = rerolls
}

// ResetGame clears everything a new game starts without.
func (p *Player) ResetGame() {
	p.ResetRound(0)
	p.Score = 0
	p.WinStreak = 0
	p.LastArtifact = ""
}

// Identity is who a connection belongs to, as established by the auth layer.
type Identity struct {
	ID             string `json:"id"`
	Name           string `json:"username"`
	AvatarURL      string `json:"avatarUrl"`
	WinningMessage string `json:"winningMessage,omitempty"`
}

func (i Identity) NewPlayer() *Player {
	return New(i.ID, i.Name, i.AvatarURL, i.WinningMessage)
}
