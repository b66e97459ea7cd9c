package players

import "slices"

// Roster is the ordered player list of one room. The first player is the host.
// It is not safe for concurrent use; callers hold the owning game's lock.
type Roster struct {
	players []*Player
}

func NewRoster() *Roster {
	return &Roster{}
}

// Add appends p unless a player with the same ID is present.
func (r *Roster) Add(p *Player) bool {
	if r.Get(p.ID) != nil {
		return false
	}
	r.players = append(r.players, p)
	return true
}

func (r *Roster) Get(id string) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Roster) Index(id string) int {
	return slices.IndexFunc(r.players, func(p *Player) bool { return p.ID == id })
}

// Remove deletes the player and returns its former position, or -1.
func (r *Roster) Remove(id string) int {
	i := r.Index(id)
	if i >= 0 {
		r.players = slices.Delete(r.players, i, i+1)
	}
	return i
}

func (r *Roster) Host() *Player {
	if len(r.players) == 0 {
		return nil
	}
	return r.players[0]
}

func (r *Roster) Len() int {
	return len(r.players)
}

// List returns the players in order. The slice is a copy; the players are not.
func (r *Roster) List() []*Player {
	return slices.Clone(r.players)
}

func (r *Roster) IDs() []string {
	ids := make([]string, len(r.players))
	for i, p := range r.players {
		ids[i] = p.ID
	}
	return ids
}

func (r *Roster) AllSubmitted() bool {
	if len(r.players) == 0 {
		return false
	}
	for _, p := range r.players {
		if !p.HasSubmitted {
			return false
		}
	}
	return true
}

func (r *Roster) ResetRound(rerolls int) {
	for _, p := range r.players {
		p.ResetRound(rerolls)
	}
}
