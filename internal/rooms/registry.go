package rooms

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"memebattle/internal/gamedata"
	"memebattle/internal/metrics"
	"memebattle/internal/players"
	"memebattle/internal/protocol"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidCode   = errors.New("room code must be exactly 4 digits")
	ErrCodeTaken     = errors.New("a room with that code already exists")
	ErrRoomNotFound  = errors.New("room not found")
	ErrNotJoinable   = errors.New("game has already started")
	ErrRoomFull      = errors.New("room is full")
	ErrAlreadyInRoom = errors.New("player is already in this room")
)

type Canceller interface {
	CancelRoom(room string) int
}

type Deliverer interface {
	Deliver(playerID string, msg protocol.Message)
}

type Purger interface {
	Purge(roomID string, keep []string) error
}

type Closed struct {
	GameID string `json:"gameId"`
	Reason string `json:"reason"`
}

// Registry indexes active games by ID and by join code. Both entries are
// written and deleted together under mu.
//
// mu is never held while a game lock is taken, so a caller holding a game
// lock may use Create, CreateRandom and the lookups. Join, Summaries,
// FindByPlayer, Remove and SweepStale lock games themselves and must be
// called without one held.
type Registry struct {
	mu     sync.Mutex
	byID   map[string]*gamedata.Game
	byCode map[string]*gamedata.Game
	timers Canceller
	out    Deliverer
	purger Purger
}

func NewRegistry(timers Canceller, out Deliverer, purger Purger) *Registry {
	return &Registry{
		byID:   make(map[string]*gamedata.Game),
		byCode: make(map[string]*gamedata.Game),
		timers: timers,
		out:    out,
		purger: purger,
	}
}

// Create registers a waiting game whose only player is the host.
func (r *Registry) Create(code string, host *players.Player) (*gamedata.Game, error) {
	if !ValidCode(code) {
		return nil, ErrInvalidCode
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byCode[code]; exists {
		return nil, ErrCodeTaken
	}
	g := gamedata.NewGame(uuid.NewString(), code, host)
	r.registerLocked(g)
	return g, nil
}

// CreateRandom registers a waiting game under a fresh random code with the
// given players in order. The first player hosts.
func (r *Registry) CreateRandom(members []*players.Player) (*gamedata.Game, error) {
	if len(members) == 0 {
		return nil, errors.New("creating room: no players")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	// Try up to 10 times to generate a unique code
	for iter := 0; iter < 10; iter++ {
		code, err := GenerateCode()
		if err != nil {
			return nil, fmt.Errorf("generating room code: %w", err)
		}
		if _, exists := r.byCode[code]; exists {
			continue
		}
		g := gamedata.NewGame(uuid.NewString(), code, members[0])
		for _, p := range members[1:] {
			g.Players.Add(p)
		}
		r.registerLocked(g)
		return g, nil
	}
	return nil, fmt.Errorf("failed to generate unique room code after 10 attempts")
}

func (r *Registry) registerLocked(g *gamedata.Game) {
	r.byID[g.ID] = g
	r.byCode[g.Code] = g
	metrics.RoomsActive.Inc()
}

// Join adds p to the waiting game registered under code.
func (r *Registry) Join(code string, p *players.Player) (*gamedata.Game, error) {
	g := r.GetByCode(code)
	if g == nil {
		return nil, ErrRoomNotFound
	}

	g.Lock()
	defer g.Unlock()
	switch {
	case g.Closed:
		return nil, ErrRoomNotFound
	case g.Players.Get(p.ID) != nil:
		return nil, ErrAlreadyInRoom
	case g.Status != gamedata.StatusWaiting:
		return nil, ErrNotJoinable
	case g.Players.Len() >= gamedata.MaxPlayers:
		return nil, ErrRoomFull
	}
	g.Players.Add(p)
	g.Touch()
	return g, nil
}

func (r *Registry) Get(id string) *gamedata.Game {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id]
}

func (r *Registry) GetByCode(code string) *gamedata.Game {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byCode[code]
}

func (r *Registry) List() []*gamedata.Game {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]*gamedata.Game, 0, len(r.byID))
	for _, g := range r.byID {
		list = append(list, g)
	}
	return list
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// Summaries is the lobby listing, oldest room first.
func (r *Registry) Summaries() []gamedata.Summary {
	games := r.List()
	out := make([]gamedata.Summary, 0, len(games))
	for _, g := range games {
		g.Lock()
		if !g.Closed {
			out = append(out, g.Summary())
		}
		g.Unlock()
	}
	slices.SortFunc(out, func(a, b gamedata.Summary) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

// FindByPlayer returns the active game that has playerID on its roster.
func (r *Registry) FindByPlayer(playerID string) *gamedata.Game {
	for _, g := range r.List() {
		g.Lock()
		found := !g.Closed && g.Players.Get(playerID) != nil
		g.Unlock()
		if found {
			return g
		}
	}
	return nil
}

// Remove evicts the game, stops its timers, tells remaining players and
// purges the room's unstarred artifacts.
func (r *Registry) Remove(id, reason string) bool {
	r.mu.Lock()
	g, ok := r.byID[id]
	if ok {
		delete(r.byID, id)
		if r.byCode[g.Code] == g {
			delete(r.byCode, g.Code)
		}
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	metrics.RoomsActive.Dec()
	metrics.RoomsClosed.WithLabelValues(reason).Inc()

	// Closed goes up first so a callback already waiting on the lock cannot
	// re-arm anything after the cancel.
	g.Lock()
	g.Closed = true
	recipients := g.Players.IDs()
	keep := g.StarredRefs()
	g.Unlock()

	r.timers.CancelRoom(id)

	msg := protocol.New(protocol.TypeRoomClosed, Closed{GameID: id, Reason: reason})
	for _, pid := range recipients {
		r.out.Deliver(pid, msg)
	}

	if err := r.purger.Purge(id, keep); err != nil {
		log.Warn().Str("component", "rooms").Str("game_id", id).Err(err).Msg("purging artifacts failed")
	}
	log.Info().Str("component", "rooms").Str("game_id", id).Str("reason", reason).Msg("room removed")
	return true
}

// SweepStale removes rooms idle for longer than ttl that are finished or have
// nobody connected.
func (r *Registry) SweepStale(ttl time.Duration) int {
	now := time.Now()
	var stale []string
	for _, g := range r.List() {
		g.Lock()
		idle := now.Sub(g.UpdatedAt) > ttl
		abandoned := g.Status == gamedata.StatusFinished || !anyConnected(g)
		g.Unlock()
		if idle && abandoned {
			stale = append(stale, g.ID)
		}
	}
	removed := 0
	for _, id := range stale {
		if r.Remove(id, "inactive") {
			removed++
		}
	}
	return removed
}

func anyConnected(g *gamedata.Game) bool {
	for _, p := range g.Players.List() {
		if p.Connected {
			return true
		}
	}
	return false
}

// RunSweeper calls SweepStale every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.SweepStale(ttl); n > 0 {
				log.Info().Str("component", "rooms").Int("removed", n).Msg("swept stale rooms")
			}
		}
	}
}
