// Package engine runs the game: rounds, voting playback, scoring, and
// player connectivity. Every event for a room runs under that room's lock.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"memebattle/internal/artifacts"
	"memebattle/internal/db"
	"memebattle/internal/events"
	"memebattle/internal/gamedata"
	"memebattle/internal/memes"
	"memebattle/internal/protocol"
	"memebattle/internal/rooms"

	"github.com/rs/zerolog/log"
)

var (
	ErrNotInRoom          = errors.New("you are not in this game")
	ErrNotHost            = errors.New("only the host can do that")
	ErrWrongStatus        = errors.New("game is not in the right state for that")
	ErrNotEnoughPlayers   = errors.New("need at least 2 players to start")
	ErrWrongPhase         = errors.New("not allowed in the current phase")
	ErrAlreadySubmitted   = errors.New("you already submitted this round")
	ErrNoCaptions         = errors.New("at least one caption is required")
	ErrTooManyCaptions    = errors.New("too many captions for this template")
	ErrInvalidVote        = errors.New("invalid vote type")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrSelfVote           = errors.New("you cannot vote on your own meme")
	ErrAlreadyVoted       = errors.New("you already voted on this meme")
	ErrNoRerolls          = errors.New("no rerolls left this round")
	ErrUnknownArtifact    = errors.New("that meme is not from this game")
	ErrEmptyMessage       = errors.New("message is empty")
	ErrInternal           = errors.New("internal error")
)

// Timer keys. Grace timers are keyed per player, see graceKey.
const (
	keyTick    = "tick"
	keyReveal  = "reveal"
	keyAdvance = "advance"
)

func graceKey(playerID string) string {
	return "grace:" + playerID
}

type Timers interface {
	After(room, key string, d time.Duration, fn func())
	Every(room, key string, interval time.Duration, fn func())
	Cancel(room, key string) bool
	CancelRoom(room string) int
	Keys(room string) []string
}

type Deliverer interface {
	Deliver(playerID string, msg protocol.Message)
}

type Generator interface {
	Generate(ctx context.Context, gameID string, tmpl memes.Template, captions []artifacts.Caption) (string, error)
}

type StatsRecorder interface {
	RecordFinishedGame(ctx context.Context, g db.FinishedGame) error
}

type StateStore interface {
	SaveGameState(ctx context.Context, gameID string, state []byte) error
}

type StarStore interface {
	StarMeme(ctx context.Context, userID, imageURL string) error
}

// NopStore discards everything. It stands in for the database when none is configured.
type NopStore struct{}

func (NopStore) RecordFinishedGame(context.Context, db.FinishedGame) error { return nil }

func (NopStore) SaveGameState(context.Context, string, []byte) error { return nil }

func (NopStore) StarMeme(context.Context, string, string) error { return nil }

type Config struct {
	DisconnectGrace time.Duration
	ResultsDisplay  time.Duration
	TickInterval    time.Duration
	GenerateTimeout time.Duration
	PersistTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		DisconnectGrace: 10 * time.Second,
		ResultsDisplay:  30 * time.Second,
		TickInterval:    time.Second,
		GenerateTimeout: 15 * time.Second,
		PersistTimeout:  10 * time.Second,
	}
}

type Deps struct {
	Rooms     *rooms.Registry
	Timers    Timers
	Out       Deliverer
	Generator Generator
	Stats     StatsRecorder
	States    StateStore
	Stars     StarStore
	Catalog   *memes.Catalog
	Bus       *events.Bus
}

type Engine struct {
	rooms   *rooms.Registry
	timers  Timers
	out     Deliverer
	gen     Generator
	stats   StatsRecorder
	states  StateStore
	stars   StarStore
	catalog *memes.Catalog
	bus     *events.Bus
	cfg     Config

	// background persistence
	wg sync.WaitGroup
}

func New(d Deps, cfg Config) *Engine {
	e := &Engine{
		rooms:   d.Rooms,
		timers:  d.Timers,
		out:     d.Out,
		gen:     d.Generator,
		stats:   d.Stats,
		states:  d.States,
		stars:   d.Stars,
		catalog: d.Catalog,
		bus:     d.Bus,
		cfg:     cfg,
	}
	if e.stats == nil {
		e.stats = NopStore{}
	}
	if e.states == nil {
		e.states = NopStore{}
	}
	if e.stars == nil {
		e.stars = NopStore{}
	}
	if e.bus == nil {
		e.bus = events.NewBus()
	}
	def := DefaultConfig()
	if e.cfg.DisconnectGrace <= 0 {
		e.cfg.DisconnectGrace = def.DisconnectGrace
	}
	if e.cfg.ResultsDisplay <= 0 {
		e.cfg.ResultsDisplay = def.ResultsDisplay
	}
	if e.cfg.TickInterval <= 0 {
		e.cfg.TickInterval = def.TickInterval
	}
	if e.cfg.GenerateTimeout <= 0 {
		e.cfg.GenerateTimeout = def.GenerateTimeout
	}
	if e.cfg.PersistTimeout <= 0 {
		e.cfg.PersistTimeout = def.PersistTimeout
	}
	return e
}

// Wait blocks until background persistence has finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// tx collects work that has to wait until the game lock is released.
type tx struct {
	closeReason string
	lobby       bool
}

// run executes fn with the game locked. A panic in fn tears the room down
// instead of crashing the process.
func (e *Engine) run(gameID string, fn func(g *gamedata.Game, t *tx) error) error {
	g := e.rooms.Get(gameID)
	if g == nil {
		return rooms.ErrRoomNotFound
	}
	var t tx
	err := e.locked(g, &t, fn)
	e.settle(g, &t)
	return err
}

func (e *Engine) locked(g *gamedata.Game, t *tx, fn func(*gamedata.Game, *tx) error) (err error) {
	g.Lock()
	defer g.Unlock()
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("component", "engine").
				Str("game_id", g.ID).
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Msg("room handler panicked, closing room")
			t.closeReason = "internal error"
			err = ErrInternal
		}
	}()
	if g.Closed {
		return rooms.ErrRoomNotFound
	}
	return fn(g, t)
}

func (e *Engine) settle(g *gamedata.Game, t *tx) {
	if t.closeReason != "" {
		e.rooms.Remove(g.ID, t.closeReason)
		t.lobby = true
	}
	if t.lobby {
		e.bus.PublishLobbyChange(g.ID)
	}
}

// onTimer is run for timer callbacks, which have nobody to return an error to.
func (e *Engine) onTimer(gameID string, fn func(g *gamedata.Game, t *tx) error) {
	if err := e.run(gameID, fn); err != nil && !errors.Is(err, rooms.ErrRoomNotFound) {
		log.Warn().Str("component", "engine").Str("game_id", gameID).Err(err).Msg("timer handler failed")
	}
}

func (e *Engine) send(playerID, typ string, data any) {
	e.out.Deliver(playerID, protocol.New(typ, data))
}

func (e *Engine) broadcast(g *gamedata.Game, typ string, data any) {
	msg := protocol.New(typ, data)
	for _, id := range g.Players.IDs() {
		e.out.Deliver(id, msg)
	}
}

func (e *Engine) broadcastExcept(g *gamedata.Game, except, typ string, data any) {
	msg := protocol.New(typ, data)
	for _, id := range g.Players.IDs() {
		if id != except {
			e.out.Deliver(id, msg)
		}
	}
}

func (e *Engine) sendState(g *gamedata.Game, playerID string) {
	e.send(playerID, protocol.TypeGameState, g.View(playerID))
}

func (e *Engine) broadcastState(g *gamedata.Game) {
	for _, id := range g.Players.IDs() {
		e.sendState(g, id)
	}
}

func (e *Engine) broadcastRoster(g *gamedata.Game) {
	e.broadcast(g, protocol.TypePlayersUpdate, RosterUpdate{
		GameID:  g.ID,
		HostID:  g.HostID(),
		Players: g.Roster(),
	})
}

// saveState snapshots the game and writes it in the background.
func (e *Engine) saveState(g *gamedata.Game) {
	data, err := json.Marshal(g.View(""))
	if err != nil {
		log.Error().Str("component", "engine").Str("game_id", g.ID).Err(err).Msg("encoding game state")
		return
	}
	gameID := g.ID
	e.background(func(ctx context.Context) {
		if err := e.states.SaveGameState(ctx, gameID, data); err != nil {
			log.Warn().Str("component", "engine").Str("game_id", gameID).Err(err).Msg("saving game state failed")
		}
	})
}

func (e *Engine) background(fn func(ctx context.Context)) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.cfg.PersistTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// Summaries is the lobby listing.
func (e *Engine) Summaries() []gamedata.Summary {
	return e.rooms.Summaries()
}

// PublicState is the live state of a game as seen by a non-player.
func (e *Engine) PublicState(gameID string) (gamedata.StateView, bool) {
	var view gamedata.StateView
	err := e.run(gameID, func(g *gamedata.Game, _ *tx) error {
		view = g.View("")
		return nil
	})
	return view, err == nil
}
