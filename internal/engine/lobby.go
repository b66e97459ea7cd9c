package engine

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"memebattle/internal/gamedata"
	"memebattle/internal/players"
	"memebattle/internal/protocol"

	"github.com/rs/zerolog/log"
)

const MaxChatLength = 300

// CreateRoom opens a room under code with ident as host. A seat held in any
// other room is given up once the new room exists.
func (e *Engine) CreateRoom(ident players.Identity, code string) (gamedata.StateView, error) {
	prev := e.rooms.FindByPlayer(ident.ID)

	g, err := e.rooms.Create(code, ident.NewPlayer())
	if err != nil {
		return gamedata.StateView{}, err
	}
	e.leavePrevious(prev, g.ID, ident.ID)
	log.Info().Str("component", "engine").Str("game_id", g.ID).Str("code", code).Str("player_id", ident.ID).Msg("room created")

	var view gamedata.StateView
	err = e.run(g.ID, func(g *gamedata.Game, t *tx) error {
		t.lobby = true
		view = g.View(ident.ID)
		e.sendState(g, ident.ID)
		e.broadcastRoster(g)
		return nil
	})
	return view, err
}

// JoinRoom seats ident in the waiting room under code. Joining the room the
// player already sits in resumes that seat. A failed join keeps the
// player where they were.
func (e *Engine) JoinRoom(ident players.Identity, code string) (gamedata.StateView, error) {
	prev := e.rooms.FindByPlayer(ident.ID)
	if prev != nil && prev.Code == code {
		if err := e.Reconnect(prev.ID, ident.ID); err != nil {
			return gamedata.StateView{}, err
		}
		return e.Snapshot(prev.ID, ident.ID)
	}

	g, err := e.rooms.Join(code, ident.NewPlayer())
	if err != nil {
		return gamedata.StateView{}, err
	}
	e.leavePrevious(prev, g.ID, ident.ID)

	var view gamedata.StateView
	err = e.run(g.ID, func(g *gamedata.Game, t *tx) error {
		t.lobby = true
		p := g.Players.Get(ident.ID)
		if p == nil {
			return ErrNotInRoom
		}
		log.Info().Str("component", "engine").Str("game_id", g.ID).Str("player_id", p.ID).Msg("player joined")
		view = g.View(p.ID)
		e.sendState(g, p.ID)
		e.broadcastExcept(g, p.ID, protocol.TypePlayerJoined, PlayerEvent{PlayerID: p.ID, Name: p.Name})
		e.broadcastRoster(g)
		return nil
	})
	return view, err
}

// leavePrevious gives up the seat in prev once playerID holds one in nextID.
func (e *Engine) leavePrevious(prev *gamedata.Game, nextID, playerID string) {
	if prev == nil || prev.ID == nextID {
		return
	}
	if err := e.Leave(prev.ID, playerID); err != nil {
		log.Debug().Str("component", "engine").Str("game_id", prev.ID).Err(err).Msg("leaving previous room")
	}
}

// Rematch moves everyone from a finished game into a new room with a fresh
// code. Scores start over; the old room is closed.
func (e *Engine) Rematch(gameID, playerID string) (gamedata.StateView, error) {
	var newID string
	err := e.run(gameID, func(g *gamedata.Game, t *tx) error {
		if g.Players.Get(playerID) == nil {
			return ErrNotInRoom
		}
		if g.Status != gamedata.StatusFinished {
			return ErrWrongStatus
		}

		members := g.Players.List()
		for _, p := range members {
			p.ResetGame()
		}
		ng, err := e.rooms.CreateRandom(members)
		if err != nil {
			return fmt.Errorf("creating rematch room: %w", err)
		}
		newID = ng.ID

		log.Info().Str("component", "engine").Str("game_id", g.ID).Str("new_game_id", ng.ID).Str("code", ng.Code).Msg("rematch started")
		e.broadcast(g, protocol.TypeRematchStarted, RematchStarted{
			OldGameID: g.ID,
			NewGameID: ng.ID,
			Code:      ng.Code,
		})

		// Everyone has moved; nobody is left to be told the old room closed.
		g.Players = players.NewRoster()
		t.closeReason = "rematch"
		return nil
	})
	if err != nil {
		return gamedata.StateView{}, err
	}

	var view gamedata.StateView
	err = e.run(newID, func(g *gamedata.Game, t *tx) error {
		t.lobby = true
		for _, p := range g.Players.List() {
			if !p.Connected {
				e.armGrace(g, p.ID)
			}
		}
		view = g.View(playerID)
		e.broadcastState(g)
		e.broadcastRoster(g)
		return nil
	})
	return view, err
}

// Star keeps one of the game's memes from being purged and saves it to the
// player's collection.
func (e *Engine) Star(gameID, playerID, imageURL string) error {
	return e.run(gameID, func(g *gamedata.Game, t *tx) error {
		if g.Players.Get(playerID) == nil {
			return ErrNotInRoom
		}
		if !g.HasArtifact(imageURL) {
			return ErrUnknownArtifact
		}
		g.Starred[imageURL] = true
		e.background(func(ctx context.Context) {
			if err := e.stars.StarMeme(ctx, playerID, imageURL); err != nil {
				log.Warn().Str("component", "engine").Str("player_id", playerID).Err(err).Msg("saving starred meme failed")
			}
		})
		return nil
	})
}

func (e *Engine) Chat(gameID, playerID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > MaxChatLength {
		return fmt.Errorf("message longer than %d characters", MaxChatLength)
	}
	return e.run(gameID, func(g *gamedata.Game, t *tx) error {
		p := g.Players.Get(playerID)
		if p == nil {
			return ErrNotInRoom
		}
		e.broadcast(g, protocol.TypeGameChat, ChatMessage{
			PlayerID:  p.ID,
			Name:      p.Name,
			Message:   text,
			Timestamp: time.Now().UTC(),
		})
		return nil
	})
}

// Snapshot is the full game state as seen by one of its players.
func (e *Engine) Snapshot(gameID, playerID string) (gamedata.StateView, error) {
	var view gamedata.StateView
	err := e.run(gameID, func(g *gamedata.Game, t *tx) error {
		if g.Players.Get(playerID) == nil {
			return ErrNotInRoom
		}
		view = g.View(playerID)
		return nil
	})
	return view, err
}

// CurrentGame is the ID of the game playerID has a seat in, or "".
func (e *Engine) CurrentGame(playerID string) string {
	if g := e.rooms.FindByPlayer(playerID); g != nil {
		return g.ID
	}
	return ""
}
