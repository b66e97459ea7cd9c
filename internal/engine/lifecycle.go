package engine

import (
	"memebattle/internal/gamedata"
	"memebattle/internal/players"
	"memebattle/internal/protocol"

	"github.com/rs/zerolog/log"
)

// Connect greets a newly opened connection and, when the identity still has a
// seat somewhere, resumes it. It returns the resumed game's ID, if any.
func (e *Engine) Connect(ident players.Identity) string {
	g := e.rooms.FindByPlayer(ident.ID)
	info := PlayerInfo{
		ID:             ident.ID,
		Name:           ident.Name,
		AvatarURL:      ident.AvatarURL,
		WinningMessage: ident.WinningMessage,
	}
	if g != nil {
		info.GameID = g.ID
	}
	e.send(ident.ID, protocol.TypePlayerInfo, info)

	if g == nil {
		return ""
	}
	if err := e.Reconnect(g.ID, ident.ID); err != nil {
		return ""
	}
	return g.ID
}

// Disconnect holds the player's seat for the grace period.
func (e *Engine) Disconnect(playerID string) {
	g := e.rooms.FindByPlayer(playerID)
	if g == nil {
		return
	}
	e.run(g.ID, func(g *gamedata.Game, t *tx) error {
		p := g.Players.Get(playerID)
		if p == nil || !p.Connected {
			return nil
		}
		p.Connected = false
		g.Touch()

		log.Info().Str("component", "engine").Str("game_id", g.ID).Str("player_id", p.ID).Msg("player disconnected")
		e.broadcastExcept(g, p.ID, protocol.TypePlayerDisconnected, PlayerEvent{PlayerID: p.ID, Name: p.Name})
		e.broadcastRoster(g)
		e.armGrace(g, p.ID)
		return nil
	})
}

func (e *Engine) armGrace(g *gamedata.Game, playerID string) {
	gameID := g.ID
	e.timers.After(gameID, graceKey(playerID), e.cfg.DisconnectGrace, func() {
		e.onGraceExpired(gameID, playerID)
	})
}

func (e *Engine) onGraceExpired(gameID, playerID string) {
	e.onTimer(gameID, func(g *gamedata.Game, t *tx) error {
		p := g.Players.Get(playerID)
		if p == nil || p.Connected {
			return nil
		}
		log.Info().Str("component", "engine").Str("game_id", g.ID).Str("player_id", p.ID).Msg("grace period expired")
		e.removePlayer(g, t, p)
		return nil
	})
}

// Reconnect restores a disconnected player and replays the full state.
func (e *Engine) Reconnect(gameID, playerID string) error {
	return e.run(gameID, func(g *gamedata.Game, t *tx) error {
		p := g.Players.Get(playerID)
		if p == nil {
			return ErrNotInRoom
		}
		e.timers.Cancel(g.ID, graceKey(p.ID))
		wasConnected := p.Connected
		p.Connected = true
		g.Touch()

		e.sendState(g, p.ID)
		if !wasConnected {
			log.Info().Str("component", "engine").Str("game_id", g.ID).Str("player_id", p.ID).Msg("player reconnected")
			e.broadcastExcept(g, p.ID, protocol.TypePlayerReconnected, PlayerEvent{PlayerID: p.ID, Name: p.Name})
			e.broadcastRoster(g)
		}
		return nil
	})
}

// Leave removes the player right away.
func (e *Engine) Leave(gameID, playerID string) error {
	return e.run(gameID, func(g *gamedata.Game, t *tx) error {
		p := g.Players.Get(playerID)
		if p == nil {
			return ErrNotInRoom
		}
		e.removePlayer(g, t, p)
		e.send(p.ID, protocol.TypeLeftRoom, LeftRoom{GameID: g.ID})
		return nil
	})
}

func (e *Engine) removePlayer(g *gamedata.Game, t *tx, p *players.Player) {
	idx := g.Players.Remove(p.ID)
	if idx < 0 {
		return
	}
	e.timers.Cancel(g.ID, graceKey(p.ID))
	g.Touch()
	t.lobby = true

	log.Info().Str("component", "engine").Str("game_id", g.ID).Str("player_id", p.ID).Int("remaining", g.Players.Len()).Msg("player removed")
	e.broadcast(g, protocol.TypePlayerLeft, PlayerEvent{PlayerID: p.ID, Name: p.Name})

	if g.Players.Len() == 0 {
		e.timers.Cancel(g.ID, keyAdvance)
		t.closeReason = "empty"
		return
	}

	if idx == 0 {
		host := g.Players.Host()
		e.broadcast(g, protocol.TypeHostChanged, HostChanged{HostID: host.ID, Name: host.Name})
	}
	e.broadcastRoster(g)

	// The leaver may have been the last one everybody was waiting on.
	if g.Status == gamedata.StatusPlaying && g.Phase() == gamedata.PhaseSubmitting && g.Players.AllSubmitted() {
		e.beginVoting(g)
	}
}
