package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"memebattle/internal/engine"
	"memebattle/internal/gamedata"
	"memebattle/internal/metrics"
	"memebattle/internal/players"
	"memebattle/internal/protocol"
	"memebattle/internal/scoring"
	"memebattle/internal/wshub"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const readLimit = 64 << 10

var (
	ErrUnknownType = errors.New("unknown message type")
	ErrRateLimited = errors.New("slow down")
)

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ident, err := s.Auth.FromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns(),
	})
	if err != nil {
		log.Warn().Str("component", "ws").Str("player_id", ident.ID).Err(err).Msg("accept failed")
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(readLimit)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := wshub.NewClient(ident.ID, conn)
	s.Hub.Register(c)
	go c.WritePump(ctx)
	log.Info().Str("component", "ws").Str("player_id", ident.ID).Msg("connected")

	s.Engine.Connect(ident)
	s.Hub.Deliver(ident.ID, protocol.New(protocol.TypeGamesUpdate, s.Engine.Summaries()))

	limiter := rate.NewLimiter(rate.Limit(s.Cfg.MessageRate), s.Cfg.MessageBurst)
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		if !limiter.Allow() {
			metrics.MessagesLimited.Inc()
			s.Hub.Deliver(ident.ID, protocol.Err(ErrRateLimited))
			continue
		}
		s.dispatch(ctx, ident, data)
	}

	// A newer connection for the same player keeps the seat.
	if s.Hub.Unregister(c) {
		s.Engine.Disconnect(ident.ID)
	}
	log.Info().Str("component", "ws").Str("player_id", ident.ID).Msg("disconnected")
}

// dispatch runs one inbound message and answers it. Requests carrying a ref
// always get an ack; others only hear back on failure.
func (s *Server) dispatch(ctx context.Context, ident players.Identity, raw []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.Hub.Deliver(ident.ID, protocol.Err(fmt.Errorf("%w: %v", protocol.ErrInvalidPayload, err)))
		return
	}

	data, err := s.handle(ctx, ident, env)
	if err != nil {
		log.Debug().Str("component", "ws").Str("player_id", ident.ID).Str("type", env.Type).Err(err).Msg("request rejected")
		if env.Ref != "" {
			s.Hub.Deliver(ident.ID, protocol.Fail(env.Ref, err))
		} else {
			s.Hub.Deliver(ident.ID, protocol.Err(err))
		}
		return
	}
	if env.Ref != "" {
		s.Hub.Deliver(ident.ID, protocol.OK(env.Ref, data))
	}
}

func (s *Server) handle(ctx context.Context, ident players.Identity, env protocol.Envelope) (any, error) {
	switch env.Type {
	case protocol.TypeCreateRoom:
		var p protocol.CreateRoom
		if err := protocol.Decode(env.Data, &p); err != nil {
			return nil, err
		}
		return s.Engine.CreateRoom(ident, p.Code)

	case protocol.TypeJoinRoom:
		var p protocol.JoinRoom
		if err := protocol.Decode(env.Data, &p); err != nil {
			return nil, err
		}
		return s.Engine.JoinRoom(ident, p.Code)
	}

	// Everything else acts on the room the player is seated in.
	gameID := s.Engine.CurrentGame(ident.ID)
	if gameID == "" {
		if !known(env.Type) {
			return nil, ErrUnknownType
		}
		return nil, engine.ErrNotInRoom
	}

	switch env.Type {
	case protocol.TypeLeaveRoom:
		return nil, s.Engine.Leave(gameID, ident.ID)

	case protocol.TypeStartGame:
		var p protocol.StartGame
		if err := protocol.Decode(env.Data, &p); err != nil {
			return nil, err
		}
		return nil, s.Engine.Start(gameID, ident.ID, gamedata.Settings{
			TotalRounds:   p.Rounds,
			SubmitSeconds: p.RoundSeconds,
			VoteSeconds:   p.VoteSeconds,
		})

	case protocol.TypeSubmitMeme:
		var p protocol.SubmitMeme
		if err := protocol.Decode(env.Data, &p); err != nil {
			return nil, err
		}
		url, err := s.Engine.Submit(ctx, gameID, ident.ID, p.Captions)
		if err != nil {
			return nil, err
		}
		return map[string]string{"imageUrl": url}, nil

	case protocol.TypeSubmitVote:
		var p protocol.SubmitVote
		if err := protocol.Decode(env.Data, &p); err != nil {
			return nil, err
		}
		return nil, s.Engine.Vote(gameID, ident.ID, p.SubmissionPlayerID, scoring.VoteKind(p.VoteType))

	case protocol.TypeRequestReroll:
		return s.Engine.Reroll(gameID, ident.ID)

	case protocol.TypeRequestRematch:
		return s.Engine.Rematch(gameID, ident.ID)

	case protocol.TypeStarMeme:
		var p protocol.StarMeme
		if err := protocol.Decode(env.Data, &p); err != nil {
			return nil, err
		}
		return nil, s.Engine.Star(gameID, ident.ID, p.ImageURL)

	case protocol.TypeGameChat:
		var p protocol.GameChat
		if err := protocol.Decode(env.Data, &p); err != nil {
			return nil, err
		}
		return nil, s.Engine.Chat(gameID, ident.ID, p.Message)
	}
	return nil, ErrUnknownType
}

func known(typ string) bool {
	switch typ {
	case protocol.TypeLeaveRoom, protocol.TypeStartGame, protocol.TypeSubmitMeme,
		protocol.TypeSubmitVote, protocol.TypeRequestReroll, protocol.TypeRequestRematch,
		protocol.TypeStarMeme, protocol.TypeGameChat:
		return true
	}
	return false
}
