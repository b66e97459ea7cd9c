package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"memebattle/internal/db"
	"memebattle/internal/protocol"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Str("component", "http").Err(err).Msg("writing response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":  "ok",
		"rooms":   len(s.Engine.Summaries()),
		"clients": s.Hub.Count(),
	}
	if s.DB != nil {
		if err := s.DB.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "db_error", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Summaries())
}

func (s *Server) handleMemes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Catalog.List())
}

// handleGameState serves a live game's public state, falling back to the
// last saved state once the room is gone.
func (s *Server) handleGameState(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if view, ok := s.Engine.PublicState(id); ok {
		writeJSON(w, http.StatusOK, view)
		return
	}
	if _, err := uuid.Parse(id); err != nil || s.DB == nil {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}

	state, err := s.DB.LoadGameState(r.Context(), id)
	if errors.Is(err, db.ErrNoState) {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	if err != nil {
		log.Error().Str("component", "http").Str("game_id", id).Err(err).Msg("loading game state")
		writeError(w, http.StatusInternalServerError, "failed to load game")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(state)
}

func (s *Server) handleLobbyEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	msgChan := s.Lobby.Subscribe()
	defer s.Lobby.Unsubscribe(msgChan)

	// Current listing first, then every change.
	if data, err := s.Lobby.LobbyMessage(); err == nil {
		writeEvent(w, protocol.TypeGamesUpdate, string(data))
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-msgChan:
			writeEvent(w, msg.Event, msg.Data)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event, data string) {
	fmt.Fprintf(w, "event: %s\n", event)
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}
