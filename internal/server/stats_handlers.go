package server

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"memebattle/internal/analytics"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

func (s *Server) statsAvailable(w http.ResponseWriter) bool {
	if s.Stats == nil {
		writeError(w, http.StatusServiceUnavailable, "stats unavailable without a database")
		return false
	}
	return true
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if !s.statsAvailable(w) {
		return
	}
	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = "points"
	}
	limit := defaultLeaderboardLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = min(v, maxLeaderboardLimit)
	}

	entries, err := s.Stats.GetLeaderboard(r.Context(), metric, limit)
	if errors.Is(err, analytics.ErrUnknownMetric) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Error().Str("component", "http").Err(err).Msg("leaderboard")
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"metric": metric, "entries": entries})
}

func (s *Server) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	if !s.statsAvailable(w) {
		return
	}
	id := mux.Vars(r)["id"]
	stats, err := s.Stats.GetPlayerStats(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "player not found")
		return
	}
	if err != nil {
		log.Error().Str("component", "http").Str("player_id", id).Err(err).Msg("player stats")
		writeError(w, http.StatusInternalServerError, "failed to load player")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGameRecap(w http.ResponseWriter, r *http.Request) {
	if !s.statsAvailable(w) {
		return
	}
	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	recap, err := s.Stats.GetGameRecap(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	if err != nil {
		log.Error().Str("component", "http").Str("game_id", id).Err(err).Msg("game recap")
		writeError(w, http.StatusInternalServerError, "failed to load game")
		return
	}
	writeJSON(w, http.StatusOK, recap)
}

func (s *Server) handleStarred(w http.ResponseWriter, r *http.Request) {
	if !s.statsAvailable(w) {
		return
	}
	id := mux.Vars(r)["id"]
	urls, err := s.DB.StarredMemes(r.Context(), id)
	if err != nil {
		log.Error().Str("component", "http").Str("player_id", id).Err(err).Msg("starred memes")
		writeError(w, http.StatusInternalServerError, "failed to load starred memes")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"playerId": id, "imageUrls": urls})
}
