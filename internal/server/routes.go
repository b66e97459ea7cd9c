package server

import (
	"net/http"
	"path/filepath"
	"strings"

	"memebattle/internal/metrics"

	"github.com/gorilla/mux"
)

func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.corsMiddleware)

	get := []string{http.MethodGet, http.MethodOptions}

	r.HandleFunc("/ws", s.handleWS)
	r.HandleFunc("/health", s.handleHealth).Methods(get...)
	r.Handle("/metrics", metrics.Handler()).Methods(get...)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/games", s.handleGames).Methods(get...)
	api.HandleFunc("/games/events", s.handleLobbyEvents).Methods(get...)
	api.HandleFunc("/games/{id}/state", s.handleGameState).Methods(get...)
	api.HandleFunc("/memes", s.handleMemes).Methods(get...)
	api.HandleFunc("/stats/leaderboard", s.handleLeaderboard).Methods(get...)
	api.HandleFunc("/stats/players/{id}", s.handlePlayerStats).Methods(get...)
	api.HandleFunc("/stats/games/{id}", s.handleGameRecap).Methods(get...)
	api.HandleFunc("/players/{id}/starred", s.handleStarred).Methods(get...)

	r.PathPrefix("/generated/").Handler(
		http.StripPrefix("/generated/", http.FileServer(http.Dir(s.Cfg.GeneratedDir))))
	r.PathPrefix("/memes/").Handler(
		http.StripPrefix("/memes/", http.FileServer(http.Dir(filepath.Join(s.Cfg.PublicDir, "memes")))))

	return r
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
		}

		// The upgrade does its own origin check.
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			next.ServeHTTP(w, r)
			return
		}

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, o := range s.Cfg.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// originPatterns converts the allowed origins to the host patterns the
// WebSocket accept check matches against.
func (s *Server) originPatterns() []string {
	patterns := make([]string, 0, len(s.Cfg.AllowedOrigins))
	for _, o := range s.Cfg.AllowedOrigins {
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		patterns = append(patterns, o)
	}
	return patterns
}
