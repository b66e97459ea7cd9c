package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"memebattle/internal/artifacts"
	"memebattle/internal/auth"
	"memebattle/internal/broadcast"
	"memebattle/internal/config"
	"memebattle/internal/engine"
	"memebattle/internal/events"
	"memebattle/internal/gamedata"
	"memebattle/internal/memes"
	"memebattle/internal/players"
	"memebattle/internal/rooms"
	"memebattle/internal/timers"
	"memebattle/internal/wshub"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, gameID string, _ memes.Template, _ []artifacts.Caption) (string, error) {
	return "/generated/" + artifacts.FileName(gameID, "test"), nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		PublicDir:      t.TempDir(),
		GeneratedDir:   t.TempDir(),
		AllowedOrigins: []string{"*"},
		MessageRate:    100,
		MessageBurst:   100,
	}
}

func newTestServer(t *testing.T, cfg config.Config) (*Server, *httptest.Server) {
	t.Helper()
	hub := wshub.NewHub()
	tm := timers.NewManual()
	reg := rooms.NewRegistry(tm, hub, artifacts.NewPurger(cfg.GeneratedDir))
	bus := events.NewBus()
	catalog := memes.NewCatalog(memes.Defaults)

	eng := engine.New(engine.Deps{
		Rooms:     reg,
		Timers:    tm,
		Out:       hub,
		Generator: stubGenerator{},
		Catalog:   catalog,
		Bus:       bus,
	}, engine.DefaultConfig())

	srv := &Server{
		Engine:  eng,
		Hub:     hub,
		Lobby:   broadcast.NewBroadcaster(bus, eng, hub),
		Catalog: catalog,
		Auth:    auth.NewVerifier(""),
		Cfg:     cfg,
	}
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	t.Cleanup(eng.Wait)
	return srv, ts
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, testConfig(t))

	var body map[string]any
	status := getJSON(t, ts.URL+"/health", &body)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestGamesList(t *testing.T) {
	srv, ts := newTestServer(t, testConfig(t))
	_, err := srv.Engine.CreateRoom(players.Identity{ID: "u1", Name: "alice"}, "1234")
	require.NoError(t, err)

	var games []gamedata.Summary
	status := getJSON(t, ts.URL+"/api/games", &games)

	assert.Equal(t, http.StatusOK, status)
	require.Len(t, games, 1)
	assert.Equal(t, "1234", games[0].Code)
	assert.Equal(t, "alice", games[0].HostName)
	assert.Equal(t, gamedata.StatusWaiting, games[0].Status)
}

func TestMemes(t *testing.T) {
	_, ts := newTestServer(t, testConfig(t))

	var templates []memes.Template
	status := getJSON(t, ts.URL+"/api/memes", &templates)

	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, templates, len(memes.Defaults))
}

func TestGameState(t *testing.T) {
	srv, ts := newTestServer(t, testConfig(t))
	view, err := srv.Engine.CreateRoom(players.Identity{ID: "u1", Name: "alice"}, "1234")
	require.NoError(t, err)

	var state gamedata.StateView
	status := getJSON(t, ts.URL+"/api/games/"+view.ID+"/state", &state)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "1234", state.Code)
	assert.Nil(t, state.Me)

	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/games/missing/state", nil))
}

func TestStatsWithoutDatabase(t *testing.T) {
	_, ts := newTestServer(t, testConfig(t))

	for _, path := range []string{
		"/api/stats/leaderboard",
		"/api/stats/players/u1",
		"/api/stats/games/8a0b8f3e-0c7d-4f43-9a59-6d1c3b1f9a10",
		"/api/players/u1/starred",
	} {
		assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, ts.URL+path, nil), path)
	}
}

func TestCORS(t *testing.T) {
	cfg := testConfig(t)
	cfg.AllowedOrigins = []string{"https://play.example"}
	_, ts := newTestServer(t, cfg)

	preflight := func(origin string) *http.Response {
		req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/games", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", origin)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	resp := preflight("https://play.example")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://play.example", resp.Header.Get("Access-Control-Allow-Origin"))

	resp = preflight("https://evil.example")
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t, testConfig(t))

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "memebattle_rooms_active")
}

func TestGeneratedFiles(t *testing.T) {
	cfg := testConfig(t)
	_, ts := newTestServer(t, cfg)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.GeneratedDir, "meme-g-1.png"), []byte("png"), 0o644))

	resp, err := http.Get(ts.URL + "/generated/meme-g-1.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "png", string(body))
}

func TestLobbyEvents(t *testing.T) {
	srv, ts := newTestServer(t, testConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/games/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	nextData := func() string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				return data
			}
		}
	}

	assert.Contains(t, nextData(), `"type":"games_update"`)

	_, err = srv.Engine.CreateRoom(players.Identity{ID: "u1", Name: "alice"}, "5555")
	require.NoError(t, err)
	assert.Contains(t, nextData(), `"passcode":"5555"`)
}
