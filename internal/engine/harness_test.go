package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"memebattle/internal/artifacts"
	"memebattle/internal/db"
	"memebattle/internal/gamedata"
	"memebattle/internal/memes"
	"memebattle/internal/players"
	"memebattle/internal/protocol"
	"memebattle/internal/rooms"
	"memebattle/internal/timers"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testTemplates = []memes.Template{
	{ID: "drake", URL: "/memes/drake.jpg", CaptionFields: 2},
	{ID: "fry1", URL: "/memes/fry1.jpg", CaptionFields: 3},
}

type recorder struct {
	mu   sync.Mutex
	sent map[string][]protocol.Message
}

func (r *recorder) Deliver(playerID string, msg protocol.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent == nil {
		r.sent = make(map[string][]protocol.Message)
	}
	r.sent[playerID] = append(r.sent[playerID], msg)
}

func (r *recorder) of(playerID, typ string) []protocol.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []protocol.Message
	for _, m := range r.sent[playerID] {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

func (r *recorder) count(playerID, typ string) int {
	return len(r.of(playerID, typ))
}

func (r *recorder) last(t *testing.T, playerID, typ string) protocol.Message {
	t.Helper()
	msgs := r.of(playerID, typ)
	require.NotEmpty(t, msgs, "no %s delivered to %s", typ, playerID)
	return msgs[len(msgs)-1]
}

type fakeGenerator struct {
	mu     sync.Mutex
	n      int
	err    error
	panics bool
}

func (f *fakeGenerator) Generate(_ context.Context, gameID string, _ memes.Template, _ []artifacts.Caption) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panics {
		panic("renderer exploded")
	}
	if f.err != nil {
		return "", f.err
	}
	f.n++
	return fmt.Sprintf("/generated/meme-%s-%d.png", gameID, f.n), nil
}

func (f *fakeGenerator) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type mockStats struct {
	mock.Mock
}

func (m *mockStats) RecordFinishedGame(_ context.Context, g db.FinishedGame) error {
	return m.Called(g).Error(0)
}

type mockStars struct {
	mock.Mock
}

func (m *mockStars) StarMeme(_ context.Context, userID, imageURL string) error {
	return m.Called(userID, imageURL).Error(0)
}

type nopPurger struct{}

func (nopPurger) Purge(string, []string) error { return nil }

type harness struct {
	e     *Engine
	reg   *rooms.Registry
	tm    *timers.Manual
	out   *recorder
	gen   *fakeGenerator
	stats *mockStats
	stars *mockStars
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		tm:    timers.NewManual(),
		out:   &recorder{},
		gen:   &fakeGenerator{},
		stats: &mockStats{},
		stars: &mockStars{},
	}
	h.reg = rooms.NewRegistry(h.tm, h.out, nopPurger{})
	h.e = New(Deps{
		Rooms:     h.reg,
		Timers:    h.tm,
		Out:       h.out,
		Generator: h.gen,
		Stats:     h.stats,
		Stars:     h.stars,
		Catalog:   memes.NewCatalog(testTemplates),
	}, DefaultConfig())
	t.Cleanup(h.e.Wait)
	return h
}

func ident(id string) players.Identity {
	return players.Identity{ID: id, Name: "user-" + id}
}

// room creates a waiting room hosted by ids[0] with the rest joined in order.
func (h *harness) room(t *testing.T, ids ...string) string {
	t.Helper()
	view, err := h.e.CreateRoom(ident(ids[0]), "1234")
	require.NoError(t, err)
	for _, id := range ids[1:] {
		_, err := h.e.JoinRoom(ident(id), "1234")
		require.NoError(t, err)
	}
	return view.ID
}

// started is room plus Start with the given number of rounds.
func (h *harness) started(t *testing.T, rounds int, ids ...string) string {
	t.Helper()
	id := h.room(t, ids...)
	require.NoError(t, h.e.Start(id, ids[0], gamedata.Settings{TotalRounds: rounds}))
	return id
}

func caption(text string) []artifacts.Caption {
	return []artifacts.Caption{{Text: text, Top: "10%", Left: "10%"}}
}

// voting is started plus a submission from every player, in order.
func (h *harness) voting(t *testing.T, rounds int, ids ...string) string {
	t.Helper()
	id := h.started(t, rounds, ids...)
	for _, pid := range ids {
		_, err := h.e.Submit(context.Background(), id, pid, caption("from "+pid))
		require.NoError(t, err)
	}
	return id
}

// with runs fn against the live game under its lock.
func (h *harness) with(t *testing.T, gameID string, fn func(g *gamedata.Game)) {
	t.Helper()
	g := h.reg.Get(gameID)
	require.NotNil(t, g, "game %s not registered", gameID)
	g.Lock()
	defer g.Unlock()
	fn(g)
}

func (h *harness) phase(t *testing.T, gameID string) gamedata.Phase {
	var p gamedata.Phase
	h.with(t, gameID, func(g *gamedata.Game) { p = g.Phase() })
	return p
}

// revealAll fires the reveal timer until the round leaves voting.
func (h *harness) revealAll(t *testing.T, gameID string) {
	t.Helper()
	for iter := 0; iter < gamedata.MaxPlayers+1; iter++ {
		if h.phase(t, gameID) != gamedata.PhaseVoting {
			return
		}
		require.True(t, h.tm.Fire(gameID, keyReveal), "no reveal timer armed")
	}
	t.Fatal("voting never ended")
}
