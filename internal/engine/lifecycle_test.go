package engine

import (
	"context"
	"testing"

	"memebattle/internal/gamedata"
	"memebattle/internal/protocol"
	"memebattle/internal/rooms"
	"memebattle/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisconnect_ArmsGrace(t *testing.T) {
	h := newHarness(t)
	id := h.room(t, "a", "b")

	h.e.Disconnect("b")

	assert.Contains(t, h.tm.Keys(id), graceKey("b"))
	h.with(t, id, func(g *gamedata.Game) {
		assert.False(t, g.Players.Get("b").Connected)
	})
	ev := h.out.last(t, "a", protocol.TypePlayerDisconnected).Data.(PlayerEvent)
	assert.Equal(t, "b", ev.PlayerID)
	assert.Equal(t, 0, h.out.count("b", protocol.TypePlayerDisconnected))

	// Unknown identities are ignored.
	h.e.Disconnect("nobody")
}

func TestReconnectWithinGrace_KeepsSeatAndProgress(t *testing.T) {
	h := newHarness(t)
	id := h.started(t, 2, "a", "b")

	_, err := h.e.Submit(context.Background(), id, "b", caption("mine"))
	require.NoError(t, err)
	h.with(t, id, func(g *gamedata.Game) { g.Players.Get("b").Score = 120 })

	h.e.Disconnect("b")
	before := h.out.count("b", protocol.TypeGameState)

	gameID := h.e.Connect(ident("b"))
	assert.Equal(t, id, gameID)

	assert.NotContains(t, h.tm.Keys(id), graceKey("b"))
	h.with(t, id, func(g *gamedata.Game) {
		p := g.Players.Get("b")
		require.NotNil(t, p)
		assert.True(t, p.Connected)
		assert.Equal(t, 120, p.Score)
		assert.True(t, p.HasSubmitted)
		assert.Equal(t, 2, g.Players.Len())
	})

	info := h.out.last(t, "b", protocol.TypePlayerInfo).Data.(PlayerInfo)
	assert.Equal(t, id, info.GameID)
	assert.Equal(t, before+1, h.out.count("b", protocol.TypeGameState))
	state := h.out.last(t, "b", protocol.TypeGameState).Data.(gamedata.StateView)
	require.NotNil(t, state.Me)
	assert.NotEmpty(t, state.Me.LastArtifact)
	assert.Equal(t, gamedata.PhaseSubmitting, state.Round.Phase)
	assert.Equal(t, 1, h.out.count("a", protocol.TypePlayerReconnected))

	// A stale grace callback does nothing to a connected player.
	h.e.onGraceExpired(id, "b")
	h.with(t, id, func(g *gamedata.Game) { assert.NotNil(t, g.Players.Get("b")) })
}

func TestGraceExpiry_RemovesHostAndElectsNext(t *testing.T) {
	h := newHarness(t)
	id := h.room(t, "a", "b", "c")

	h.e.Disconnect("a")
	require.True(t, h.tm.Fire(id, graceKey("a")))

	h.with(t, id, func(g *gamedata.Game) {
		assert.Nil(t, g.Players.Get("a"))
		assert.Equal(t, "b", g.HostID())
	})
	changed := h.out.last(t, "c", protocol.TypeHostChanged).Data.(HostChanged)
	assert.Equal(t, HostChanged{HostID: "b", Name: "user-b"}, changed)
	roster := h.out.last(t, "c", protocol.TypePlayersUpdate).Data.(RosterUpdate)
	assert.Equal(t, "b", roster.HostID)
	assert.Len(t, roster.Players, 2)

	// Coming back after the window finds no seat.
	assert.Equal(t, "", h.e.Connect(ident("a")))
	assert.ErrorIs(t, h.e.Reconnect(id, "a"), ErrNotInRoom)
}

func TestGraceExpiry_NonHostKeepsHost(t *testing.T) {
	h := newHarness(t)
	id := h.room(t, "a", "b", "c")

	h.e.Disconnect("c")
	require.True(t, h.tm.Fire(id, graceKey("c")))

	assert.Equal(t, 0, h.out.count("a", protocol.TypeHostChanged))
	h.with(t, id, func(g *gamedata.Game) { assert.Equal(t, "a", g.HostID()) })
}

func TestLastPlayerGone_RemovesRoom(t *testing.T) {
	h := newHarness(t)
	id := h.voting(t, 1, "a", "b")
	h.revealAll(t, id)

	h.e.Disconnect("a")
	h.e.Disconnect("b")
	require.True(t, h.tm.Fire(id, graceKey("a")))
	require.NotNil(t, h.reg.Get(id))
	require.True(t, h.tm.Fire(id, graceKey("b")))

	assert.Nil(t, h.reg.Get(id))
	assert.Nil(t, h.reg.GetByCode("1234"))
	assert.Empty(t, h.tm.Keys(id), "advance and tick are cancelled with the room")
}

func TestLeave(t *testing.T) {
	h := newHarness(t)
	id := h.room(t, "a", "b")

	require.NoError(t, h.e.Leave(id, "a"))

	left := h.out.last(t, "a", protocol.TypeLeftRoom).Data.(LeftRoom)
	assert.Equal(t, id, left.GameID)
	assert.Equal(t, 1, h.out.count("b", protocol.TypeHostChanged))
	assert.Equal(t, "", h.e.CurrentGame("a"))
	assert.ErrorIs(t, h.e.Leave(id, "a"), ErrNotInRoom)

	require.NoError(t, h.e.Leave(id, "b"))
	assert.Nil(t, h.reg.Get(id))
	assert.ErrorIs(t, h.e.Leave(id, "b"), rooms.ErrRoomNotFound)
}

func TestLeave_LastOutstandingSubmitterStartsVoting(t *testing.T) {
	h := newHarness(t)
	id := h.started(t, 1, "a", "b", "c")

	for _, pid := range []string{"a", "b"} {
		_, err := h.e.Submit(context.Background(), id, pid, caption(pid))
		require.NoError(t, err)
	}
	require.NoError(t, h.e.Leave(id, "c"))

	assert.Equal(t, gamedata.PhaseVoting, h.phase(t, id))
	assert.Equal(t, 1, h.out.count("a", protocol.TypeVotingStarted))
}

func TestLeave_DuringVotingKeepsSubmission(t *testing.T) {
	h := newHarness(t)
	id := h.voting(t, 1, "a", "b", "c")

	require.NoError(t, h.e.Vote(id, "a", "c", scoring.Like))
	require.NoError(t, h.e.Leave(id, "c"))
	h.revealAll(t, id)

	h.with(t, id, func(g *gamedata.Game) {
		assert.Len(t, g.LastResults, 3)
		assert.Equal(t, gamedata.VoteCounts{Like: 1}, g.LastResults[2].Votes)
	})
}
