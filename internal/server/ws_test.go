package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"memebattle/internal/engine"
	"memebattle/internal/protocol"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type ackData struct {
	Ref     string          `json:"ref"`
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func dial(t *testing.T, ts *httptest.Server, userID, name string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?userId=" + userID + "&name=" + name
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	readUntil(t, conn, protocol.TypePlayerInfo)
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ, ref string, data any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, map[string]any{"type": typ, "ref": ref, "data": data}))
}

func readUntil(t *testing.T, conn *websocket.Conn, typ string) inbound {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		var m inbound
		require.NoError(t, wsjson.Read(ctx, conn, &m), "waiting for %s", typ)
		if m.Type == typ {
			return m
		}
	}
}

func readAck(t *testing.T, conn *websocket.Conn, ref string) ackData {
	t.Helper()
	for {
		var a ackData
		require.NoError(t, json.Unmarshal(readUntil(t, conn, protocol.TypeAck).Data, &a))
		if a.Ref == ref {
			return a
		}
	}
}

func TestWS_Unauthorized(t *testing.T) {
	_, ts := newTestServer(t, testConfig(t))

	resp, err := http.Get(ts.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWS_CreateAndJoin(t *testing.T) {
	srv, ts := newTestServer(t, testConfig(t))

	alice := dial(t, ts, "u1", "alice")
	send(t, alice, protocol.TypeCreateRoom, "1", map[string]string{"code": "4321"})
	ack := readAck(t, alice, "1")
	require.True(t, ack.Success, ack.Error)

	var view struct {
		ID   string `json:"id"`
		Code string `json:"passcode"`
	}
	require.NoError(t, json.Unmarshal(ack.Data, &view))
	assert.Equal(t, "4321", view.Code)

	bob := dial(t, ts, "u2", "bob")
	send(t, bob, protocol.TypeJoinRoom, "2", map[string]string{"code": "4321"})
	require.True(t, readAck(t, bob, "2").Success)

	joined := readUntil(t, alice, protocol.TypePlayerJoined)
	assert.Contains(t, string(joined.Data), `"playerId":"u2"`)
	assert.Equal(t, view.ID, srv.Engine.CurrentGame("u2"))

	send(t, alice, protocol.TypeStartGame, "3", map[string]int{"rounds": 2})
	require.True(t, readAck(t, alice, "3").Success)
	readUntil(t, bob, protocol.TypeGameStarted)
}

func TestWS_Rejections(t *testing.T) {
	_, ts := newTestServer(t, testConfig(t))
	conn := dial(t, ts, "u1", "alice")

	send(t, conn, protocol.TypeCreateRoom, "bad", map[string]string{"code": "12"})
	ack := readAck(t, conn, "bad")
	assert.False(t, ack.Success)
	assert.Contains(t, ack.Error, "invalid payload")

	send(t, conn, protocol.TypeStartGame, "lonely", nil)
	ack = readAck(t, conn, "lonely")
	assert.False(t, ack.Success)
	assert.Equal(t, engine.ErrNotInRoom.Error(), ack.Error)

	send(t, conn, "dance", "what", nil)
	ack = readAck(t, conn, "what")
	assert.Equal(t, ErrUnknownType.Error(), ack.Error)

	// Without a ref the failure comes back as an error message.
	send(t, conn, "dance", "", nil)
	msg := readUntil(t, conn, protocol.TypeError)
	assert.Contains(t, string(msg.Data), ErrUnknownType.Error())
}

func TestWS_RateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.MessageRate = 1
	cfg.MessageBurst = 1
	_, ts := newTestServer(t, cfg)
	conn := dial(t, ts, "u1", "alice")

	for iter := 0; iter < 5; iter++ {
		send(t, conn, protocol.TypeGameChat, "", map[string]string{"message": "spam"})
	}

	limited := 0
	for iter := 0; iter < 5; iter++ {
		msg := readUntil(t, conn, protocol.TypeError)
		if strings.Contains(string(msg.Data), ErrRateLimited.Error()) {
			limited++
		}
	}
	assert.GreaterOrEqual(t, limited, 3)
}

func TestWS_DisconnectHoldsSeat(t *testing.T) {
	srv, ts := newTestServer(t, testConfig(t))

	alice := dial(t, ts, "u1", "alice")
	send(t, alice, protocol.TypeCreateRoom, "1", map[string]string{"code": "4321"})
	require.True(t, readAck(t, alice, "1").Success)
	bob := dial(t, ts, "u2", "bob")
	send(t, bob, protocol.TypeJoinRoom, "2", map[string]string{"code": "4321"})
	require.True(t, readAck(t, bob, "2").Success)

	bob.Close(websocket.StatusNormalClosure, "")

	msg := readUntil(t, alice, protocol.TypePlayerDisconnected)
	assert.Contains(t, string(msg.Data), `"playerId":"u2"`)
	assert.NotEmpty(t, srv.Engine.CurrentGame("u2"), "seat is held through the grace period")

	// Coming back resumes the seat.
	dial(t, ts, "u2", "bob")
	readUntil(t, alice, protocol.TypePlayerReconnected)
}
