package wshub

import (
	"context"
	"encoding/json"
	"sync"

	"memebattle/internal/metrics"
	"memebattle/internal/protocol"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"
)

const sendBuffer = 64

// Client is one player's WebSocket connection.
type Client struct {
	PlayerID string
	Conn     *websocket.Conn
	Send     chan []byte
}

func NewClient(playerID string, conn *websocket.Conn) *Client {
	return &Client{
		PlayerID: playerID,
		Conn:     conn,
		Send:     make(chan []byte, sendBuffer),
	}
}

// WritePump reads from the Send channel and writes to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// Hub holds the live connection of every player, keyed by player ID.
// A player has at most one; a newer connection replaces the older one.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds c, closing the Send channel of any connection it replaces.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	prev, ok := h.clients[c.PlayerID]
	h.clients[c.PlayerID] = c
	count := len(h.clients)
	h.mu.Unlock()

	if ok && prev != c {
		close(prev.Send)
		log.Debug().Str("component", "wshub").Str("player_id", c.PlayerID).Msg("connection replaced")
	} else {
		metrics.ClientsConnected.Set(float64(count))
	}
}

// Unregister removes c and closes its Send channel. It reports false when c
// has already been replaced by a newer connection, in which case the player
// is still online.
func (h *Hub) Unregister(c *Client) bool {
	h.mu.Lock()
	cur, ok := h.clients[c.PlayerID]
	if !ok || cur != c {
		h.mu.Unlock()
		return false
	}
	delete(h.clients, c.PlayerID)
	count := len(h.clients)
	h.mu.Unlock()

	close(c.Send)
	metrics.ClientsConnected.Set(float64(count))
	return true
}

func (h *Hub) Online(playerID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[playerID]
	return ok
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Deliver sends msg to one player. Non-blocking: drops if channel full or the
// player is offline.
func (h *Hub) Deliver(playerID string, msg protocol.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Str("component", "wshub").Str("type", msg.Type).Err(err).Msg("marshal failed")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[playerID]
	if !ok {
		return
	}
	select {
	case c.Send <- data:
	default:
		metrics.MessagesDropped.Inc()
		log.Warn().Str("component", "wshub").Str("player_id", playerID).Str("type", msg.Type).Msg("send buffer full, message dropped")
	}
}

// BroadcastRaw sends data to every connected client. Non-blocking.
func (h *Hub) BroadcastRaw(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		select {
		case c.Send <- data:
		default:
			metrics.MessagesDropped.Inc()
		}
	}
}
