package broadcast

import (
	"encoding/json"
	"sync"

	"memebattle/internal/events"
	"memebattle/internal/gamedata"
	"memebattle/internal/protocol"

	"github.com/rs/zerolog/log"
)

// EventMessage is one server-sent event.
type EventMessage struct {
	Event string
	Data  string
}

// Lister supplies the current lobby listing.
type Lister interface {
	Summaries() []gamedata.Summary
}

// Fanout reaches every open WebSocket connection.
type Fanout interface {
	BroadcastRaw(data []byte)
}

// Broadcaster turns lobby change events into games_update messages for SSE
// subscribers and WebSocket clients.
type Broadcaster struct {
	Mu      sync.Mutex
	Clients map[chan EventMessage]bool

	lobby Lister
	ws    Fanout
}

func NewBroadcaster(bus *events.Bus, lobby Lister, ws Fanout) *Broadcaster {
	b := &Broadcaster{
		Clients: make(map[chan EventMessage]bool),
		lobby:   lobby,
		ws:      ws,
	}
	go func() {
		for range bus.LobbyChanges {
			b.PublishLobby()
		}
	}()
	return b
}

func (b *Broadcaster) Subscribe() chan EventMessage {
	ch := make(chan EventMessage, 10)
	b.Mu.Lock()
	b.Clients[ch] = true
	b.Mu.Unlock()
	return ch
}

func (b *Broadcaster) Unsubscribe(ch chan EventMessage) {
	b.Mu.Lock()
	delete(b.Clients, ch)
	b.Mu.Unlock()
	close(ch)
}

// LobbyMessage is the games_update message for the current listing.
func (b *Broadcaster) LobbyMessage() ([]byte, error) {
	return json.Marshal(protocol.New(protocol.TypeGamesUpdate, b.lobby.Summaries()))
}

func (b *Broadcaster) PublishLobby() {
	data, err := b.LobbyMessage()
	if err != nil {
		log.Error().Str("component", "broadcast").Err(err).Msg("encoding lobby")
		return
	}
	b.Broadcast(protocol.TypeGamesUpdate, string(data))
	if b.ws != nil {
		b.ws.BroadcastRaw(data)
	}
}

func (b *Broadcaster) Broadcast(event string, data string) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	for ch := range b.Clients {
		select {
		case ch <- EventMessage{Event: event, Data: data}:
		default:
			// skip clients with full data channels
		}
	}
}
