package events

// LobbyChangeEvent says the lobby listing is out of date. Consumers rebuild
// the whole listing, so pending events coalesce.
type LobbyChangeEvent struct {
	GameID string
}

type Bus struct {
	LobbyChanges chan LobbyChangeEvent
}

func NewBus() *Bus {
	return &Bus{
		LobbyChanges: make(chan LobbyChangeEvent, 1),
	}
}

// PublishLobbyChange never blocks. If an event is already pending this one
// is folded into it.
func (b *Bus) PublishLobbyChange(gameID string) {
	select {
	case b.LobbyChanges <- LobbyChangeEvent{GameID: gameID}:
	default:
	}
}
