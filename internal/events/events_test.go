package events

import (
	"testing"
	"time"
)

func TestNewBus(t *testing.T) {
	bus := NewBus()
	if bus == nil {
		t.Fatal("NewBus() returned nil")
	}
	if bus.LobbyChanges == nil {
		t.Fatal("LobbyChanges channel is nil")
	}
}

func TestBus_SendReceive(t *testing.T) {
	bus := NewBus()

	go bus.PublishLobbyChange("game-1")

	select {
	case received := <-bus.LobbyChanges:
		if received.GameID != "game-1" {
			t.Errorf("received GameID = %q, want %q", received.GameID, "game-1")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBus_Coalesces(t *testing.T) {
	bus := NewBus()

	// None of these may block
	for iter := 0; iter < 100; iter++ {
		bus.PublishLobbyChange("game-1")
	}

	if n := len(bus.LobbyChanges); n != 1 {
		t.Errorf("pending events = %d, want 1", n)
	}
	<-bus.LobbyChanges
}
