package live

import (
	"encoding/json"
	"testing"
	"time"

	"commune/models"
)

func TestHubRegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := &Client{
		Send: make(chan []byte, 10),
		Room: "ev1",
	}

	hub.register <- client

	infos := []models.SessionCapacityInfo{
		{SessionID: "s1", Name: "Workshop", Capacity: 10, Registered: 4, Available: 6},
	}
	hub.BroadcastAvailability("ev1", infos)

	select {
	case got := <-client.Send:
		var snap snapshot
		if err := json.Unmarshal(got, &snap); err != nil {
			t.Fatalf("bad snapshot payload: %v", err)
		}
		if snap.EventID != "ev1" {
			t.Fatalf("expected ev1, got %s", snap.EventID)
		}
		if len(snap.Sessions) != 1 || snap.Sessions[0].Available != 6 {
			t.Fatalf("unexpected sessions: %+v", snap.Sessions)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for snapshot")
	}

	hub.unregister <- client
}

func TestHubRoomsAreIsolated(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	watcher := &Client{Send: make(chan []byte, 10), Room: "ev1"}
	other := &Client{Send: make(chan []byte, 10), Room: "ev2"}
	hub.register <- watcher
	hub.register <- other

	hub.BroadcastAvailability("ev1", nil)

	select {
	case <-watcher.Send:
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for snapshot")
	}

	select {
	case got := <-other.Send:
		t.Fatalf("other room received %s", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBroadcastAfterStopDoesNotBlock(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	hub.Stop()

	returned := make(chan struct{})
	go func() {
		hub.BroadcastAvailability("ev1", nil)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(1 * time.Second):
		t.Fatal("broadcast blocked after hub stop")
	}
}
