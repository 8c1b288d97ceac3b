package notify

import (
	"encoding/json"
	"sync"
	"testing"
)

func TestEmitToConnectedSession(t *testing.T) {
	hub := NewHub()
	session := hub.Connect("user-1")

	if !hub.Emit("user-1", "statusChanged", map[string]string{"status": "preparing"}) {
		t.Fatal("expected emit to a connected session to succeed")
	}

	frame := <-session.Send
	var event Event
	if err := json.Unmarshal(frame, &event); err != nil {
		t.Fatalf("frame is not valid JSON: %v", err)
	}
	if event.Event != "statusChanged" {
		t.Fatalf("expected event statusChanged, got %q", event.Event)
	}
}

func TestEmitToAbsentUserIsDropped(t *testing.T) {
	hub := NewHub()
	if hub.Emit("nobody", "newOrder", nil) {
		t.Fatal("expected emit without a session to report a drop")
	}
}

func TestEmitToFullSessionIsDropped(t *testing.T) {
	hub := NewHub()
	session := hub.Connect("user-1")

	// Fill the buffer without draining it.
	for i := 0; i < cap(session.Send); i++ {
		if !hub.Emit("user-1", "ping", i) {
			t.Fatalf("emit %d should have fit in the buffer", i)
		}
	}
	if hub.Emit("user-1", "ping", "overflow") {
		t.Fatal("expected emit to a full session to be dropped, not queued")
	}
}

func TestReconnectReplacesSession(t *testing.T) {
	hub := NewHub()
	first := hub.Connect("user-1")
	second := hub.Connect("user-1")

	if _, open := <-first.Send; open {
		t.Fatal("expected replaced session channel to be closed")
	}

	hub.Emit("user-1", "assignedOrder", nil)
	select {
	case <-second.Send:
	default:
		t.Fatal("expected event on the replacement session")
	}
}

func TestDisconnectOnlyRemovesOwnSession(t *testing.T) {
	hub := NewHub()
	stale := hub.Connect("user-1")
	live := hub.Connect("user-1")

	// Disconnecting the replaced session must not evict the live one.
	hub.Disconnect(stale)
	if !hub.IsConnected("user-1") {
		t.Fatal("stale disconnect evicted the live session")
	}

	hub.Disconnect(live)
	if hub.IsConnected("user-1") {
		t.Fatal("expected user to be disconnected")
	}
}

func TestConcurrentEmitsDoNotRace(t *testing.T) {
	hub := NewHub()
	session := hub.Connect("user-1")

	done := make(chan struct{})
	go func() {
		for range session.Send {
		}
		close(done)
	}()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				hub.Emit("user-1", "tick", n)
			}
		}(i)
	}
	wg.Wait()

	hub.Disconnect(session)
	<-done
}
