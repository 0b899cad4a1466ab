package ws

import (
	"encoding/json"
	"sync"
	"testing"

	"ticket-chat-service/internal/models"
)

func TestHubJoinAndLeave(t *testing.T) {
	hub := NewHub()
	client := NewClient(nil, ConnInfo{ConnID: "c1"})

	hub.Register(client)
	hub.Join(5, client)
	if len(hub.rooms) != 1 {
		t.Fatalf("expected room subscription to be created")
	}

	hub.Leave(5, client)
	if len(hub.rooms) != 0 {
		t.Fatalf("expected empty room to be dropped")
	}
}

func TestHubUnregisterDropsAllRooms(t *testing.T) {
	hub := NewHub()
	client := NewClient(nil, ConnInfo{ConnID: "c1"})

	hub.Register(client)
	hub.Join(5, client)
	hub.Join(6, client)

	hub.Unregister(client)
	if len(hub.rooms) != 0 {
		t.Fatalf("expected all room subscriptions to be dropped")
	}
	if len(hub.clients) != 0 {
		t.Fatalf("expected client to be removed")
	}

	// The send channel is closed so the writer goroutine stops.
	if _, open := <-client.send; open {
		t.Fatalf("expected send channel to be closed")
	}
}

// A broadcast may hold a subscriber snapshot while the read loop tears
// the connection down. Enqueue after the teardown must report a dead
// connection instead of sending on the closed channel.
func TestHubEnqueueAfterUnregisterIsSafe(t *testing.T) {
	hub := NewHub()
	client := NewClient(nil, ConnInfo{ConnID: "c1"})

	hub.Register(client)
	hub.Join(5, client)
	if !hub.Unregister(client) {
		t.Fatalf("expected first unregister to win")
	}

	if client.Enqueue([]byte(`{}`)) {
		t.Fatalf("expected enqueue on a dropped connection to report failure")
	}
	if hub.Unregister(client) {
		t.Fatalf("expected repeated unregister to be a no-op")
	}

	// A broadcast whose snapshot still holds the dead connection drops
	// it without panicking.
	hub.Register(client)
	hub.Join(5, client)
	hub.BroadcastMessage(5, models.MessagePayload{ID: 42, RoomID: 5})
	if len(hub.clients) != 0 {
		t.Fatalf("expected broadcast to drop the dead connection")
	}
}

func TestHubConcurrentBroadcastAndUnregister(t *testing.T) {
	for i := 0; i < 1000; i++ {
		hub := NewHub()
		client := NewClient(nil, ConnInfo{ConnID: "c1"})
		hub.Register(client)
		hub.Join(5, client)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.BroadcastMessage(5, models.MessagePayload{ID: 42, RoomID: 5})
		}()
		go func() {
			defer wg.Done()
			hub.Unregister(client)
		}()
		wg.Wait()
	}
}

func TestHubJoinWithoutRegisterIsIgnored(t *testing.T) {
	hub := NewHub()
	client := NewClient(nil, ConnInfo{ConnID: "c1"})

	hub.Join(5, client)
	if len(hub.rooms) != 0 {
		t.Fatalf("expected join before register to be ignored")
	}
}

func TestHubBroadcastMessageReachesSubscribers(t *testing.T) {
	hub := NewHub()
	member := NewClient(nil, ConnInfo{ConnID: "c1"})
	outsider := NewClient(nil, ConnInfo{ConnID: "c2"})

	hub.Register(member)
	hub.Register(outsider)
	hub.Join(5, member)

	hub.BroadcastMessage(5, models.MessagePayload{ID: 42, RoomID: 5, ClientMessageID: "abc", Content: "hi"})

	select {
	case frame := <-member.send:
		var envelope models.Envelope
		if err := json.Unmarshal(frame, &envelope); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		if envelope.Type != models.EventMessage {
			t.Fatalf("expected message event, got %q", envelope.Type)
		}
		var payload models.MessagePayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.ClientMessageID != "abc" {
			t.Fatalf("expected correlation id to survive broadcast, got %q", payload.ClientMessageID)
		}
	default:
		t.Fatalf("expected subscriber to receive the frame")
	}

	select {
	case <-outsider.send:
		t.Fatalf("expected non-subscriber to receive nothing")
	default:
	}
}

func TestHubBroadcastReadReceipt(t *testing.T) {
	hub := NewHub()
	client := NewClient(nil, ConnInfo{ConnID: "c1"})

	hub.Register(client)
	hub.Join(5, client)

	hub.BroadcastReadReceipt(5, models.ReadReceiptPayload{RoomID: 5, ReaderID: 7, MessageIDs: []int{11}})

	select {
	case frame := <-client.send:
		var envelope models.Envelope
		if err := json.Unmarshal(frame, &envelope); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		if envelope.Type != models.EventReadReceipt {
			t.Fatalf("expected read_receipt event, got %q", envelope.Type)
		}
	default:
		t.Fatalf("expected subscriber to receive the receipt")
	}
}
