package ws

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ticket-chat-service/internal/models"
	"ticket-chat-service/internal/observability"
)

// Client is one websocket connection. Outbound frames go through the
// buffered send channel; a single writer goroutine drains it, which
// keeps per-connection emission order without locking the conn.
type Client struct {
	conn *websocket.Conn
	send chan []byte

	// mu guards closed and info. Enqueue and closeSend run from
	// different goroutines (a broadcast vs. the read loop's teardown),
	// so the channel is only ever closed under the same lock that
	// gates sends into it.
	mu     sync.Mutex
	closed bool
	info   ConnInfo
}

// NewClient wraps an upgraded connection.
func NewClient(conn *websocket.Conn, info ConnInfo) *Client {
	return &Client{conn: conn, send: make(chan []byte, 64), info: info}
}

// Info returns the connection metadata.
func (c *Client) Info() ConnInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info
}

// SetUserID records the identity once the connection authenticates.
func (c *Client) SetUserID(userID int) {
	c.mu.Lock()
	c.info.UserID = userID
	c.mu.Unlock()
}

// Enqueue queues a frame for the writer goroutine. It reports false
// when the connection is gone or the buffer is full, which the hub
// treats as a dead connection.
func (c *Client) Enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// closeSend stops the writer goroutine. Idempotent, and mutually
// excluded with Enqueue so no send can race the close.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// WritePump drains the send channel onto the wire. It exits when the
// channel closes or a write fails.
func (c *Client) WritePump() {
	defer c.conn.Close()
	for frame := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			log.Printf("websocket write error: %v", err)
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// Hub is the connection-local subscription index: which connections
// are joined to which rooms. It is fan-out state only, never a source
// of truth for rooms or messages - those live in the store.
type Hub struct {
	rooms   map[int]map[*Client]bool
	clients map[*Client]map[int]bool
	mu      sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:   make(map[int]map[*Client]bool),
		clients: make(map[*Client]map[int]bool),
	}
}

// Register tracks a new connection.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = make(map[int]bool)
}

// Unregister drops a connection from every room and closes its send
// channel, stopping the writer goroutine. It reports whether the
// connection was still registered, so concurrent unregisters resolve
// to one winner.
func (h *Hub) Unregister(client *Client) bool {
	h.mu.Lock()
	rooms, ok := h.clients[client]
	if !ok {
		h.mu.Unlock()
		return false
	}
	for roomID := range rooms {
		h.dropLocked(roomID, client)
	}
	delete(h.clients, client)
	h.mu.Unlock()

	client.closeSend()
	return true
}

// Join subscribes a connection to a room.
func (h *Hub) Join(roomID int, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
	h.clients[client][roomID] = true
}

// Leave unsubscribes a connection from a room.
func (h *Hub) Leave(roomID int, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(roomID, client)
	if rooms, ok := h.clients[client]; ok {
		delete(rooms, roomID)
	}
}

// JoinedRooms lists the rooms this connection is subscribed to.
func (h *Hub) JoinedRooms(client *Client) []int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var ids []int
	for roomID := range h.clients[client] {
		ids = append(ids, roomID)
	}
	return ids
}

// BroadcastMessage fans a persisted message out to every connection
// subscribed to the room, correlation id included so the originating
// client can reconcile its optimistic entry.
func (h *Hub) BroadcastMessage(roomID int, payload models.MessagePayload) {
	frame, err := models.EncodeEvent(models.EventMessage, payload)
	if err != nil {
		log.Printf("encode message event: %v", err)
		return
	}
	h.broadcast(roomID, frame)
	observability.IncWSEvent("room", "message_broadcast")
}

// BroadcastReadReceipt notifies a room that messages were read.
func (h *Hub) BroadcastReadReceipt(roomID int, payload models.ReadReceiptPayload) {
	frame, err := models.EncodeEvent(models.EventReadReceipt, payload)
	if err != nil {
		log.Printf("encode read receipt event: %v", err)
		return
	}
	h.broadcast(roomID, frame)
	observability.IncWSEvent("room", "read_receipt_broadcast")
}

func (h *Hub) broadcast(roomID int, frame []byte) {
	h.mu.RLock()
	subscribers := make([]*Client, 0, len(h.rooms[roomID]))
	for client := range h.rooms[roomID] {
		subscribers = append(subscribers, client)
	}
	h.mu.RUnlock()

	for _, client := range subscribers {
		if client.Enqueue(frame) {
			continue
		}
		// The connection may already be torn down by its read loop; only
		// the unregister that wins reports the drop.
		if h.Unregister(client) {
			log.Printf("websocket send buffer full, dropping conn %s", client.Info().ConnID)
			h.publishWSError(roomID, client)
		}
	}
}

func (h *Hub) dropLocked(roomID int, client *Client) {
	if conns, ok := h.rooms[roomID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *Hub) publishWSError(roomID int, client *Client) {
	info := client.Info()
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"room_id":     roomID,
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      "send buffer overflow",
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), "ws_events.rooms", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent("room", "ws_error")
}
