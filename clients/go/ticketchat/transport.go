package ticketchat

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ticket-chat-service/internal/models"
)

const (
	handshakeTimeout     = 10 * time.Second
	reconnectBaseBackoff = time.Second
	reconnectMaxBackoff  = 30 * time.Second
)

type joinResult struct {
	room models.RoomJoinedPayload
	err  error
}

// Transport maintains the websocket connection: it authenticates,
// serializes writes, correlates acks and join confirmations, and
// redials with capped exponential backoff when the connection drops.
// After a reconnect it re-authenticates and rejoins every room the
// caller had joined; sends that were in flight are not replayed, the
// caller retries them through the delivery path.
type Transport struct {
	url    string
	token  string
	dialer *websocket.Dialer

	mu      sync.Mutex
	conn    *websocket.Conn
	acks    map[string]chan models.AckPayload
	pending chan joinResult
	joined  []models.JoinPayload
	userID  int
	closed  bool

	joinMu sync.Mutex
	done   chan struct{}

	// Callbacks invoked from the read loop. Set before Connect.
	OnMessage     func(models.MessagePayload)
	OnAck         func(models.AckPayload)
	OnReadReceipt func(models.ReadReceiptPayload)
	OnRoomJoined  func(models.RoomJoinedPayload)
}

// NewTransport returns a transport for the given websocket URL. The
// token authenticates the connection right after the handshake.
func NewTransport(url, token string) *Transport {
	return &Transport{
		url:    url,
		token:  token,
		dialer: &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		acks:   make(map[string]chan models.AckPayload),
		done:   make(chan struct{}),
	}
}

// Connect dials the server and authenticates the connection.
func (t *Transport) Connect(ctx context.Context) error {
	conn, err := t.dial(ctx)
	if err != nil {
		return newError(CodeTransportUnavailable, "websocket dial failed", err)
	}
	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
	go t.readLoop(conn)
	return t.authenticate(ctx)
}

// UserID returns the identity confirmed by the server, zero before
// authentication completes.
func (t *Transport) UserID() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.userID
}

// Join requests join-or-create for a conversation and waits for the
// server's confirmation carrying membership and history.
func (t *Transport) Join(ctx context.Context, payload models.JoinPayload) (models.RoomJoinedPayload, error) {
	t.joinMu.Lock()
	defer t.joinMu.Unlock()

	ch := make(chan joinResult, 1)
	t.mu.Lock()
	t.pending = ch
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		t.pending = nil
		t.mu.Unlock()
	}()

	if err := t.writeEvent(models.EventJoin, payload); err != nil {
		return models.RoomJoinedPayload{}, err
	}

	select {
	case res := <-ch:
		if res.err != nil {
			return models.RoomJoinedPayload{}, res.err
		}
		t.mu.Lock()
		t.joined = append(t.joined, payload)
		t.mu.Unlock()
		return res.room, nil
	case <-ctx.Done():
		return models.RoomJoinedPayload{}, newError(CodeTransportUnavailable, "join confirmation wait expired", ctx.Err())
	case <-t.done:
		return models.RoomJoinedPayload{}, newError(CodeTransportUnavailable, "transport closed", nil)
	}
}

// Send submits a message and waits for the matching ack until ctx
// expires. On timeout the frame may still be processed server-side; a
// late ack is delivered through OnAck and absorbed by the merge rule.
func (t *Transport) Send(ctx context.Context, payload models.SendPayload) (models.AckPayload, error) {
	ch := make(chan models.AckPayload, 1)
	t.mu.Lock()
	t.acks[payload.ClientMessageID] = ch
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.acks, payload.ClientMessageID)
		t.mu.Unlock()
	}()

	if err := t.writeEvent(models.EventSend, payload); err != nil {
		return models.AckPayload{}, err
	}

	select {
	case ack := <-ch:
		return ack, nil
	case <-ctx.Done():
		return models.AckPayload{}, errTransportTimeout
	case <-t.done:
		return models.AckPayload{}, newError(CodeTransportUnavailable, "transport closed", nil)
	}
}

// MarkRead flags messages as read. Fire and forget; the outcome comes
// back as a read_receipt broadcast.
func (t *Transport) MarkRead(payload models.MarkReadPayload) error {
	return t.writeEvent(models.EventMarkRead, payload)
}

// Leave drops the subscription to a room.
func (t *Transport) Leave(roomID int) error {
	return t.writeEvent(models.EventLeave, models.LeavePayload{RoomID: roomID})
}

// Close shuts the transport down. No reconnect is attempted after.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn := t.conn
	t.mu.Unlock()
	close(t.done)
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (t *Transport) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, resp, err := t.dialer.DialContext(ctx, t.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

func (t *Transport) authenticate(ctx context.Context) error {
	if t.token == "" {
		return nil
	}
	ch := make(chan joinResult, 1)
	t.mu.Lock()
	t.pending = ch
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		t.pending = nil
		t.mu.Unlock()
	}()

	if err := t.writeEvent(models.EventAuth, models.AuthPayload{Token: t.token}); err != nil {
		return err
	}

	select {
	case res := <-ch:
		return res.err
	case <-ctx.Done():
		return newError(CodeTransportUnavailable, "authentication wait expired", ctx.Err())
	case <-t.done:
		return newError(CodeTransportUnavailable, "transport closed", nil)
	}
}

func (t *Transport) writeEvent(eventType string, payload interface{}) error {
	data, err := models.EncodeEvent(eventType, payload)
	if err != nil {
		return newError(CodeInternal, "encode event", err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil || t.closed {
		return newError(CodeTransportUnavailable, "not connected", nil)
	}
	if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return newError(CodeTransportUnavailable, "websocket write failed", err)
	}
	return nil
}

func (t *Transport) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			t.mu.Lock()
			closed := t.closed
			if t.conn == conn {
				t.conn = nil
			}
			t.mu.Unlock()
			if !closed {
				go t.reconnect()
			}
			return
		}
		t.handleFrame(data)
	}
}

func (t *Transport) handleFrame(data []byte) {
	var envelope models.Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		log.Printf("transport: drop malformed frame: %v", err)
		return
	}

	switch envelope.Type {
	case models.EventAuthed:
		var payload models.AuthedPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return
		}
		t.mu.Lock()
		t.userID = payload.UserID
		pending := t.pending
		t.mu.Unlock()
		if pending != nil {
			res := joinResult{}
			if payload.Error != "" {
				res.err = newError(CodeUnauthenticated, payload.Error, nil)
			}
			select {
			case pending <- res:
			default:
			}
		}
	case models.EventRoomJoined:
		var payload models.RoomJoinedPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return
		}
		t.mu.Lock()
		pending := t.pending
		t.mu.Unlock()
		if pending != nil {
			select {
			case pending <- joinResult{room: payload}:
				return
			default:
			}
		}
		if t.OnRoomJoined != nil {
			t.OnRoomJoined(payload)
		}
	case models.EventMessage:
		var payload models.MessagePayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return
		}
		if t.OnMessage != nil {
			t.OnMessage(payload)
		}
	case models.EventAck:
		var payload models.AckPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return
		}
		t.mu.Lock()
		ch := t.acks[payload.ClientMessageID]
		t.mu.Unlock()
		if ch != nil {
			select {
			case ch <- payload:
			default:
			}
		}
		if t.OnAck != nil {
			t.OnAck(payload)
		}
	case models.EventReadReceipt:
		var payload models.ReadReceiptPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return
		}
		if t.OnReadReceipt != nil {
			t.OnReadReceipt(payload)
		}
	case models.EventError:
		var payload models.ErrorPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return
		}
		t.mu.Lock()
		pending := t.pending
		t.mu.Unlock()
		if pending != nil {
			select {
			case pending <- joinResult{err: newError(payload.Code, payload.Message, nil)}:
			default:
			}
			return
		}
		log.Printf("transport: server error %s: %s", payload.Code, payload.Message)
	default:
		log.Printf("transport: drop unknown frame type %q", envelope.Type)
	}
}

// reconnect redials with capped exponential backoff, re-authenticates
// and rejoins every previously joined room.
func (t *Transport) reconnect() {
	backoff := reconnectBaseBackoff
	for {
		select {
		case <-t.done:
			return
		case <-time.After(backoff):
		}

		ctx, cancel := context.WithTimeout(context.Background(), handshakeTimeout)
		conn, err := t.dial(ctx)
		cancel()
		if err != nil {
			log.Printf("transport: reconnect failed, retrying in %s: %v", backoff, err)
			if backoff *= 2; backoff > reconnectMaxBackoff {
				backoff = reconnectMaxBackoff
			}
			continue
		}

		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			conn.Close()
			return
		}
		t.conn = conn
		joined := make([]models.JoinPayload, len(t.joined))
		copy(joined, t.joined)
		t.mu.Unlock()

		go t.readLoop(conn)

		if t.token != "" {
			if err := t.writeEvent(models.EventAuth, models.AuthPayload{Token: t.token}); err != nil {
				continue
			}
		}
		for _, join := range joined {
			if err := t.writeEvent(models.EventJoin, join); err != nil {
				break
			}
		}
		return
	}
}
