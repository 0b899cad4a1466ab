package models

import (
	"encoding/json"
	"fmt"
)

// Websocket event types, client to server.
const (
	EventAuth     = "auth"
	EventJoin     = "join"
	EventSend     = "send"
	EventLeave    = "leave"
	EventMarkRead = "mark_read"
)

// Websocket event types, server to client.
const (
	EventAuthed      = "authed"
	EventRoomJoined  = "room_joined"
	EventMessage     = "message"
	EventAck         = "ack"
	EventReadReceipt = "read_receipt"
	EventError       = "error"
)

// Delivery statuses carried by ack events.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Envelope is the outer frame of every websocket event.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// AuthPayload authenticates the connection.
type AuthPayload struct {
	Token string `json:"token"`
}

// JoinPayload requests join-or-create for a conversation. Exactly one
// of PurchaseID (string-encoded BIGINT) or ConversationWith is set.
type JoinPayload struct {
	PurchaseID       string `json:"purchase_id,omitempty"`
	ConversationWith int    `json:"conversation_with,omitempty"`
}

// SendPayload submits a message. RoomID targets an already joined
// room; otherwise the conversation key fields resolve one.
type SendPayload struct {
	RoomID           int    `json:"room_id,omitempty"`
	PurchaseID       string `json:"purchase_id,omitempty"`
	ConversationWith int    `json:"conversation_with,omitempty"`
	Content          string `json:"content"`
	ClientMessageID  string `json:"client_message_id"`
}

// LeavePayload drops the connection's subscription to a room.
type LeavePayload struct {
	RoomID int `json:"room_id"`
}

// MarkReadPayload flags messages addressed to the caller as read.
// MessageID zero means all unread messages in the room.
type MarkReadPayload struct {
	RoomID    int `json:"room_id"`
	MessageID int `json:"message_id,omitempty"`
}

// AuthedPayload reports the handshake outcome.
type AuthedPayload struct {
	UserID int    `json:"user_id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// RoomPayload is the wire form of a Room.
type RoomPayload struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	PurchaseID string `json:"purchase_id,omitempty"`
}

// PurchasePayload summarizes the linked purchase for transaction
// rooms. Price is monetary and therefore a string on the wire.
type PurchasePayload struct {
	ID          string `json:"id"`
	BuyerID     int    `json:"buyer_id"`
	SellerID    int    `json:"seller_id"`
	Status      string `json:"status"`
	Price       string `json:"price,omitempty"`
	TicketTitle string `json:"ticket_title,omitempty"`
}

// RoomJoinedPayload confirms a join with membership and history.
type RoomJoinedPayload struct {
	Room         RoomPayload      `json:"room"`
	Participants []int            `json:"participants"`
	History      []MessagePayload `json:"history"`
	Purchase     *PurchasePayload `json:"purchase,omitempty"`
}

// AckPayload correlates a send outcome back to the originating client.
type AckPayload struct {
	ClientMessageID string `json:"client_message_id"`
	MessageID       int    `json:"message_id,omitempty"`
	Status          string `json:"status"`
	Error           string `json:"error,omitempty"`
}

// ReadReceiptPayload notifies a room that messages were read.
type ReadReceiptPayload struct {
	RoomID     int   `json:"room_id"`
	ReaderID   int   `json:"reader_id"`
	MessageIDs []int `json:"message_ids"`
}

// ErrorPayload surfaces a transport-level failure.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DecodeClientEvent validates an inbound frame and returns exactly one
// of the client payload variants. Unknown or malformed frames are
// rejected at the boundary so handlers can switch exhaustively.
func DecodeClientEvent(data []byte) (interface{}, error) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch envelope.Type {
	case EventAuth:
		var payload AuthPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode auth payload: %w", err)
		}
		return payload, nil
	case EventJoin:
		var payload JoinPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode join payload: %w", err)
		}
		return payload, nil
	case EventSend:
		var payload SendPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode send payload: %w", err)
		}
		return payload, nil
	case EventLeave:
		var payload LeavePayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode leave payload: %w", err)
		}
		return payload, nil
	case EventMarkRead:
		var payload MarkReadPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode mark_read payload: %w", err)
		}
		return payload, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", envelope.Type)
	}
}

// EncodeEvent wraps a server payload in an envelope frame.
func EncodeEvent(eventType string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: eventType, Payload: raw})
}
