package models

import (
	"strconv"
	"time"
)

// Message is a persisted chat message. ClientMessageID is the
// client-generated correlation id that travels with the message from
// the optimistic send through acknowledgment; together with the room it
// is unique at the store layer, which makes message creation idempotent
// under transport/fallback retries.
type Message struct {
	ID              int       `db:"id" json:"id"`
	RoomID          int       `db:"room_id" json:"room_id"`
	SenderID        int       `db:"sender_id" json:"sender_id"`
	ReceiverID      *int      `db:"receiver_id" json:"receiver_id,omitempty"`
	PurchaseID      *int64    `db:"purchase_id" json:"-"`
	ClientMessageID string    `db:"client_message_id" json:"client_message_id"`
	Content         string    `db:"content" json:"content"`
	IsRead          bool      `db:"is_read" json:"is_read"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// MessagePayload is the wire form of a Message, shared by websocket
// broadcasts and fallback JSON responses. Purchase ids are BIGINT and
// cross the wire as strings to avoid precision loss in JS clients.
type MessagePayload struct {
	ID              int       `json:"id"`
	RoomID          int       `json:"room_id"`
	SenderID        int       `json:"sender_id"`
	ReceiverID      *int      `json:"receiver_id,omitempty"`
	PurchaseID      string    `json:"purchase_id,omitempty"`
	ClientMessageID string    `json:"client_message_id"`
	Content         string    `json:"content"`
	IsRead          bool      `json:"is_read"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewMessagePayload converts a stored message to its wire form.
func NewMessagePayload(msg Message) MessagePayload {
	payload := MessagePayload{
		ID:              msg.ID,
		RoomID:          msg.RoomID,
		SenderID:        msg.SenderID,
		ReceiverID:      msg.ReceiverID,
		ClientMessageID: msg.ClientMessageID,
		Content:         msg.Content,
		IsRead:          msg.IsRead,
		CreatedAt:       msg.CreatedAt,
	}
	if msg.PurchaseID != nil {
		payload.PurchaseID = strconv.FormatInt(*msg.PurchaseID, 10)
	}
	return payload
}

// NewMessagePayloads converts a history slice, preserving order.
func NewMessagePayloads(msgs []Message) []MessagePayload {
	payloads := make([]MessagePayload, 0, len(msgs))
	for _, msg := range msgs {
		payloads = append(payloads, NewMessagePayload(msg))
	}
	return payloads
}
