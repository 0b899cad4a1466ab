package models

import "time"

// Room is a durable conversation container. Its name is a pure function
// of the conversation key, so both sides of a conversation resolve to
// the same row without coordination.
type Room struct {
	ID         int       `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	PurchaseID *int64    `db:"purchase_id" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// RoomParticipant ties a user to a room. Participants are backfilled
// lazily on room access, never assumed complete at creation time.
type RoomParticipant struct {
	RoomID    int       `db:"room_id" json:"room_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RoomVisibility models per-user soft hiding. Leaving a room flags it
// hidden for that user; rooms are never deleted.
type RoomVisibility struct {
	RoomID int  `db:"room_id" json:"room_id"`
	UserID int  `db:"user_id" json:"user_id"`
	Hidden bool `db:"hidden" json:"hidden"`
}

// RoomSummary is the API-friendly view of a room for one user.
type RoomSummary struct {
	RoomID        int       `json:"room_id"`
	Name          string    `json:"name"`
	PurchaseID    string    `json:"purchase_id,omitempty"`
	CounterpartID int       `json:"counterpart_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
