package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"ticket-chat-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// CreateMessageParams carries everything needed to persist one send.
type CreateMessageParams struct {
	RoomID          int
	SenderID        int
	ReceiverID      *int
	PurchaseID      *int64
	ClientMessageID string
	Content         string
}

// MessageRepository defines interactions with stored messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, params CreateMessageParams) (models.Message, bool, error)
	ListRoomMessages(ctx context.Context, roomID int) ([]models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	MarkRoomRead(ctx context.Context, roomID int, receiverID int) ([]int, error)
	MarkMessageRead(ctx context.Context, messageID int, receiverID int) ([]int, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, room_id, sender_id, receiver_id, purchase_id, client_message_id, content, is_read, created_at`

// CreateMessage persists exactly one row per (room, correlation id).
// A retried send for the same correlation id hits the unique
// constraint; the original row is returned instead, with created=false
// so callers can count the dedup. This closes the double-write window
// between the transport and fallback paths for one user action.
func (r *MessageRepo) CreateMessage(ctx context.Context, params CreateMessageParams) (models.Message, bool, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (room_id, sender_id, receiver_id, purchase_id, client_message_id, content)
         VALUES ($1, $2, $3, $4, $5, $6)
         ON CONFLICT (room_id, client_message_id) DO NOTHING
         RETURNING `+messageColumns,
		params.RoomID, params.SenderID, params.ReceiverID, params.PurchaseID,
		params.ClientMessageID, params.Content).StructScan(&msg)
	if err == nil {
		return msg, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, false, err
	}

	err = r.db.GetContext(ctx, &msg,
		`SELECT `+messageColumns+` FROM messages WHERE room_id=$1 AND client_message_id=$2`,
		params.RoomID, params.ClientMessageID)
	if err != nil {
		return models.Message{}, false, err
	}
	return msg, false, nil
}

// ListRoomMessages returns a room's history in creation order.
func (r *MessageRepo) ListRoomMessages(ctx context.Context, roomID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages WHERE room_id=$1 ORDER BY created_at ASC, id ASC`, roomID)
	return msgs, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// MarkRoomRead flips every unread message addressed to the receiver in
// the room. Only false->true transitions happen, so repeated calls
// return an empty id list and change nothing.
func (r *MessageRepo) MarkRoomRead(ctx context.Context, roomID int, receiverID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids,
		`UPDATE messages SET is_read = TRUE
         WHERE room_id=$1 AND receiver_id=$2 AND is_read = FALSE
         RETURNING id`, roomID, receiverID)
	return ids, err
}

// MarkMessageRead flips one message, guarded by the receiver so a user
// can never mark another participant's inbox.
func (r *MessageRepo) MarkMessageRead(ctx context.Context, messageID int, receiverID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids,
		`UPDATE messages SET is_read = TRUE
         WHERE id=$1 AND receiver_id=$2 AND is_read = FALSE
         RETURNING id`, messageID, receiverID)
	return ids, err
}
