package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/jmoiron/sqlx"

	"ticket-chat-service/internal/models"
)

var ErrRoomNotFound = errors.New("room not found")

// RoomRepository abstracts room persistence. Room names are derived
// deterministically by the caller; the repository guarantees that
// concurrent find-or-create calls for one name converge on one row.
type RoomRepository interface {
	FindOrCreate(ctx context.Context, name string, purchaseID *int64, participantIDs []int) (models.Room, error)
	GetRoom(ctx context.Context, roomID int) (models.Room, error)
	GetByName(ctx context.Context, name string) (models.Room, error)
	IsParticipant(ctx context.Context, roomID int, userID int) (bool, error)
	Participants(ctx context.Context, roomID int) ([]int, error)
	EnsureParticipants(ctx context.Context, roomID int, userIDs []int) error
	ListRoomsForUser(ctx context.Context, userID int) ([]models.RoomSummary, error)
	HideRoomForUser(ctx context.Context, roomID int, userID int) error
	UnhideRoomForUser(ctx context.Context, roomID int, userID int) error
}

// RoomRepo is a sqlx implementation of RoomRepository.
type RoomRepo struct {
	db *sqlx.DB
}

// NewRoomRepo constructs a RoomRepo.
func NewRoomRepo(db *sqlx.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

const roomColumns = `id, name, purchase_id, created_at`

// FindOrCreate resolves a room by name, creating it when absent. A
// losing racer hits the unique constraint on name; the conflict is
// swallowed and the winner's row is re-read, so creation races never
// surface to callers. The expected participant set is backfilled on
// every call, which self-heals rooms created by only one side.
func (r *RoomRepo) FindOrCreate(ctx context.Context, name string, purchaseID *int64, participantIDs []int) (models.Room, error) {
	var room models.Room
	err := r.db.GetContext(ctx, &room, `SELECT `+roomColumns+` FROM rooms WHERE name=$1`, name)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return models.Room{}, err
		}
		err = r.db.QueryRowxContext(ctx,
			`INSERT INTO rooms (name, purchase_id) VALUES ($1, $2)
             ON CONFLICT (name) DO NOTHING
             RETURNING `+roomColumns, name, purchaseID).StructScan(&room)
		if errors.Is(err, sql.ErrNoRows) {
			// Lost the creation race; the winner's row must exist now.
			err = r.db.GetContext(ctx, &room, `SELECT `+roomColumns+` FROM rooms WHERE name=$1`, name)
		}
		if err != nil {
			return models.Room{}, err
		}
	}

	if err := r.EnsureParticipants(ctx, room.ID, participantIDs); err != nil {
		return models.Room{}, err
	}
	return room, nil
}

// GetRoom fetches a room by id.
func (r *RoomRepo) GetRoom(ctx context.Context, roomID int) (models.Room, error) {
	var room models.Room
	err := r.db.GetContext(ctx, &room, `SELECT `+roomColumns+` FROM rooms WHERE id=$1`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, ErrRoomNotFound
	}
	return room, err
}

// GetByName fetches a room by its derived name.
func (r *RoomRepo) GetByName(ctx context.Context, name string) (models.Room, error) {
	var room models.Room
	err := r.db.GetContext(ctx, &room, `SELECT `+roomColumns+` FROM rooms WHERE name=$1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, ErrRoomNotFound
	}
	return room, err
}

// IsParticipant checks whether a user belongs to the room.
func (r *RoomRepo) IsParticipant(ctx context.Context, roomID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM room_participants WHERE room_id=$1 AND user_id=$2)`, roomID, userID)
	return exists, err
}

// Participants returns the user ids in a room, oldest membership first.
func (r *RoomRepo) Participants(ctx context.Context, roomID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids,
		`SELECT user_id FROM room_participants WHERE room_id=$1 ORDER BY created_at, user_id`, roomID)
	return ids, err
}

// EnsureParticipants adds any missing members to the room.
func (r *RoomRepo) EnsureParticipants(ctx context.Context, roomID int, userIDs []int) error {
	for _, userID := range userIDs {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO room_participants (room_id, user_id) VALUES ($1, $2)
             ON CONFLICT (room_id, user_id) DO NOTHING`, roomID, userID); err != nil {
			return err
		}
	}
	return nil
}

// ListRoomsForUser returns rooms the user belongs to and has not
// hidden, newest first, with the counterpart id resolved per room.
func (r *RoomRepo) ListRoomsForUser(ctx context.Context, userID int) ([]models.RoomSummary, error) {
	query := `SELECT r.id, r.name, r.purchase_id, r.created_at,
            COALESCE((SELECT p2.user_id FROM room_participants p2
                WHERE p2.room_id = r.id AND p2.user_id <> $1 LIMIT 1), 0) AS counterpart_id
        FROM rooms r
        JOIN room_participants p ON p.room_id = r.id AND p.user_id = $1
        LEFT JOIN room_visibility v ON v.room_id = r.id AND v.user_id = $1
        WHERE v.hidden IS NULL OR v.hidden = FALSE
        ORDER BY r.created_at DESC`
	rows, err := r.db.QueryxContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.RoomSummary
	for rows.Next() {
		var row struct {
			models.Room
			CounterpartID int `db:"counterpart_id"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		summary := models.RoomSummary{
			RoomID:        row.ID,
			Name:          row.Name,
			CounterpartID: row.CounterpartID,
			CreatedAt:     row.CreatedAt,
		}
		if row.PurchaseID != nil {
			summary.PurchaseID = strconv.FormatInt(*row.PurchaseID, 10)
		}
		result = append(result, summary)
	}
	return result, rows.Err()
}

// HideRoomForUser marks a room hidden for the user ("leave").
func (r *RoomRepo) HideRoomForUser(ctx context.Context, roomID int, userID int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO room_visibility (room_id, user_id, hidden) VALUES ($1, $2, TRUE)
         ON CONFLICT (room_id, user_id) DO UPDATE SET hidden = TRUE`, roomID, userID)
	return err
}

// UnhideRoomForUser clears the hidden flag; any new message does this
// for both sides so conversations resurface for leavers.
func (r *RoomRepo) UnhideRoomForUser(ctx context.Context, roomID int, userID int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO room_visibility (room_id, user_id, hidden) VALUES ($1, $2, FALSE)
         ON CONFLICT (room_id, user_id) DO UPDATE SET hidden = FALSE`, roomID, userID)
	return err
}
