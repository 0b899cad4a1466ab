package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ticket-chat-service/internal/repositories"
	"ticket-chat-service/internal/telemetry"
)

// RoomHandler serves room listing and per-user room visibility.
type RoomHandler struct {
	rooms repositories.RoomRepository
	audit *telemetry.AuditEmitter
}

// NewRoomHandler builds a RoomHandler. The audit emitter may be nil.
func NewRoomHandler(rooms repositories.RoomRepository, audit *telemetry.AuditEmitter) *RoomHandler {
	return &RoomHandler{rooms: rooms, audit: audit}
}

// ListRooms returns the rooms visible to the authenticated user.
func (h *RoomHandler) ListRooms(c *gin.Context) {
	userID := c.GetInt("userID")

	rooms, err := h.rooms.ListRoomsForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load rooms"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// LeaveRoom hides the room for the requester. The room itself and its
// messages survive; any new message resurfaces it.
func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	roomID, err := strconv.Atoi(c.Param("room_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}
	userID := c.GetInt("userID")

	member, err := h.rooms.IsParticipant(c.Request.Context(), roomID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a room participant"})
		return
	}

	if err := h.rooms.HideRoomForUser(c.Request.Context(), roomID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not leave room"})
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO", fmt.Sprintf("room %d left", roomID),
		requestIDFromContext(c), userIDFromContext(c))

	c.Status(http.StatusNoContent)
}
