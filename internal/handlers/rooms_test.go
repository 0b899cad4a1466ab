package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ticket-chat-service/internal/mocks"
	"ticket-chat-service/internal/models"
)

func setupRoomRouter(handler *RoomHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/api/rooms", handler.ListRooms)
	r.DELETE("/api/rooms/:room_id/me", handler.LeaveRoom)
	return r
}

func TestListRooms(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	router := setupRoomRouter(NewRoomHandler(rooms, nil))

	rooms.On("ListRoomsForUser", mock.Anything, 1).Return([]models.RoomSummary{
		{RoomID: 5, Name: "purchase_42", PurchaseID: "42", CounterpartID: 7},
		{RoomID: 6, Name: "direct_1_7", CounterpartID: 7},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Rooms []models.RoomSummary `json:"rooms"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Rooms, 2)
	assert.Equal(t, "42", resp.Rooms[0].PurchaseID)

	rooms.AssertExpectations(t)
}

func TestLeaveRoomHidesIt(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	router := setupRoomRouter(NewRoomHandler(rooms, nil))

	rooms.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()
	rooms.On("HideRoomForUser", mock.Anything, 5, 1).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/api/rooms/5/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	rooms.AssertExpectations(t)
}

func TestLeaveRoomRejectsOutsider(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	router := setupRoomRouter(NewRoomHandler(rooms, nil))

	rooms.On("IsParticipant", mock.Anything, 5, 1).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/api/rooms/5/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	rooms.AssertNotCalled(t, "HideRoomForUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestLeaveRoomInvalidID(t *testing.T) {
	router := setupRoomRouter(NewRoomHandler(new(mocks.RoomRepositoryMock), nil))

	req := httptest.NewRequest(http.MethodDelete, "/api/rooms/abc/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
