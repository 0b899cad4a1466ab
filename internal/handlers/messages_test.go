package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ticket-chat-service/internal/delivery"
	grpcclient "ticket-chat-service/internal/grpc"
	"ticket-chat-service/internal/mocks"
	"ticket-chat-service/internal/models"
)

func setupMessageRouter(handler *MessageHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/api/messages", handler.ListMessages)
	r.POST("/api/messages", handler.PostMessage)
	r.PATCH("/api/messages/read", handler.MarkRead)
	return r
}

// First GET on a fresh purchase conversation creates the room lazily
// and answers with an empty history, not a 404.
func TestListMessagesFreshPurchase(t *testing.T) {
	chat := new(mocks.ChatServiceMock)
	router := setupMessageRouter(NewMessageHandler(chat))

	purchaseID := int64(42)
	chat.On("History", mock.Anything, delivery.PurchaseKey(42), 1).
		Return(models.Room{ID: 5, Name: "purchase_42", PurchaseID: &purchaseID},
			[]models.Message{},
			&grpcclient.Purchase{ID: 42, BuyerID: 1, SellerID: 7, Status: "paid", Price: "1500.00"},
			nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/messages?purchaseId=42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Room     models.RoomPayload      `json:"room"`
		Messages []models.MessagePayload `json:"messages"`
		Purchase *models.PurchasePayload `json:"purchase"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 5, resp.Room.ID)
	assert.Equal(t, "42", resp.Room.PurchaseID)
	assert.Empty(t, resp.Messages)
	require.NotNil(t, resp.Purchase)
	assert.Equal(t, "1500.00", resp.Purchase.Price)

	chat.AssertExpectations(t)
}

func TestListMessagesDirectKey(t *testing.T) {
	chat := new(mocks.ChatServiceMock)
	router := setupMessageRouter(NewMessageHandler(chat))

	chat.On("History", mock.Anything, delivery.DirectKey(1, 7), 1).
		Return(models.Room{ID: 6, Name: "direct_1_7"},
			[]models.Message{{ID: 9, RoomID: 6, SenderID: 7, Content: "hello", ClientMessageID: "m-1"}},
			(*grpcclient.Purchase)(nil), nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/messages?conversationWith=7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	chat.AssertExpectations(t)
}

func TestListMessagesMissingKey(t *testing.T) {
	router := setupMessageRouter(NewMessageHandler(new(mocks.ChatServiceMock)))

	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListMessagesForbidden(t *testing.T) {
	chat := new(mocks.ChatServiceMock)
	router := setupMessageRouter(NewMessageHandler(chat))

	chat.On("History", mock.Anything, delivery.PurchaseKey(42), 1).
		Return(models.Room{}, ([]models.Message)(nil), (*grpcclient.Purchase)(nil), delivery.ErrNotParticipant).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/messages?purchaseId=42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	chat.AssertExpectations(t)
}

func TestPostMessageSuccess(t *testing.T) {
	chat := new(mocks.ChatServiceMock)
	router := setupMessageRouter(NewMessageHandler(chat))

	chat.On("Send", mock.Anything, mock.MatchedBy(func(req delivery.SendRequest) bool {
		return req.RoomID == 5 && req.SenderID == 1 &&
			req.ClientMessageID == "abc" && req.Channel == "fallback"
	})).Return(models.Message{ID: 42, RoomID: 5, SenderID: 1, Content: "hi", ClientMessageID: "abc"}, nil).Once()

	body := bytes.NewBufferString(`{"content":"hi","roomId":5,"clientMessageId":"abc"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/messages", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Message models.MessagePayload `json:"message"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 42, resp.Message.ID)
	assert.Equal(t, "abc", resp.Message.ClientMessageID)

	chat.AssertExpectations(t)
}

func TestPostMessageByPurchaseKey(t *testing.T) {
	chat := new(mocks.ChatServiceMock)
	router := setupMessageRouter(NewMessageHandler(chat))

	chat.On("Send", mock.Anything, mock.MatchedBy(func(req delivery.SendRequest) bool {
		return req.RoomID == 0 && req.Key == delivery.PurchaseKey(42)
	})).Return(models.Message{ID: 43, RoomID: 5, SenderID: 1, Content: "hi"}, nil).Once()

	body := bytes.NewBufferString(`{"content":"hi","purchaseId":"42"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/messages", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	chat.AssertExpectations(t)
}

func TestPostMessageMissingContent(t *testing.T) {
	chat := new(mocks.ChatServiceMock)
	router := setupMessageRouter(NewMessageHandler(chat))

	body := bytes.NewBufferString(`{"roomId":5}`)
	req := httptest.NewRequest(http.MethodPost, "/api/messages", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	chat.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestPostMessageConversationNotFound(t *testing.T) {
	chat := new(mocks.ChatServiceMock)
	router := setupMessageRouter(NewMessageHandler(chat))

	chat.On("Send", mock.Anything, mock.Anything).
		Return(models.Message{}, delivery.ErrConversationNotFound).Once()

	body := bytes.NewBufferString(`{"content":"hi","purchaseId":"99"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/messages", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	chat.AssertExpectations(t)
}

func TestMarkReadEndpoint(t *testing.T) {
	chat := new(mocks.ChatServiceMock)
	router := setupMessageRouter(NewMessageHandler(chat))

	chat.On("MarkRead", mock.Anything, delivery.MarkReadRequest{RoomID: 5, ReaderID: 1}).
		Return([]int{11, 12}, nil).Once()

	body := bytes.NewBufferString(`{"roomId":5}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/messages/read", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Updated    int   `json:"updated"`
		MessageIDs []int `json:"message_ids"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Updated)
	assert.Equal(t, []int{11, 12}, resp.MessageIDs)

	chat.AssertExpectations(t)
}
