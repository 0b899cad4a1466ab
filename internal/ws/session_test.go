package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ticket-chat-service/internal/delivery"
	grpcclient "ticket-chat-service/internal/grpc"
	"ticket-chat-service/internal/mocks"
	"ticket-chat-service/internal/models"
)

func dialSession(t *testing.T, handler *SessionHandler, query string) (*websocket.Conn, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", handler.Handle)
	srv := httptest.NewServer(r)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	require.NoError(t, err)

	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func writeEvent(t *testing.T, conn *websocket.Conn, eventType string, payload interface{}) {
	t.Helper()
	frame, err := models.EncodeEvent(eventType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

func readEvent(t *testing.T, conn *websocket.Conn) models.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	var envelope models.Envelope
	require.NoError(t, json.Unmarshal(frame, &envelope))
	return envelope
}

func TestSessionJoinAndSendAck(t *testing.T) {
	chat := new(mocks.ChatServiceMock)
	handler := NewSessionHandler(NewHub(), chat, new(mocks.TokenValidatorMock), false)
	conn, cleanup := dialSession(t, handler, "?dev_user_id=3")
	defer cleanup()

	chat.On("History", mock.Anything, delivery.DirectKey(3, 7), 3).
		Return(models.Room{ID: 5, Name: "direct_3_7"}, []models.Message{}, (*grpcclient.Purchase)(nil), nil).Once()
	chat.On("Send", mock.Anything, mock.MatchedBy(func(req delivery.SendRequest) bool {
		return req.RoomID == 5 && req.SenderID == 3 &&
			req.ClientMessageID == "abc" && req.Channel == "transport"
	})).Return(models.Message{ID: 42, RoomID: 5, SenderID: 3, ClientMessageID: "abc", Content: "hi"}, nil).Once()

	writeEvent(t, conn, models.EventJoin, models.JoinPayload{ConversationWith: 7})
	joinedEnvelope := readEvent(t, conn)
	require.Equal(t, models.EventRoomJoined, joinedEnvelope.Type)
	var joined models.RoomJoinedPayload
	require.NoError(t, json.Unmarshal(joinedEnvelope.Payload, &joined))
	assert.Equal(t, 5, joined.Room.ID)
	assert.ElementsMatch(t, []int{3, 7}, joined.Participants)
	assert.Empty(t, joined.History)

	writeEvent(t, conn, models.EventSend, models.SendPayload{RoomID: 5, Content: "hi", ClientMessageID: "abc"})
	ackEnvelope := readEvent(t, conn)
	require.Equal(t, models.EventAck, ackEnvelope.Type)
	var ack models.AckPayload
	require.NoError(t, json.Unmarshal(ackEnvelope.Payload, &ack))
	assert.Equal(t, "abc", ack.ClientMessageID)
	assert.Equal(t, 42, ack.MessageID)
	assert.Equal(t, models.StatusSent, ack.Status)

	chat.AssertExpectations(t)
}

func TestSessionAuthEventThenJoin(t *testing.T) {
	chat := new(mocks.ChatServiceMock)
	auth := new(mocks.TokenValidatorMock)
	handler := NewSessionHandler(NewHub(), chat, auth, false)
	conn, cleanup := dialSession(t, handler, "")
	defer cleanup()

	// Joining without an identity is refused.
	writeEvent(t, conn, models.EventJoin, models.JoinPayload{ConversationWith: 7})
	errEnvelope := readEvent(t, conn)
	require.Equal(t, models.EventError, errEnvelope.Type)
	var errPayload models.ErrorPayload
	require.NoError(t, json.Unmarshal(errEnvelope.Payload, &errPayload))
	assert.Equal(t, "UNAUTHENTICATED", errPayload.Code)

	auth.On("ValidateToken", mock.Anything, "tok-1").Return(3, nil).Once()
	chat.On("History", mock.Anything, delivery.DirectKey(3, 7), 3).
		Return(models.Room{ID: 5, Name: "direct_3_7"}, []models.Message{}, (*grpcclient.Purchase)(nil), nil).Once()

	writeEvent(t, conn, models.EventAuth, models.AuthPayload{Token: "tok-1"})
	authedEnvelope := readEvent(t, conn)
	require.Equal(t, models.EventAuthed, authedEnvelope.Type)
	var authed models.AuthedPayload
	require.NoError(t, json.Unmarshal(authedEnvelope.Payload, &authed))
	assert.Equal(t, 3, authed.UserID)

	writeEvent(t, conn, models.EventJoin, models.JoinPayload{ConversationWith: 7})
	joinedEnvelope := readEvent(t, conn)
	assert.Equal(t, models.EventRoomJoined, joinedEnvelope.Type)

	auth.AssertExpectations(t)
	chat.AssertExpectations(t)
}

func TestSessionSendFailureAck(t *testing.T) {
	chat := new(mocks.ChatServiceMock)
	handler := NewSessionHandler(NewHub(), chat, new(mocks.TokenValidatorMock), false)
	conn, cleanup := dialSession(t, handler, "?dev_user_id=3")
	defer cleanup()

	chat.On("Send", mock.Anything, mock.Anything).
		Return(models.Message{}, delivery.ErrEmptyContent).Once()

	writeEvent(t, conn, models.EventSend, models.SendPayload{RoomID: 5, Content: " ", ClientMessageID: "abc"})
	ackEnvelope := readEvent(t, conn)
	require.Equal(t, models.EventAck, ackEnvelope.Type)
	var ack models.AckPayload
	require.NoError(t, json.Unmarshal(ackEnvelope.Payload, &ack))
	assert.Equal(t, "abc", ack.ClientMessageID)
	assert.Equal(t, models.StatusFailed, ack.Status)
	assert.NotEmpty(t, ack.Error)

	chat.AssertExpectations(t)
}

func TestSessionRejectsUnknownEvent(t *testing.T) {
	handler := NewSessionHandler(NewHub(), new(mocks.ChatServiceMock), new(mocks.TokenValidatorMock), false)
	conn, cleanup := dialSession(t, handler, "?dev_user_id=3")
	defer cleanup()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"typing","payload":{}}`)))
	envelope := readEvent(t, conn)
	require.Equal(t, models.EventError, envelope.Type)
	var errPayload models.ErrorPayload
	require.NoError(t, json.Unmarshal(envelope.Payload, &errPayload))
	assert.Equal(t, "BAD_EVENT", errPayload.Code)
}
