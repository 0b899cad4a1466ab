package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"ticket-chat-service/internal/delivery"
	grpcclient "ticket-chat-service/internal/grpc"
	"ticket-chat-service/internal/models"
	"ticket-chat-service/internal/observability"
	"ticket-chat-service/internal/repositories"
)

// TokenValidator resolves a bearer token to a user id.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (int, error)
}

// ChatService is the slice of the delivery coordinator the session
// dispatches into.
type ChatService interface {
	History(ctx context.Context, key delivery.ConversationKey, callerID int) (models.Room, []models.Message, *grpcclient.Purchase, error)
	Send(ctx context.Context, req delivery.SendRequest) (models.Message, error)
	MarkRead(ctx context.Context, req delivery.MarkReadRequest) ([]int, error)
}

// SessionHandler serves the single multiplexed websocket endpoint.
// Every room a client cares about is joined over one connection.
type SessionHandler struct {
	hub         *Hub
	chat        ChatService
	auth        TokenValidator
	requireAuth bool
}

// NewSessionHandler constructs a SessionHandler. requireAuth is true
// in production; elsewhere an unauthenticated session stays usable for
// local development.
func NewSessionHandler(hub *Hub, chat ChatService, auth TokenValidator, requireAuth bool) *SessionHandler {
	return &SessionHandler{hub: hub, chat: chat, auth: auth, requireAuth: requireAuth}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// session is the per-connection state the read loop owns. Only the
// joined-room index in the hub is shared.
type session struct {
	client *Client
	userID int
}

// Handle upgrades the connection and runs the event loop.
func (h *SessionHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("ticket-chat-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, err := h.handshakeUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	traceID := observability.TraceIDFromContext(ctx)
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	client := NewClient(conn, info)
	h.hub.Register(client)
	go client.WritePump()

	observability.IncWSActive("room")
	observability.IncWSEvent("room", "ws_connect")
	publishSessionEvent(context.Background(), "ws_connect", info, "", 0)

	go h.readLoop(&session{client: client, userID: userID})
}

// handshakeUser resolves an optional token supplied at upgrade time.
// Clients may also authenticate later with an auth event. Production
// rejects nothing here; only join/send require an identity.
func (h *SessionHandler) handshakeUser(c *gin.Context) (int, error) {
	token := c.GetHeader("Authorization")
	if token == "" {
		if q := c.Query("token"); q != "" {
			token = "Bearer " + q
		}
	}
	if token == "" {
		if !h.requireAuth {
			// Development identity injection for socket test tooling.
			if dev := c.Query("dev_user_id"); dev != "" {
				id, err := strconv.Atoi(dev)
				if err != nil || id <= 0 {
					return 0, nil
				}
				return id, nil
			}
		}
		return 0, nil
	}

	parts := strings.Split(token, " ")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid token")
	}
	return h.auth.ValidateToken(c.Request.Context(), parts[1])
}

func (h *SessionHandler) readLoop(s *session) {
	var closeReason string
	defer func() {
		// Room count and identity are read before the hub forgets the
		// connection, so the disconnect event reflects the session as
		// it was.
		joined := len(h.hub.JoinedRooms(s.client))
		info := s.client.Info()
		h.hub.Unregister(s.client)
		observability.DecWSActive("room")
		observability.IncWSEvent("room", "ws_disconnect")
		publishSessionEvent(context.Background(), "ws_disconnect", info, closeReason, joined)
	}()

	for {
		_, frame, err := s.client.conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("room", "ws_error")
				publishSessionEvent(context.Background(), "ws_error", s.client.Info(), closeReason, len(h.hub.JoinedRooms(s.client)))
			}
			return
		}
		h.dispatch(s, frame)
	}
}

// dispatch decodes one inbound frame and handles exactly one variant.
func (h *SessionHandler) dispatch(s *session, frame []byte) {
	ctx := context.Background()

	event, err := models.DecodeClientEvent(frame)
	if err != nil {
		h.sendError(s, "BAD_EVENT", err.Error())
		return
	}

	switch payload := event.(type) {
	case models.AuthPayload:
		h.handleAuth(ctx, s, payload)
	case models.JoinPayload:
		h.handleJoin(ctx, s, payload)
	case models.SendPayload:
		h.handleSend(ctx, s, payload)
	case models.LeavePayload:
		h.hub.Leave(payload.RoomID, s.client)
	case models.MarkReadPayload:
		h.handleMarkRead(ctx, s, payload)
	default:
		h.sendError(s, "BAD_EVENT", "unsupported event")
	}
}

func (h *SessionHandler) handleAuth(ctx context.Context, s *session, payload models.AuthPayload) {
	userID, err := h.auth.ValidateToken(ctx, payload.Token)
	if err != nil {
		h.send(s, models.EventAuthed, models.AuthedPayload{Error: "invalid token"})
		return
	}
	s.userID = userID
	// Keep the hub-side connection record in sync so disconnect and
	// ws_error events carry the authenticated identity.
	s.client.SetUserID(userID)
	h.send(s, models.EventAuthed, models.AuthedPayload{UserID: userID})
}

func (h *SessionHandler) handleJoin(ctx context.Context, s *session, payload models.JoinPayload) {
	if s.userID == 0 {
		h.sendError(s, "UNAUTHENTICATED", "authenticate before joining a room")
		return
	}
	key, err := h.conversationKey(payload.PurchaseID, payload.ConversationWith, s.userID)
	if err != nil {
		h.sendError(s, "BAD_EVENT", err.Error())
		return
	}

	room, history, purchase, err := h.chat.History(ctx, key, s.userID)
	if err != nil {
		h.sendError(s, errorCode(err), "could not join conversation")
		return
	}

	h.hub.Join(room.ID, s.client)
	observability.IncWSEvent("room", "room_join")

	joined := models.RoomJoinedPayload{
		Room:    roomPayload(room),
		History: models.NewMessagePayloads(history),
	}
	if purchase != nil {
		joined.Participants = []int{purchase.BuyerID, purchase.SellerID}
		joined.Purchase = &models.PurchasePayload{
			ID:          strconv.FormatInt(purchase.ID, 10),
			BuyerID:     purchase.BuyerID,
			SellerID:    purchase.SellerID,
			Status:      purchase.Status,
			Price:       purchase.Price,
			TicketTitle: purchase.TicketTitle,
		}
	} else {
		low, high := key.Users()
		joined.Participants = []int{low, high}
	}
	h.send(s, models.EventRoomJoined, joined)
}

func (h *SessionHandler) handleSend(ctx context.Context, s *session, payload models.SendPayload) {
	if s.userID == 0 {
		h.sendError(s, "UNAUTHENTICATED", "authenticate before sending")
		return
	}

	req := delivery.SendRequest{
		RoomID:          payload.RoomID,
		SenderID:        s.userID,
		Content:         payload.Content,
		ClientMessageID: payload.ClientMessageID,
		Channel:         "transport",
	}
	if payload.RoomID == 0 {
		key, err := h.conversationKey(payload.PurchaseID, payload.ConversationWith, s.userID)
		if err != nil {
			h.sendFailedAck(s, payload.ClientMessageID, err.Error())
			return
		}
		req.Key = key
	}

	msg, err := h.chat.Send(ctx, req)
	if err != nil {
		h.sendFailedAck(s, payload.ClientMessageID, errorCode(err))
		return
	}

	h.send(s, models.EventAck, models.AckPayload{
		ClientMessageID: msg.ClientMessageID,
		MessageID:       msg.ID,
		Status:          models.StatusSent,
	})
}

func (h *SessionHandler) handleMarkRead(ctx context.Context, s *session, payload models.MarkReadPayload) {
	if s.userID == 0 {
		h.sendError(s, "UNAUTHENTICATED", "authenticate before marking read")
		return
	}
	if _, err := h.chat.MarkRead(ctx, delivery.MarkReadRequest{
		RoomID:    payload.RoomID,
		ReaderID:  s.userID,
		MessageID: payload.MessageID,
	}); err != nil {
		h.sendError(s, errorCode(err), "could not mark messages read")
	}
}

func (h *SessionHandler) conversationKey(purchaseID string, conversationWith int, userID int) (delivery.ConversationKey, error) {
	if purchaseID != "" {
		id, err := strconv.ParseInt(purchaseID, 10, 64)
		if err != nil || id <= 0 {
			return delivery.ConversationKey{}, fmt.Errorf("invalid purchase id %q", purchaseID)
		}
		return delivery.PurchaseKey(id), nil
	}
	if conversationWith > 0 {
		return delivery.DirectKey(userID, conversationWith), nil
	}
	return delivery.ConversationKey{}, fmt.Errorf("conversation key missing")
}

func (h *SessionHandler) send(s *session, eventType string, payload interface{}) {
	frame, err := models.EncodeEvent(eventType, payload)
	if err != nil {
		return
	}
	if !s.client.Enqueue(frame) {
		h.hub.Unregister(s.client)
	}
}

func (h *SessionHandler) sendError(s *session, code, message string) {
	h.send(s, models.EventError, models.ErrorPayload{Code: code, Message: message})
}

func (h *SessionHandler) sendFailedAck(s *session, clientMessageID, reason string) {
	h.send(s, models.EventAck, models.AckPayload{
		ClientMessageID: clientMessageID,
		Status:          models.StatusFailed,
		Error:           reason,
	})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, delivery.ErrNotParticipant):
		return "FORBIDDEN"
	case errors.Is(err, delivery.ErrConversationNotFound),
		errors.Is(err, repositories.ErrRoomNotFound),
		errors.Is(err, repositories.ErrMessageNotFound):
		return "NOT_FOUND"
	case errors.Is(err, delivery.ErrEmptyContent):
		return "BAD_EVENT"
	default:
		return "INTERNAL"
	}
}

func roomPayload(room models.Room) models.RoomPayload {
	payload := models.RoomPayload{ID: room.ID, Name: room.Name}
	if room.PurchaseID != nil {
		payload.PurchaseID = strconv.FormatInt(*room.PurchaseID, 10)
	}
	return payload
}

func publishSessionEvent(ctx context.Context, event string, info ConnInfo, reason string, roomsJoined int) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"event":        event,
			"conn_id":      info.ConnID,
			"duration_ms":  time.Since(info.ConnectedAt).Milliseconds(),
			"reason":       reason,
			"rooms_joined": roomsJoined,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
	_ = observability.PublishEvent(ctx, "ws_events.rooms", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload:   payload,
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}
