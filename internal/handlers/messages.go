package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ticket-chat-service/internal/delivery"
	grpcclient "ticket-chat-service/internal/grpc"
	"ticket-chat-service/internal/models"
	"ticket-chat-service/internal/repositories"
)

// ChatService is the slice of the delivery coordinator the fallback
// channel dispatches into. It is the same contract the websocket
// session uses, so a message sent here lands in the same room and
// reaches transport-connected participants live.
type ChatService interface {
	History(ctx context.Context, key delivery.ConversationKey, callerID int) (models.Room, []models.Message, *grpcclient.Purchase, error)
	Send(ctx context.Context, req delivery.SendRequest) (models.Message, error)
	MarkRead(ctx context.Context, req delivery.MarkReadRequest) ([]int, error)
}

// MessageHandler serves the stateless request/response equivalents of
// the websocket protocol.
type MessageHandler struct {
	chat ChatService
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(chat ChatService) *MessageHandler {
	return &MessageHandler{chat: chat}
}

// ListMessages returns the conversation history, lazily creating the
// room on first access. A fresh purchase conversation therefore
// answers with an empty list, not a 404.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	userID := c.GetInt("userID")

	key, err := conversationKeyFromRequest(c.Query("purchaseId"), c.Query("conversationWith"), userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, msgs, purchase, err := h.chat.History(c.Request.Context(), key, userID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": "failed to load messages"})
		return
	}

	resp := gin.H{
		"room":     roomResponse(room),
		"messages": models.NewMessagePayloads(msgs),
	}
	if purchase != nil {
		resp["purchase"] = purchaseResponse(*purchase)
	}
	c.JSON(http.StatusOK, resp)
}

// PostMessage stores a message and broadcasts it to any connected
// participants. The client correlation id, when supplied, makes the
// call idempotent against a concurrent transport send.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	userID := c.GetInt("userID")

	var req struct {
		Content          string `json:"content" binding:"required"`
		ReceiverID       int    `json:"receiverId"`
		PurchaseID       string `json:"purchaseId"`
		ConversationWith int    `json:"conversationWith"`
		RoomID           int    `json:"roomId"`
		ClientMessageID  string `json:"clientMessageId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sendReq := delivery.SendRequest{
		RoomID:          req.RoomID,
		SenderID:        userID,
		Content:         req.Content,
		ClientMessageID: req.ClientMessageID,
		Channel:         "fallback",
	}
	if req.ReceiverID != 0 {
		receiver := req.ReceiverID
		sendReq.ReceiverID = &receiver
	}
	if req.RoomID == 0 {
		conversationWith := req.ConversationWith
		if conversationWith == 0 {
			conversationWith = req.ReceiverID
		}
		key, err := conversationKeyFromRequest(req.PurchaseID, strconv.Itoa(conversationWith), userID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sendReq.Key = key
	}

	msg, err := h.chat.Send(c.Request.Context(), sendReq)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": "failed to send message"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": models.NewMessagePayload(msg)})
}

// MarkRead flags messages addressed to the caller as read. Without a
// messageId the whole conversation's unread backlog is flipped.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	userID := c.GetInt("userID")

	var req struct {
		RoomID           int    `json:"roomId"`
		PurchaseID       string `json:"purchaseId"`
		ConversationWith int    `json:"conversationWith"`
		MessageID        int    `json:"messageId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	markReq := delivery.MarkReadRequest{
		RoomID:    req.RoomID,
		ReaderID:  userID,
		MessageID: req.MessageID,
	}
	if req.RoomID == 0 {
		key, err := conversationKeyFromRequest(req.PurchaseID, strconv.Itoa(req.ConversationWith), userID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		markReq.Key = key
	}

	ids, err := h.chat.MarkRead(c.Request.Context(), markReq)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": "failed to mark messages read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": len(ids), "message_ids": ids})
}

// conversationKeyFromRequest builds the key from the two alternative
// scoping parameters. Purchase ids arrive as strings because they are
// BIGINTs on the wire.
func conversationKeyFromRequest(purchaseID, conversationWith string, callerID int) (delivery.ConversationKey, error) {
	if purchaseID != "" {
		id, err := strconv.ParseInt(purchaseID, 10, 64)
		if err != nil || id <= 0 {
			return delivery.ConversationKey{}, fmt.Errorf("invalid purchaseId %q", purchaseID)
		}
		return delivery.PurchaseKey(id), nil
	}
	if conversationWith != "" && conversationWith != "0" {
		other, err := strconv.Atoi(conversationWith)
		if err != nil || other <= 0 {
			return delivery.ConversationKey{}, fmt.Errorf("invalid conversationWith %q", conversationWith)
		}
		return delivery.DirectKey(callerID, other), nil
	}
	return delivery.ConversationKey{}, errors.New("purchaseId or conversationWith is required")
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, delivery.ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, delivery.ErrConversationNotFound),
		errors.Is(err, repositories.ErrRoomNotFound),
		errors.Is(err, repositories.ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, delivery.ErrEmptyContent):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func roomResponse(room models.Room) models.RoomPayload {
	payload := models.RoomPayload{ID: room.ID, Name: room.Name}
	if room.PurchaseID != nil {
		payload.PurchaseID = strconv.FormatInt(*room.PurchaseID, 10)
	}
	return payload
}

func purchaseResponse(purchase grpcclient.Purchase) models.PurchasePayload {
	return models.PurchasePayload{
		ID:          strconv.FormatInt(purchase.ID, 10),
		BuyerID:     purchase.BuyerID,
		SellerID:    purchase.SellerID,
		Status:      purchase.Status,
		Price:       purchase.Price,
		TicketTitle: purchase.TicketTitle,
	}
}
