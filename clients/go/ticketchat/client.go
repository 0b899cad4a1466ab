// Package ticketchat is the Go client for the chat service. It keeps a
// local conversation view convergent across the websocket transport and
// the HTTP fallback: sends carry a client-generated correlation id, the
// transport gets a bounded wait for its ack, and on timeout the same
// send is retried over HTTP. The server deduplicates on the correlation
// id, so whichever path answers first wins and the other is absorbed.
package ticketchat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ticket-chat-service/internal/models"
)

const defaultSendTimeout = 5 * time.Second

// ConversationKey scopes a conversation: exactly one of PurchaseID
// (string-encoded BIGINT) or ConversationWith is set.
type ConversationKey struct {
	PurchaseID       string
	ConversationWith int
}

// PurchaseConversation keys the conversation attached to a purchase.
func PurchaseConversation(purchaseID string) ConversationKey {
	return ConversationKey{PurchaseID: purchaseID}
}

// DirectConversation keys the one-to-one conversation with a user.
func DirectConversation(userID int) ConversationKey {
	return ConversationKey{ConversationWith: userID}
}

func (k ConversationKey) joinPayload() models.JoinPayload {
	return models.JoinPayload{PurchaseID: k.PurchaseID, ConversationWith: k.ConversationWith}
}

// Client talks to the chat service. It prefers the websocket transport
// when connected and falls back to the HTTP API otherwise.
type Client struct {
	baseURL     string
	token       string
	httpClient  *http.Client
	sendTimeout time.Duration

	mu        sync.Mutex
	transport *Transport
	convs     map[int]*Conversation
}

// New builds a client for the service at baseURL. The client is usable
// immediately over HTTP; call Connect to attach the live transport.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       token,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		sendTimeout: defaultSendTimeout,
		convs:       make(map[int]*Conversation),
	}
}

// SetSendTimeout bounds the wait for a transport ack before the send
// falls back to HTTP.
func (c *Client) SetSendTimeout(d time.Duration) {
	c.sendTimeout = d
}

// Connect dials the websocket endpoint and authenticates. Incoming
// broadcasts are merged into the open conversations.
func (c *Client) Connect(ctx context.Context) error {
	t := NewTransport(wsURL(c.baseURL), c.token)
	t.OnMessage = func(msg models.MessagePayload) {
		if conv := c.conversation(msg.RoomID); conv != nil {
			conv.ApplyMessage(msg)
		}
	}
	t.OnAck = func(ack models.AckPayload) {
		c.mu.Lock()
		convs := make([]*Conversation, 0, len(c.convs))
		for _, conv := range c.convs {
			convs = append(convs, conv)
		}
		c.mu.Unlock()
		for _, conv := range convs {
			conv.ApplyAck(ack)
		}
	}
	t.OnReadReceipt = func(receipt models.ReadReceiptPayload) {
		if conv := c.conversation(receipt.RoomID); conv != nil {
			conv.ApplyReadReceipt(receipt)
		}
	}
	t.OnRoomJoined = func(joined models.RoomJoinedPayload) {
		if conv := c.conversation(joined.Room.ID); conv != nil {
			conv.loadHistory(joined.History)
		}
	}

	if err := t.Connect(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.transport = t
	c.mu.Unlock()
	return nil
}

// Close shuts down the transport. HTTP operations keep working.
func (c *Client) Close() error {
	c.mu.Lock()
	t := c.transport
	c.transport = nil
	c.mu.Unlock()
	if t != nil {
		return t.Close()
	}
	return nil
}

// OpenConversation resolves the conversation for key, joining over the
// transport when connected and loading history over HTTP otherwise.
// The room is created lazily on first access.
func (c *Client) OpenConversation(ctx context.Context, key ConversationKey) (*Conversation, error) {
	if t := c.currentTransport(); t != nil {
		joined, err := t.Join(ctx, key.joinPayload())
		if err == nil {
			conv := c.register(joined.Room.ID, key)
			conv.loadHistory(joined.History)
			return conv, nil
		}
		if !Is(err, CodeTransportUnavailable) {
			return nil, err
		}
	}

	var resp struct {
		Room     models.RoomPayload      `json:"room"`
		Messages []models.MessagePayload `json:"messages"`
	}
	query := url.Values{}
	if key.PurchaseID != "" {
		query.Set("purchaseId", key.PurchaseID)
	} else {
		query.Set("conversationWith", strconv.Itoa(key.ConversationWith))
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/messages?"+query.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	conv := c.register(resp.Room.ID, key)
	conv.loadHistory(resp.Messages)
	return conv, nil
}

// Send delivers content to the conversation. It appends an optimistic
// entry, tries the transport with a bounded ack wait, then falls back
// to HTTP. Only when both paths fail is the entry marked failed; a
// retry is a fresh send with a new correlation id.
func (c *Client) Send(ctx context.Context, conv *Conversation, content string) (MessageView, error) {
	clientMessageID := uuid.NewString()
	senderID := 0
	if t := c.currentTransport(); t != nil {
		senderID = t.UserID()
	}
	conv.appendSending(clientMessageID, senderID, content)
	view := func() MessageView {
		entry, _ := conv.Entry(clientMessageID)
		return entry
	}

	if t := c.currentTransport(); t != nil {
		ackCtx, cancel := context.WithTimeout(ctx, c.sendTimeout)
		ack, err := t.Send(ackCtx, models.SendPayload{
			RoomID:          conv.RoomID(),
			Content:         content,
			ClientMessageID: clientMessageID,
		})
		cancel()
		switch {
		case err == nil && ack.Status == models.StatusSent:
			conv.ApplyAck(ack)
			return view(), nil
		case err == nil:
			conv.markFailed(clientMessageID)
			return view(), newError(CodeDeliveryFailed, ack.Error, nil)
		case !Is(err, CodeTransportUnavailable):
			conv.markFailed(clientMessageID)
			return view(), err
		}
	}

	msg, err := c.postMessage(ctx, conv, content, clientMessageID)
	if err != nil {
		conv.markFailed(clientMessageID)
		return view(), newError(CodeDeliveryFailed, "both delivery paths failed", err)
	}
	conv.ApplyMessage(msg)
	return view(), nil
}

// MarkRead flags messages addressed to the caller as read. MessageID
// zero flips the conversation's whole unread backlog.
func (c *Client) MarkRead(ctx context.Context, conv *Conversation, messageID int) error {
	if t := c.currentTransport(); t != nil {
		err := t.MarkRead(models.MarkReadPayload{RoomID: conv.RoomID(), MessageID: messageID})
		if err == nil || !Is(err, CodeTransportUnavailable) {
			return err
		}
	}
	body := map[string]interface{}{"roomId": conv.RoomID()}
	if messageID != 0 {
		body["messageId"] = messageID
	}
	return c.doJSON(ctx, http.MethodPatch, "/api/messages/read", body, nil)
}

// Rooms lists the caller's visible conversations.
func (c *Client) Rooms(ctx context.Context) ([]models.RoomSummary, error) {
	var resp struct {
		Rooms []models.RoomSummary `json:"rooms"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/rooms", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Rooms, nil
}

// LeaveRoom hides the conversation from the caller's room list. The
// room reappears when a new message arrives.
func (c *Client) LeaveRoom(ctx context.Context, roomID int) error {
	if t := c.currentTransport(); t != nil {
		if err := t.Leave(roomID); err == nil {
			c.mu.Lock()
			delete(c.convs, roomID)
			c.mu.Unlock()
		}
	}
	err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/rooms/%d/me", roomID), nil, nil)
	if err == nil {
		c.mu.Lock()
		delete(c.convs, roomID)
		c.mu.Unlock()
	}
	return err
}

func (c *Client) postMessage(ctx context.Context, conv *Conversation, content, clientMessageID string) (models.MessagePayload, error) {
	body := map[string]interface{}{
		"content":         content,
		"clientMessageId": clientMessageID,
	}
	if roomID := conv.RoomID(); roomID != 0 {
		body["roomId"] = roomID
	} else if key := conv.Key(); key.PurchaseID != "" {
		body["purchaseId"] = key.PurchaseID
	} else {
		body["conversationWith"] = key.ConversationWith
	}

	var resp struct {
		Message models.MessagePayload `json:"message"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/messages", body, &resp); err != nil {
		return models.MessagePayload{}, err
	}
	return resp.Message, nil
}

func (c *Client) currentTransport() *Transport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transport
}

func (c *Client) conversation(roomID int) *Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.convs[roomID]
}

func (c *Client) register(roomID int, key ConversationKey) *Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conv, ok := c.convs[roomID]; ok {
		return conv
	}
	conv := NewConversation(roomID, key)
	c.convs[roomID] = conv
	return conv
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return newError(CodeInternal, "encode request", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return newError(CodeInternal, "build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return newError(CodeTransportUnavailable, "http request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return newError(codeForStatus(resp.StatusCode), apiErr.Error, nil)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return newError(CodeInternal, "decode response", err)
		}
	}
	return nil
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return CodeUnauthenticated
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusBadRequest:
		return CodeBadRequest
	default:
		return CodeInternal
	}
}

func wsURL(baseURL string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(baseURL, "https://") + "/ws"
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(baseURL, "http://") + "/ws"
	}
	return baseURL + "/ws"
}
