package ticketchat

import (
	"sync"
	"time"

	"ticket-chat-service/internal/models"
)

// Status of a message entry in a conversation view.
type Status string

const (
	StatusSending Status = "sending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// MessageView is one entry of the local conversation state. Entries
// are keyed by ClientMessageID; ServerID is zero until the server
// confirms the message.
type MessageView struct {
	ClientMessageID string
	ServerID        int
	RoomID          int
	SenderID        int
	ReceiverID      int
	Content         string
	Status          Status
	IsRead          bool
	CreatedAt       time.Time
}

// Conversation holds the local view of one room. All mutation goes
// through merge, which keeps the view convergent no matter in what
// order acks, broadcasts and fallback responses arrive: an entry
// exists at most once per client message id, and a confirmed server
// id is never duplicated.
type Conversation struct {
	mu       sync.Mutex
	roomID   int
	key      ConversationKey
	entries  []*MessageView
	byCorr   map[string]*MessageView
	byServer map[int]*MessageView
}

// NewConversation returns an empty conversation for the given room.
func NewConversation(roomID int, key ConversationKey) *Conversation {
	return &Conversation{
		roomID:   roomID,
		key:      key,
		byCorr:   make(map[string]*MessageView),
		byServer: make(map[int]*MessageView),
	}
}

// RoomID returns the server-side room id.
func (c *Conversation) RoomID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

// Key returns the conversation key the room was resolved from.
func (c *Conversation) Key() ConversationKey {
	return c.key
}

// Messages returns a snapshot of the current entries in order.
func (c *Conversation) Messages() []MessageView {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]MessageView, len(c.entries))
	for i, e := range c.entries {
		out[i] = *e
	}
	return out
}

// Entry returns a snapshot of the entry with the given client message
// id, false when unknown.
func (c *Conversation) Entry(clientMessageID string) (MessageView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.byCorr[clientMessageID]; ok {
		return *entry, true
	}
	return MessageView{}, false
}

// appendSending records an optimistic entry for a send in flight.
func (c *Conversation) appendSending(clientMessageID string, senderID int, content string) *MessageView {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := &MessageView{
		ClientMessageID: clientMessageID,
		RoomID:          c.roomID,
		SenderID:        senderID,
		Content:         content,
		Status:          StatusSending,
		CreatedAt:       time.Now(),
	}
	c.entries = append(c.entries, entry)
	c.byCorr[clientMessageID] = entry
	return entry
}

// ApplyAck merges a delivery ack. A late ack for an entry already
// confirmed through another path is a no-op beyond re-confirming.
func (c *Conversation) ApplyAck(ack models.AckPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.byCorr[ack.ClientMessageID]
	if !ok {
		return
	}
	if ack.Status == models.StatusFailed {
		if entry.Status != StatusSent {
			entry.Status = StatusFailed
		}
		return
	}
	c.confirm(entry, ack.MessageID, time.Time{})
}

// ApplyMessage merges a message from a broadcast, a history load or a
// fallback response. Known client message id updates in place; a
// server id already present is discarded; anything else appends.
func (c *Conversation) ApplyMessage(msg models.MessagePayload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.byCorr[msg.ClientMessageID]; ok {
		c.confirm(entry, msg.ID, msg.CreatedAt)
		entry.IsRead = msg.IsRead
		return
	}
	if _, ok := c.byServer[msg.ID]; ok {
		return
	}
	receiverID := 0
	if msg.ReceiverID != nil {
		receiverID = *msg.ReceiverID
	}
	entry := &MessageView{
		ClientMessageID: msg.ClientMessageID,
		ServerID:        msg.ID,
		RoomID:          msg.RoomID,
		SenderID:        msg.SenderID,
		ReceiverID:      receiverID,
		Content:         msg.Content,
		Status:          StatusSent,
		IsRead:          msg.IsRead,
		CreatedAt:       msg.CreatedAt,
	}
	c.entries = append(c.entries, entry)
	if msg.ClientMessageID != "" {
		c.byCorr[msg.ClientMessageID] = entry
	}
	c.byServer[msg.ID] = entry
}

// ApplyReadReceipt flips the read flag on the given server ids.
func (c *Conversation) ApplyReadReceipt(receipt models.ReadReceiptPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range receipt.MessageIDs {
		if entry, ok := c.byServer[id]; ok {
			entry.IsRead = true
		}
	}
}

// markFailed flags an in-flight entry after both delivery paths gave
// up. A retry is a new send with a fresh client message id.
func (c *Conversation) markFailed(clientMessageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.byCorr[clientMessageID]; ok && entry.Status == StatusSending {
		entry.Status = StatusFailed
	}
}

// loadHistory replaces the confirmed entries with the server's
// history. Local entries still sending or failed are kept after it.
func (c *Conversation) loadHistory(msgs []models.MessagePayload) {
	c.mu.Lock()
	pending := make([]*MessageView, 0)
	for _, e := range c.entries {
		if e.Status != StatusSent {
			pending = append(pending, e)
		}
	}
	c.entries = nil
	c.byCorr = make(map[string]*MessageView)
	c.byServer = make(map[int]*MessageView)
	c.mu.Unlock()

	for _, m := range msgs {
		c.ApplyMessage(m)
	}

	c.mu.Lock()
	for _, e := range pending {
		if _, ok := c.byCorr[e.ClientMessageID]; ok {
			continue
		}
		c.entries = append(c.entries, e)
		c.byCorr[e.ClientMessageID] = e
	}
	c.mu.Unlock()
}

// confirm transitions an entry to sent. Must hold c.mu.
func (c *Conversation) confirm(entry *MessageView, serverID int, createdAt time.Time) {
	entry.Status = StatusSent
	if serverID != 0 {
		entry.ServerID = serverID
		c.byServer[serverID] = entry
	}
	if !createdAt.IsZero() {
		entry.CreatedAt = createdAt
	}
}
