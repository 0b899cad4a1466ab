package ticketchat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-chat-service/internal/models"
)

// A send whose transport ack times out falls back to HTTP; when the
// late ack and the broadcast echo arrive afterwards, the view must
// still hold exactly one entry, confirmed with the server id.
func TestMergeCollapsesFallbackAndLateAck(t *testing.T) {
	conv := NewConversation(5, DirectConversation(7))
	conv.appendSending("abc", 3, "hi")

	// Fallback response confirms first.
	conv.ApplyMessage(models.MessagePayload{
		ID: 42, RoomID: 5, SenderID: 3, ClientMessageID: "abc", Content: "hi",
		CreatedAt: time.Now(),
	})

	// Late transport ack for the same correlation id.
	conv.ApplyAck(models.AckPayload{ClientMessageID: "abc", MessageID: 42, Status: models.StatusSent})

	// Broadcast echo of the persisted message.
	conv.ApplyMessage(models.MessagePayload{
		ID: 42, RoomID: 5, SenderID: 3, ClientMessageID: "abc", Content: "hi",
	})

	msgs := conv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, StatusSent, msgs[0].Status)
	assert.Equal(t, 42, msgs[0].ServerID)
	assert.Equal(t, "abc", msgs[0].ClientMessageID)
}

func TestMergeAppendsInboundMessages(t *testing.T) {
	conv := NewConversation(5, DirectConversation(7))

	conv.ApplyMessage(models.MessagePayload{ID: 1, RoomID: 5, SenderID: 7, ClientMessageID: "m-1", Content: "hello"})
	conv.ApplyMessage(models.MessagePayload{ID: 2, RoomID: 5, SenderID: 7, ClientMessageID: "m-2", Content: "again"})
	// Redelivered broadcast with a known server id is discarded.
	conv.ApplyMessage(models.MessagePayload{ID: 1, RoomID: 5, SenderID: 7, ClientMessageID: "", Content: "hello"})

	msgs := conv.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, 1, msgs[0].ServerID)
	assert.Equal(t, 2, msgs[1].ServerID)
}

func TestAckFailureMarksEntryFailed(t *testing.T) {
	conv := NewConversation(5, DirectConversation(7))
	conv.appendSending("abc", 3, "hi")

	conv.ApplyAck(models.AckPayload{ClientMessageID: "abc", Status: models.StatusFailed, Error: "empty content"})

	entry, ok := conv.Entry("abc")
	require.True(t, ok)
	assert.Equal(t, StatusFailed, entry.Status)
}

func TestFailedAckDoesNotDemoteConfirmedEntry(t *testing.T) {
	conv := NewConversation(5, DirectConversation(7))
	conv.appendSending("abc", 3, "hi")
	conv.ApplyMessage(models.MessagePayload{ID: 42, RoomID: 5, SenderID: 3, ClientMessageID: "abc", Content: "hi"})

	conv.ApplyAck(models.AckPayload{ClientMessageID: "abc", Status: models.StatusFailed})

	entry, _ := conv.Entry("abc")
	assert.Equal(t, StatusSent, entry.Status)
	assert.Equal(t, 42, entry.ServerID)
}

func TestMarkFailedOnlyFlagsInFlightEntries(t *testing.T) {
	conv := NewConversation(5, DirectConversation(7))
	conv.appendSending("abc", 3, "hi")
	conv.ApplyAck(models.AckPayload{ClientMessageID: "abc", MessageID: 42, Status: models.StatusSent})

	conv.markFailed("abc")

	entry, _ := conv.Entry("abc")
	assert.Equal(t, StatusSent, entry.Status)
}

func TestLoadHistoryKeepsPendingEntries(t *testing.T) {
	conv := NewConversation(5, DirectConversation(7))
	conv.appendSending("pending-1", 3, "in flight")

	conv.loadHistory([]models.MessagePayload{
		{ID: 1, RoomID: 5, SenderID: 7, ClientMessageID: "m-1", Content: "hello"},
		{ID: 2, RoomID: 5, SenderID: 3, ClientMessageID: "m-2", Content: "hi"},
	})

	msgs := conv.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, 1, msgs[0].ServerID)
	assert.Equal(t, 2, msgs[1].ServerID)
	assert.Equal(t, "pending-1", msgs[2].ClientMessageID)
	assert.Equal(t, StatusSending, msgs[2].Status)
}

func TestLoadHistoryDropsPendingConfirmedMeanwhile(t *testing.T) {
	conv := NewConversation(5, DirectConversation(7))
	conv.appendSending("abc", 3, "hi")

	// The fallback landed: history already contains the message.
	conv.loadHistory([]models.MessagePayload{
		{ID: 42, RoomID: 5, SenderID: 3, ClientMessageID: "abc", Content: "hi"},
	})

	msgs := conv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, StatusSent, msgs[0].Status)
	assert.Equal(t, 42, msgs[0].ServerID)
}

func TestApplyReadReceipt(t *testing.T) {
	conv := NewConversation(5, DirectConversation(7))
	conv.ApplyMessage(models.MessagePayload{ID: 1, RoomID: 5, SenderID: 3, ClientMessageID: "m-1", Content: "hello"})
	conv.ApplyMessage(models.MessagePayload{ID: 2, RoomID: 5, SenderID: 3, ClientMessageID: "m-2", Content: "unread"})

	conv.ApplyReadReceipt(models.ReadReceiptPayload{RoomID: 5, ReaderID: 7, MessageIDs: []int{1}})

	msgs := conv.Messages()
	assert.True(t, msgs[0].IsRead)
	assert.False(t, msgs[1].IsRead)
}
