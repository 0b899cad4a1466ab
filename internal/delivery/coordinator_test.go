package delivery_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ticket-chat-service/internal/delivery"
	grpcclient "ticket-chat-service/internal/grpc"
	"ticket-chat-service/internal/mocks"
	"ticket-chat-service/internal/models"
	"ticket-chat-service/internal/repositories"
)

func newCoordinator(rooms *mocks.RoomRepositoryMock, messages *mocks.MessageRepositoryMock, purchases *mocks.PurchaseServiceMock, broadcast *mocks.BroadcasterMock, notifier *mocks.PublisherMock) *delivery.Coordinator {
	if notifier == nil {
		return delivery.NewCoordinator(rooms, messages, purchases, broadcast, nil)
	}
	return delivery.NewCoordinator(rooms, messages, purchases, broadcast, notifier)
}

func TestResolveRoomPurchase(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	purchases := new(mocks.PurchaseServiceMock)
	coord := newCoordinator(rooms, new(mocks.MessageRepositoryMock), purchases, new(mocks.BroadcasterMock), nil)

	purchases.On("GetPurchase", mock.Anything, int64(42)).
		Return(grpcclient.Purchase{ID: 42, BuyerID: 3, SellerID: 7, Status: "paid", Price: "1500.00"}, nil).Once()
	purchaseID := int64(42)
	rooms.On("FindOrCreate", mock.Anything, "purchase_42", &purchaseID, []int{3, 7}).
		Return(models.Room{ID: 5, Name: "purchase_42", PurchaseID: &purchaseID}, nil).Once()

	room, purchase, err := coord.ResolveRoom(context.Background(), delivery.PurchaseKey(42), 3)
	require.NoError(t, err)
	assert.Equal(t, 5, room.ID)
	require.NotNil(t, purchase)
	assert.Equal(t, "1500.00", purchase.Price)

	rooms.AssertExpectations(t)
	purchases.AssertExpectations(t)
}

func TestResolveRoomPurchaseNotFound(t *testing.T) {
	purchases := new(mocks.PurchaseServiceMock)
	coord := newCoordinator(new(mocks.RoomRepositoryMock), new(mocks.MessageRepositoryMock), purchases, new(mocks.BroadcasterMock), nil)

	purchases.On("GetPurchase", mock.Anything, int64(99)).
		Return(grpcclient.Purchase{}, grpcclient.ErrPurchaseNotFound).Once()

	_, _, err := coord.ResolveRoom(context.Background(), delivery.PurchaseKey(99), 3)
	assert.ErrorIs(t, err, delivery.ErrConversationNotFound)
	purchases.AssertExpectations(t)
}

func TestResolveRoomRejectsOutsider(t *testing.T) {
	purchases := new(mocks.PurchaseServiceMock)
	coord := newCoordinator(new(mocks.RoomRepositoryMock), new(mocks.MessageRepositoryMock), purchases, new(mocks.BroadcasterMock), nil)

	purchases.On("GetPurchase", mock.Anything, int64(42)).
		Return(grpcclient.Purchase{ID: 42, BuyerID: 3, SellerID: 7}, nil).Once()

	_, _, err := coord.ResolveRoom(context.Background(), delivery.PurchaseKey(42), 9)
	assert.ErrorIs(t, err, delivery.ErrNotParticipant)

	_, _, err = coord.ResolveRoom(context.Background(), delivery.DirectKey(3, 7), 9)
	assert.ErrorIs(t, err, delivery.ErrNotParticipant)
}

func TestSendPersistsAndBroadcasts(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	broadcast := new(mocks.BroadcasterMock)
	notifier := new(mocks.PublisherMock)
	coord := newCoordinator(rooms, messages, new(mocks.PurchaseServiceMock), broadcast, notifier)

	receiver := 7
	rooms.On("GetRoom", mock.Anything, 5).Return(models.Room{ID: 5, Name: "direct_3_7"}, nil).Once()
	rooms.On("IsParticipant", mock.Anything, 5, 3).Return(true, nil).Once()
	rooms.On("Participants", mock.Anything, 5).Return([]int{3, 7}, nil).Once()
	messages.On("CreateMessage", mock.Anything, mock.MatchedBy(func(p repositories.CreateMessageParams) bool {
		return p.RoomID == 5 && p.SenderID == 3 && p.ClientMessageID == "abc" && p.Content == "hi"
	})).Return(models.Message{ID: 42, RoomID: 5, SenderID: 3, ReceiverID: &receiver, ClientMessageID: "abc", Content: "hi"}, true, nil).Once()
	rooms.On("UnhideRoomForUser", mock.Anything, 5, 3).Return(nil).Once()
	rooms.On("UnhideRoomForUser", mock.Anything, 5, 7).Return(nil).Once()
	broadcast.On("BroadcastMessage", 5, mock.MatchedBy(func(p models.MessagePayload) bool {
		return p.ID == 42 && p.ClientMessageID == "abc"
	})).Once()
	notifier.On("Publish", mock.Anything, "notify.message", mock.Anything).Return(nil).Once()

	msg, err := coord.Send(context.Background(), delivery.SendRequest{
		RoomID:          5,
		SenderID:        3,
		ReceiverID:      &receiver,
		Content:         "hi",
		ClientMessageID: "abc",
		Channel:         "transport",
	})
	require.NoError(t, err)
	assert.Equal(t, 42, msg.ID)

	rooms.AssertExpectations(t)
	messages.AssertExpectations(t)
	broadcast.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

// A duplicate correlation id returns the original row and must not
// broadcast or notify a second time.
func TestSendDuplicateCorrelationID(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	broadcast := new(mocks.BroadcasterMock)
	notifier := new(mocks.PublisherMock)
	coord := newCoordinator(rooms, messages, new(mocks.PurchaseServiceMock), broadcast, notifier)

	receiver := 7
	rooms.On("GetRoom", mock.Anything, 5).Return(models.Room{ID: 5, Name: "direct_3_7"}, nil).Once()
	rooms.On("IsParticipant", mock.Anything, 5, 3).Return(true, nil).Once()
	rooms.On("Participants", mock.Anything, 5).Return([]int{3, 7}, nil).Once()
	messages.On("CreateMessage", mock.Anything, mock.Anything).
		Return(models.Message{ID: 42, RoomID: 5, SenderID: 3, ReceiverID: &receiver, ClientMessageID: "abc", Content: "hi"}, false, nil).Once()

	msg, err := coord.Send(context.Background(), delivery.SendRequest{
		RoomID:          5,
		SenderID:        3,
		ReceiverID:      &receiver,
		Content:         "hi",
		ClientMessageID: "abc",
		Channel:         "fallback",
	})
	require.NoError(t, err)
	assert.Equal(t, 42, msg.ID)

	broadcast.AssertNotCalled(t, "BroadcastMessage", mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	rooms.AssertNotCalled(t, "UnhideRoomForUser", mock.Anything, mock.Anything, mock.Anything)
	messages.AssertExpectations(t)
}

func TestSendRejectsEmptyContent(t *testing.T) {
	coord := newCoordinator(new(mocks.RoomRepositoryMock), new(mocks.MessageRepositoryMock), new(mocks.PurchaseServiceMock), new(mocks.BroadcasterMock), nil)

	_, err := coord.Send(context.Background(), delivery.SendRequest{RoomID: 5, SenderID: 3})
	assert.ErrorIs(t, err, delivery.ErrEmptyContent)
}

func TestSendMintsCorrelationID(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	broadcast := new(mocks.BroadcasterMock)
	coord := newCoordinator(rooms, messages, new(mocks.PurchaseServiceMock), broadcast, nil)

	rooms.On("GetRoom", mock.Anything, 5).Return(models.Room{ID: 5, Name: "direct_3_7"}, nil).Once()
	rooms.On("IsParticipant", mock.Anything, 5, 3).Return(true, nil).Once()
	rooms.On("Participants", mock.Anything, 5).Return([]int{3, 7}, nil).Once()
	messages.On("CreateMessage", mock.Anything, mock.MatchedBy(func(p repositories.CreateMessageParams) bool {
		return p.ClientMessageID != ""
	})).Return(models.Message{ID: 43, RoomID: 5, SenderID: 3, Content: "hi"}, true, nil).Once()
	rooms.On("UnhideRoomForUser", mock.Anything, 5, mock.Anything).Return(nil).Twice()
	broadcast.On("BroadcastMessage", 5, mock.Anything).Once()

	_, err := coord.Send(context.Background(), delivery.SendRequest{RoomID: 5, SenderID: 3, Content: "hi"})
	require.NoError(t, err)
	messages.AssertExpectations(t)
}

// An explicit receiver must be a room participant; a send addressed
// past the conversation never reaches the store.
func TestSendRejectsOutsideReceiver(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	coord := newCoordinator(rooms, messages, new(mocks.PurchaseServiceMock), new(mocks.BroadcasterMock), nil)

	outsider := 9
	rooms.On("GetRoom", mock.Anything, 5).Return(models.Room{ID: 5, Name: "direct_3_7"}, nil).Once()
	rooms.On("IsParticipant", mock.Anything, 5, 3).Return(true, nil).Once()
	rooms.On("Participants", mock.Anything, 5).Return([]int{3, 7}, nil).Once()

	_, err := coord.Send(context.Background(), delivery.SendRequest{
		RoomID:          5,
		SenderID:        3,
		ReceiverID:      &outsider,
		Content:         "hi",
		ClientMessageID: "abc",
		Channel:         "transport",
	})
	assert.ErrorIs(t, err, delivery.ErrNotParticipant)
	messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

// Concurrent first access to one conversation converges on a single
// room. The repository swallows the creation race internally, so both
// resolvers see the same row.
func TestResolveRoomConcurrentFirstAccess(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	coord := newCoordinator(rooms, new(mocks.MessageRepositoryMock), new(mocks.PurchaseServiceMock), new(mocks.BroadcasterMock), nil)

	rooms.On("FindOrCreate", mock.Anything, "direct_3_7", (*int64)(nil), []int{3, 7}).
		Return(models.Room{ID: 5, Name: "direct_3_7"}, nil).Twice()

	var wg sync.WaitGroup
	results := make([]models.Room, 2)
	errs := make([]error, 2)
	for i, caller := range []int{3, 7} {
		wg.Add(1)
		go func(i, caller int) {
			defer wg.Done()
			results[i], _, errs[i] = coord.ResolveRoom(context.Background(), delivery.DirectKey(3, 7), caller)
		}(i, caller)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, results[0].ID, results[1].ID)
	rooms.AssertExpectations(t)
}

// Marking read twice flips each message once: the second call finds
// nothing unread and emits no receipt.
func TestMarkReadIdempotent(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	broadcast := new(mocks.BroadcasterMock)
	coord := newCoordinator(rooms, messages, new(mocks.PurchaseServiceMock), broadcast, nil)

	rooms.On("GetRoom", mock.Anything, 5).Return(models.Room{ID: 5, Name: "direct_3_7"}, nil).Twice()
	rooms.On("IsParticipant", mock.Anything, 5, 7).Return(true, nil).Twice()
	messages.On("MarkRoomRead", mock.Anything, 5, 7).Return([]int{11, 12}, nil).Once()
	messages.On("MarkRoomRead", mock.Anything, 5, 7).Return([]int{}, nil).Once()
	broadcast.On("BroadcastReadReceipt", 5, models.ReadReceiptPayload{
		RoomID: 5, ReaderID: 7, MessageIDs: []int{11, 12},
	}).Once()

	ids, err := coord.MarkRead(context.Background(), delivery.MarkReadRequest{RoomID: 5, ReaderID: 7})
	require.NoError(t, err)
	assert.Equal(t, []int{11, 12}, ids)

	ids, err = coord.MarkRead(context.Background(), delivery.MarkReadRequest{RoomID: 5, ReaderID: 7})
	require.NoError(t, err)
	assert.Empty(t, ids)

	broadcast.AssertNumberOfCalls(t, "BroadcastReadReceipt", 1)
	messages.AssertExpectations(t)
}

func TestMarkReadRejectsNonParticipant(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	coord := newCoordinator(rooms, new(mocks.MessageRepositoryMock), new(mocks.PurchaseServiceMock), new(mocks.BroadcasterMock), nil)

	rooms.On("GetRoom", mock.Anything, 5).Return(models.Room{ID: 5, Name: "direct_3_7"}, nil).Once()
	rooms.On("IsParticipant", mock.Anything, 5, 9).Return(false, nil).Once()

	_, err := coord.MarkRead(context.Background(), delivery.MarkReadRequest{RoomID: 5, ReaderID: 9})
	assert.ErrorIs(t, err, delivery.ErrNotParticipant)
}

// A mark-read against a room id that does not exist is not-found, not
// forbidden; membership is only judged for rooms that are real.
func TestMarkReadRoomNotFound(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	coord := newCoordinator(rooms, new(mocks.MessageRepositoryMock), new(mocks.PurchaseServiceMock), new(mocks.BroadcasterMock), nil)

	rooms.On("GetRoom", mock.Anything, 99).Return(models.Room{}, repositories.ErrRoomNotFound).Once()

	_, err := coord.MarkRead(context.Background(), delivery.MarkReadRequest{RoomID: 99, ReaderID: 7})
	assert.ErrorIs(t, err, repositories.ErrRoomNotFound)
}

// Reading never creates rooms: a receipt keyed to a conversation that
// was never opened resolves to not-found.
func TestMarkReadByKeyRequiresExistingRoom(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	coord := newCoordinator(rooms, new(mocks.MessageRepositoryMock), new(mocks.PurchaseServiceMock), new(mocks.BroadcasterMock), nil)

	rooms.On("GetByName", mock.Anything, "direct_3_7").Return(models.Room{}, repositories.ErrRoomNotFound).Once()

	_, err := coord.MarkRead(context.Background(), delivery.MarkReadRequest{Key: delivery.DirectKey(3, 7), ReaderID: 7})
	assert.ErrorIs(t, err, repositories.ErrRoomNotFound)
	rooms.AssertExpectations(t)
}

// A single-message receipt is scoped to its room; a message id that
// lives elsewhere cannot be flipped through this room.
func TestMarkReadMessageFromOtherRoom(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	coord := newCoordinator(rooms, messages, new(mocks.PurchaseServiceMock), new(mocks.BroadcasterMock), nil)

	rooms.On("GetRoom", mock.Anything, 5).Return(models.Room{ID: 5, Name: "direct_3_7"}, nil).Once()
	rooms.On("IsParticipant", mock.Anything, 5, 7).Return(true, nil).Once()
	messages.On("GetMessage", mock.Anything, 88).Return(models.Message{ID: 88, RoomID: 6}, nil).Once()

	_, err := coord.MarkRead(context.Background(), delivery.MarkReadRequest{RoomID: 5, ReaderID: 7, MessageID: 88})
	assert.ErrorIs(t, err, repositories.ErrMessageNotFound)
	messages.AssertNotCalled(t, "MarkMessageRead", mock.Anything, mock.Anything, mock.Anything)
}
