package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ticket-chat-service/internal/delivery"
	grpcclient "ticket-chat-service/internal/grpc"
	"ticket-chat-service/internal/models"
	"ticket-chat-service/internal/repositories"
)

type RoomRepositoryMock struct {
	mock.Mock
}

func (m *RoomRepositoryMock) FindOrCreate(ctx context.Context, name string, purchaseID *int64, participantIDs []int) (models.Room, error) {
	args := m.Called(ctx, name, purchaseID, participantIDs)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) GetRoom(ctx context.Context, roomID int) (models.Room, error) {
	args := m.Called(ctx, roomID)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) GetByName(ctx context.Context, name string) (models.Room, error) {
	args := m.Called(ctx, name)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) IsParticipant(ctx context.Context, roomID int, userID int) (bool, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *RoomRepositoryMock) Participants(ctx context.Context, roomID int) ([]int, error) {
	args := m.Called(ctx, roomID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *RoomRepositoryMock) EnsureParticipants(ctx context.Context, roomID int, userIDs []int) error {
	args := m.Called(ctx, roomID, userIDs)
	return args.Error(0)
}

func (m *RoomRepositoryMock) ListRoomsForUser(ctx context.Context, userID int) ([]models.RoomSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.RoomSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.RoomSummary)
	}
	return list, args.Error(1)
}

func (m *RoomRepositoryMock) HideRoomForUser(ctx context.Context, roomID int, userID int) error {
	args := m.Called(ctx, roomID, userID)
	return args.Error(0)
}

func (m *RoomRepositoryMock) UnhideRoomForUser(ctx context.Context, roomID int, userID int) error {
	args := m.Called(ctx, roomID, userID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, params repositories.CreateMessageParams) (models.Message, bool, error) {
	args := m.Called(ctx, params)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Bool(1), args.Error(2)
}

func (m *MessageRepositoryMock) ListRoomMessages(ctx context.Context, roomID int) ([]models.Message, error) {
	args := m.Called(ctx, roomID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) MarkRoomRead(ctx context.Context, roomID int, receiverID int) ([]int, error) {
	args := m.Called(ctx, roomID, receiverID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *MessageRepositoryMock) MarkMessageRead(ctx context.Context, messageID int, receiverID int) ([]int, error) {
	args := m.Called(ctx, messageID, receiverID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

type TokenValidatorMock struct {
	mock.Mock
}

func (m *TokenValidatorMock) ValidateToken(ctx context.Context, token string) (int, error) {
	args := m.Called(ctx, token)
	return args.Int(0), args.Error(1)
}

type PurchaseServiceMock struct {
	mock.Mock
}

func (m *PurchaseServiceMock) GetPurchase(ctx context.Context, purchaseID int64) (grpcclient.Purchase, error) {
	args := m.Called(ctx, purchaseID)
	var purchase grpcclient.Purchase
	if val := args.Get(0); val != nil {
		purchase = val.(grpcclient.Purchase)
	}
	return purchase, args.Error(1)
}

type BroadcasterMock struct {
	mock.Mock
}

func (m *BroadcasterMock) BroadcastMessage(roomID int, payload models.MessagePayload) {
	m.Called(roomID, payload)
}

func (m *BroadcasterMock) BroadcastReadReceipt(roomID int, payload models.ReadReceiptPayload) {
	m.Called(roomID, payload)
}

type ChatServiceMock struct {
	mock.Mock
}

func (m *ChatServiceMock) History(ctx context.Context, key delivery.ConversationKey, callerID int) (models.Room, []models.Message, *grpcclient.Purchase, error) {
	args := m.Called(ctx, key, callerID)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	var msgs []models.Message
	if val := args.Get(1); val != nil {
		msgs = val.([]models.Message)
	}
	var purchase *grpcclient.Purchase
	if val := args.Get(2); val != nil {
		purchase = val.(*grpcclient.Purchase)
	}
	return room, msgs, purchase, args.Error(3)
}

func (m *ChatServiceMock) Send(ctx context.Context, req delivery.SendRequest) (models.Message, error) {
	args := m.Called(ctx, req)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *ChatServiceMock) MarkRead(ctx context.Context, req delivery.MarkReadRequest) ([]int, error) {
	args := m.Called(ctx, req)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

var _ repositories.RoomRepository = (*RoomRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ delivery.PurchaseService = (*PurchaseServiceMock)(nil)
var _ delivery.Broadcaster = (*BroadcasterMock)(nil)
