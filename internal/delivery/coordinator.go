package delivery

import (
	"context"
	"errors"
	"log"
	"strconv"

	"github.com/google/uuid"

	grpcclient "ticket-chat-service/internal/grpc"
	"ticket-chat-service/internal/models"
	"ticket-chat-service/internal/observability"
	"ticket-chat-service/internal/rabbitmq"
	"ticket-chat-service/internal/repositories"
)

var (
	// ErrConversationNotFound means the conversation key references a
	// purchase that does not exist.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrNotParticipant means the caller is not a member of the
	// conversation.
	ErrNotParticipant = errors.New("not a conversation participant")
	// ErrEmptyContent rejects blank sends before they reach the store.
	ErrEmptyContent = errors.New("message content is empty")
)

// PurchaseService is the slice of the purchase collaborator the
// coordinator needs.
type PurchaseService interface {
	GetPurchase(ctx context.Context, purchaseID int64) (grpcclient.Purchase, error)
}

// Broadcaster fans persisted messages out to connected room members.
// The websocket hub implements it; the coordinator never holds room
// state of its own.
type Broadcaster interface {
	BroadcastMessage(roomID int, payload models.MessagePayload)
	BroadcastReadReceipt(roomID int, payload models.ReadReceiptPayload)
}

// Coordinator is the single write path for chat. Both the websocket
// session and the fallback HTTP handlers delegate here, so room
// resolution and message persistence behave identically on either
// channel.
type Coordinator struct {
	rooms     repositories.RoomRepository
	messages  repositories.MessageRepository
	purchases PurchaseService
	broadcast Broadcaster
	notifier  rabbitmq.Publisher
}

// NewCoordinator wires the coordinator.
func NewCoordinator(
	rooms repositories.RoomRepository,
	messages repositories.MessageRepository,
	purchases PurchaseService,
	broadcast Broadcaster,
	notifier rabbitmq.Publisher,
) *Coordinator {
	return &Coordinator{
		rooms:     rooms,
		messages:  messages,
		purchases: purchases,
		broadcast: broadcast,
		notifier:  notifier,
	}
}

// ResolveRoom finds or creates the room for a conversation key and
// verifies the caller belongs to it. For purchase keys the purchase
// record is fetched to seed buyer and seller as participants; the
// returned purchase is nil for direct keys.
func (c *Coordinator) ResolveRoom(ctx context.Context, key ConversationKey, callerID int) (models.Room, *grpcclient.Purchase, error) {
	if key.IsPurchase() {
		purchase, err := c.purchases.GetPurchase(ctx, key.PurchaseID)
		if err != nil {
			if errors.Is(err, grpcclient.ErrPurchaseNotFound) {
				return models.Room{}, nil, ErrConversationNotFound
			}
			return models.Room{}, nil, err
		}
		if !purchase.Involves(callerID) {
			return models.Room{}, nil, ErrNotParticipant
		}
		purchaseID := purchase.ID
		room, err := c.rooms.FindOrCreate(ctx, key.RoomName(), &purchaseID, []int{purchase.BuyerID, purchase.SellerID})
		if err != nil {
			return models.Room{}, nil, err
		}
		return room, &purchase, nil
	}

	low, high := key.Users()
	if callerID != low && callerID != high {
		return models.Room{}, nil, ErrNotParticipant
	}
	room, err := c.rooms.FindOrCreate(ctx, key.RoomName(), nil, []int{low, high})
	if err != nil {
		return models.Room{}, nil, err
	}
	return room, nil, nil
}

// History resolves the room for the key (creating it lazily, so a
// first GET on a fresh purchase yields an empty list rather than a
// 404) and returns its messages in creation order.
func (c *Coordinator) History(ctx context.Context, key ConversationKey, callerID int) (models.Room, []models.Message, *grpcclient.Purchase, error) {
	room, purchase, err := c.ResolveRoom(ctx, key, callerID)
	if err != nil {
		return models.Room{}, nil, nil, err
	}
	msgs, err := c.messages.ListRoomMessages(ctx, room.ID)
	if err != nil {
		return models.Room{}, nil, nil, err
	}
	return room, msgs, purchase, nil
}

// SendRequest describes one logical send. Either RoomID (an already
// resolved room) or Key must be set. Channel labels metrics only.
type SendRequest struct {
	Key             ConversationKey
	RoomID          int
	SenderID        int
	ReceiverID      *int
	Content         string
	ClientMessageID string
	Channel         string
}

// Send persists the message at most once per (room, correlation id)
// and fans it out. A duplicate correlation id returns the original
// row without broadcasting or notifying again, so a transport send
// that acks late and its fallback retry collapse into one message.
func (c *Coordinator) Send(ctx context.Context, req SendRequest) (models.Message, error) {
	if req.Content == "" {
		return models.Message{}, ErrEmptyContent
	}
	if req.ClientMessageID == "" {
		// Fallback clients may omit the correlation id; mint one so
		// the store-layer uniqueness still holds.
		req.ClientMessageID = uuid.NewString()
	}

	room, receiverID, err := c.resolveSendTarget(ctx, req)
	if err != nil {
		return models.Message{}, err
	}

	msg, created, err := c.messages.CreateMessage(ctx, repositories.CreateMessageParams{
		RoomID:          room.ID,
		SenderID:        req.SenderID,
		ReceiverID:      receiverID,
		PurchaseID:      room.PurchaseID,
		ClientMessageID: req.ClientMessageID,
		Content:         req.Content,
	})
	if err != nil {
		return models.Message{}, err
	}
	if !created {
		observability.IncDeliveryDedup(req.Channel)
		return msg, nil
	}
	observability.IncMessagePersisted(req.Channel)

	// A new message resurfaces the room for anyone who left it.
	c.unhideForParticipants(ctx, room.ID, req.SenderID, receiverID)

	c.broadcast.BroadcastMessage(room.ID, models.NewMessagePayload(msg))
	c.notifyReceiver(ctx, room, msg)
	return msg, nil
}

// MarkReadRequest targets either a room id or a conversation key.
type MarkReadRequest struct {
	RoomID    int
	Key       ConversationKey
	ReaderID  int
	MessageID int
}

// MarkRead flips unread messages addressed to the reader and emits a
// read receipt when anything changed. Repeating the call is a no-op.
// Reading never creates rooms, so a receipt for a conversation that
// has no room yet, or for a room id that does not exist, is not-found
// rather than forbidden.
func (c *Coordinator) MarkRead(ctx context.Context, req MarkReadRequest) ([]int, error) {
	roomID := req.RoomID
	if roomID == 0 {
		room, err := c.rooms.GetByName(ctx, req.Key.RoomName())
		if err != nil {
			return nil, err
		}
		roomID = room.ID
	} else if _, err := c.rooms.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}

	member, err := c.rooms.IsParticipant(ctx, roomID, req.ReaderID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotParticipant
	}

	var ids []int
	if req.MessageID != 0 {
		msg, err := c.messages.GetMessage(ctx, req.MessageID)
		if err != nil {
			return nil, err
		}
		if msg.RoomID != roomID {
			return nil, repositories.ErrMessageNotFound
		}
		ids, err = c.messages.MarkMessageRead(ctx, req.MessageID, req.ReaderID)
		if err != nil {
			return nil, err
		}
	} else {
		ids, err = c.messages.MarkRoomRead(ctx, roomID, req.ReaderID)
		if err != nil {
			return nil, err
		}
	}

	if len(ids) > 0 {
		c.broadcast.BroadcastReadReceipt(roomID, models.ReadReceiptPayload{
			RoomID:     roomID,
			ReaderID:   req.ReaderID,
			MessageIDs: ids,
		})
	}
	return ids, nil
}

func (c *Coordinator) resolveSendTarget(ctx context.Context, req SendRequest) (models.Room, *int, error) {
	if req.RoomID != 0 {
		room, err := c.rooms.GetRoom(ctx, req.RoomID)
		if err != nil {
			return models.Room{}, nil, err
		}
		member, err := c.rooms.IsParticipant(ctx, room.ID, req.SenderID)
		if err != nil {
			return models.Room{}, nil, err
		}
		if !member {
			return models.Room{}, nil, ErrNotParticipant
		}
		receiver, err := c.roomReceiver(ctx, room.ID, req.SenderID, req.ReceiverID)
		if err != nil {
			return models.Room{}, nil, err
		}
		return room, receiver, nil
	}

	room, purchase, err := c.ResolveRoom(ctx, req.Key, req.SenderID)
	if err != nil {
		return models.Room{}, nil, err
	}
	receiver := req.ReceiverID
	if purchase != nil {
		if receiver != nil && !purchase.Involves(*receiver) {
			return models.Room{}, nil, ErrNotParticipant
		}
		if receiver == nil {
			if other, ok := purchase.CounterpartOf(req.SenderID); ok {
				receiver = &other
			}
		}
		return room, receiver, nil
	}

	low, high := req.Key.Users()
	if receiver != nil && *receiver != low && *receiver != high {
		return models.Room{}, nil, ErrNotParticipant
	}
	if receiver == nil && low != 0 {
		other := low
		if req.SenderID == low {
			other = high
		}
		receiver = &other
	}
	return room, receiver, nil
}

// roomReceiver derives or verifies the receiver against the room's
// participant set. A caller-supplied receiver outside the room is
// rejected so a message can never be addressed past the conversation.
// Receiver stays nil when the participant set has not been backfilled
// yet.
func (c *Coordinator) roomReceiver(ctx context.Context, roomID int, senderID int, requested *int) (*int, error) {
	participants, err := c.rooms.Participants(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if requested != nil {
		for _, id := range participants {
			if id == *requested {
				return requested, nil
			}
		}
		return nil, ErrNotParticipant
	}
	for _, id := range participants {
		if id != senderID {
			other := id
			return &other, nil
		}
	}
	return nil, nil
}

func (c *Coordinator) unhideForParticipants(ctx context.Context, roomID int, senderID int, receiverID *int) {
	if err := c.rooms.UnhideRoomForUser(ctx, roomID, senderID); err != nil {
		log.Printf("unhide room %d for sender %d: %v", roomID, senderID, err)
	}
	if receiverID != nil {
		if err := c.rooms.UnhideRoomForUser(ctx, roomID, *receiverID); err != nil {
			log.Printf("unhide room %d for receiver %d: %v", roomID, *receiverID, err)
		}
	}
}

// notifyReceiver raises a fire-and-forget notification event. Chat
// delivery never fails on a broken broker.
func (c *Coordinator) notifyReceiver(ctx context.Context, room models.Room, msg models.Message) {
	if c.notifier == nil || msg.ReceiverID == nil {
		return
	}
	event := map[string]interface{}{
		"event_type":  "chat_message",
		"room_id":     room.ID,
		"room_name":   room.Name,
		"message_id":  msg.ID,
		"sender_id":   msg.SenderID,
		"receiver_id": *msg.ReceiverID,
	}
	if room.PurchaseID != nil {
		event["purchase_id"] = strconv.FormatInt(*room.PurchaseID, 10)
	}
	if err := c.notifier.Publish(ctx, "notify.message", event); err != nil {
		log.Printf("notification publish failed: %v", err)
	}
}
