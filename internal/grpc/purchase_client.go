package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	purchasepb "ticket-chat-service/pb/purchase"
)

var ErrPurchaseNotFound = errors.New("purchase not found")

// Purchase is the chat-facing view of a marketplace purchase. Price
// stays a decimal string; the chat service never does arithmetic on it.
type Purchase struct {
	ID          int64
	BuyerID     int
	SellerID    int
	Status      string
	Price       string
	TicketTitle string
}

// CounterpartOf returns the other side of the transaction, or false
// when the user is neither buyer nor seller.
func (p Purchase) CounterpartOf(userID int) (int, bool) {
	switch userID {
	case p.BuyerID:
		return p.SellerID, true
	case p.SellerID:
		return p.BuyerID, true
	default:
		return 0, false
	}
}

// Involves reports whether the user is a party to the purchase.
func (p Purchase) Involves(userID int) bool {
	return userID == p.BuyerID || userID == p.SellerID
}

// PurchaseClient wraps the purchase-service gRPC client.
type PurchaseClient struct {
	client purchasepb.PurchaseServiceClient
}

// NewPurchaseClient constructs the wrapper.
func NewPurchaseClient(client purchasepb.PurchaseServiceClient) *PurchaseClient {
	return &PurchaseClient{client: client}
}

// GetPurchase fetches a purchase record. A missing purchase maps to
// ErrPurchaseNotFound so callers can distinguish it from transport
// failures.
func (p *PurchaseClient) GetPurchase(ctx context.Context, purchaseID int64) (Purchase, error) {
	resp, err := p.client.GetPurchase(ctx, &purchasepb.GetPurchaseRequest{PurchaseId: purchaseID})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Purchase{}, ErrPurchaseNotFound
		}
		return Purchase{}, err
	}
	if resp == nil || resp.Id == 0 {
		return Purchase{}, ErrPurchaseNotFound
	}
	return Purchase{
		ID:          resp.Id,
		BuyerID:     int(resp.BuyerId),
		SellerID:    int(resp.SellerId),
		Status:      resp.Status,
		Price:       resp.Price,
		TicketTitle: resp.TicketTitle,
	}, nil
}
