package delivery

import (
	"fmt"
	"strconv"
	"strings"
)

// Key kinds. A conversation is scoped either to a purchase or to an
// unordered pair of users.
const (
	KindPurchase = "purchase"
	KindDirect   = "direct"
)

// ConversationKey identifies a logical conversation. Its room name is
// deterministic: both sides derive the same name independently, which
// is what makes lazy room creation race-safe.
type ConversationKey struct {
	Kind       string
	PurchaseID int64
	UserLow    int
	UserHigh   int
}

// PurchaseKey scopes a conversation to a purchase.
func PurchaseKey(purchaseID int64) ConversationKey {
	return ConversationKey{Kind: KindPurchase, PurchaseID: purchaseID}
}

// DirectKey scopes a conversation to a user pair. Order of arguments
// is irrelevant; ids are stored ascending.
func DirectKey(a, b int) ConversationKey {
	if a > b {
		a, b = b, a
	}
	return ConversationKey{Kind: KindDirect, UserLow: a, UserHigh: b}
}

// ParseKey parses a room name back into its conversation key.
func ParseKey(name string) (ConversationKey, error) {
	switch {
	case strings.HasPrefix(name, "purchase_"):
		id, err := strconv.ParseInt(strings.TrimPrefix(name, "purchase_"), 10, 64)
		if err != nil || id <= 0 {
			return ConversationKey{}, fmt.Errorf("invalid purchase key %q", name)
		}
		return PurchaseKey(id), nil
	case strings.HasPrefix(name, "direct_"):
		parts := strings.Split(strings.TrimPrefix(name, "direct_"), "_")
		if len(parts) != 2 {
			return ConversationKey{}, fmt.Errorf("invalid direct key %q", name)
		}
		low, err1 := strconv.Atoi(parts[0])
		high, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil || low <= 0 || high <= 0 || low > high {
			return ConversationKey{}, fmt.Errorf("invalid direct key %q", name)
		}
		return DirectKey(low, high), nil
	default:
		return ConversationKey{}, fmt.Errorf("unknown conversation key %q", name)
	}
}

// RoomName derives the deterministic room name for the key.
func (k ConversationKey) RoomName() string {
	if k.Kind == KindPurchase {
		return fmt.Sprintf("purchase_%d", k.PurchaseID)
	}
	return fmt.Sprintf("direct_%d_%d", k.UserLow, k.UserHigh)
}

// IsPurchase reports whether the key is purchase-scoped.
func (k ConversationKey) IsPurchase() bool {
	return k.Kind == KindPurchase
}

// IsZero reports whether the key is unset.
func (k ConversationKey) IsZero() bool {
	return k.Kind == ""
}

// Users returns the direct pair, ascending.
func (k ConversationKey) Users() (int, int) {
	return k.UserLow, k.UserHigh
}
