package delivery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectKeyOrderInvariant(t *testing.T) {
	a := DirectKey(3, 7)
	b := DirectKey(7, 3)

	assert.Equal(t, a, b)
	assert.Equal(t, "direct_3_7", a.RoomName())
	assert.Equal(t, "direct_3_7", b.RoomName())
}

func TestPurchaseKeyName(t *testing.T) {
	key := PurchaseKey(9007199254740993)
	assert.Equal(t, "purchase_9007199254740993", key.RoomName())
	assert.True(t, key.IsPurchase())
}

func TestParseKeyRoundTrip(t *testing.T) {
	for _, name := range []string{"purchase_42", "direct_1_2", "direct_5_5"} {
		key, err := ParseKey(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, key.RoomName())
	}
}

func TestParseKeyRejectsMalformed(t *testing.T) {
	for _, name := range []string{
		"",
		"purchase_",
		"purchase_abc",
		"purchase_0",
		"direct_7_3",
		"direct_0_1",
		"direct_1",
		"group_1_2",
	} {
		_, err := ParseKey(name)
		assert.Error(t, err, name)
	}
}

func TestKeyUsers(t *testing.T) {
	low, high := DirectKey(9, 4).Users()
	assert.Equal(t, 4, low)
	assert.Equal(t, 9, high)
}
