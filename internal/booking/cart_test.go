package booking

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qdclab/booking-api/internal/pricing"
)

func TestCartAddPreservesInsertionOrder(t *testing.T) {
	var cart Cart
	items := []LineItem{
		{ID: 1, Name: "CBC", Price: 500},
		{ID: 2, Name: "X-Ray", Price: 1200},
		{ID: 3, Name: "Lipid Profile", Price: 900},
	}
	for _, item := range items {
		require.NoError(t, cart.Add(item))
	}
	got := cart.Items()
	require.Len(t, got, len(items))
	for i, item := range items {
		require.Equal(t, item, got[i])
	}
}

func TestCartRejectsDuplicateID(t *testing.T) {
	var cart Cart
	require.NoError(t, cart.Add(LineItem{ID: 1, Name: "CBC", Price: 500}))
	// same id, different name and price: still a duplicate
	err := cart.Add(LineItem{ID: 1, Name: "Renamed", Price: 999})
	require.ErrorIs(t, err, ErrDuplicateItem)
	require.Equal(t, 1, cart.Len())
	require.EqualValues(t, 500, cart.Items()[0].Price)
}

func TestCartRemoveShiftsDown(t *testing.T) {
	var cart Cart
	for id := int64(1); id <= 3; id++ {
		require.NoError(t, cart.Add(LineItem{ID: id, Price: pricing.Money(id * 100)}))
	}
	require.NoError(t, cart.Remove(0))
	got := cart.Items()
	require.EqualValues(t, 2, got[0].ID)
	require.EqualValues(t, 3, got[1].ID)

	require.ErrorIs(t, cart.Remove(5), ErrIndexOutOfRange)
	require.ErrorIs(t, cart.Remove(-1), ErrIndexOutOfRange)

	require.NoError(t, cart.Remove(1))
	require.NoError(t, cart.Remove(0))
	require.True(t, cart.IsEmpty())
}

func TestCartProjections(t *testing.T) {
	var cart Cart
	require.NoError(t, cart.Add(LineItem{ID: 7, Name: "CBC", Price: 500}))
	require.NoError(t, cart.Add(LineItem{ID: 9, Name: "X-Ray", Price: 1200}))

	require.Equal(t, []int64{7, 9}, cart.TestIDs())
	require.EqualValues(t, 1700, pricing.Subtotal(cart.PricingItems()))

	// Items returns a copy; mutating it must not touch the cart.
	snapshot := cart.Items()
	snapshot[0].Price = 1
	require.EqualValues(t, 500, cart.Items()[0].Price)
}
