package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStoreCreateAndGet(t *testing.T) {
	store := NewStore(time.Minute)
	id, flow := store.Create(12)
	require.NotEmpty(t, id)
	require.EqualValues(t, 12, flow.PatientID())

	resolved, err := store.Get(id)
	require.NoError(t, err)
	require.Same(t, flow, resolved)

	_, err = store.Get("missing")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStoreSessionsAreIsolated(t *testing.T) {
	store := NewStore(time.Minute)
	idA, flowA := store.Create(1)
	idB, flowB := store.Create(2)
	require.NotEqual(t, idA, idB)

	_, err := flowA.AddItem(LineItem{ID: 1, Price: 500})
	require.NoError(t, err)
	require.True(t, flowB.Render().Empty, "second session must not see the first session's cart")
}

func TestStoreExpiry(t *testing.T) {
	now := time.Now()
	store := NewStore(10 * time.Minute).WithNow(func() time.Time { return now })
	id, _ := store.Create(12)

	now = now.Add(5 * time.Minute)
	_, err := store.Get(id)
	require.NoError(t, err, "access inside TTL must succeed")

	// the access above extended the TTL
	now = now.Add(9 * time.Minute)
	_, err = store.Get(id)
	require.NoError(t, err)

	now = now.Add(11 * time.Minute)
	_, err = store.Get(id)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStoreCreatePurgesExpired(t *testing.T) {
	now := time.Now()
	store := NewStore(time.Minute).WithNow(func() time.Time { return now })
	store.Create(1)
	store.Create(2)
	require.Equal(t, 2, store.Len())

	now = now.Add(2 * time.Minute)
	store.Create(3)
	require.Equal(t, 1, store.Len())
}

func TestStoreDelete(t *testing.T) {
	store := NewStore(time.Minute)
	id, _ := store.Create(12)
	store.Delete(id)
	_, err := store.Get(id)
	require.ErrorIs(t, err, ErrSessionNotFound)
}
