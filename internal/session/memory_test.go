package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10, time.Hour)
	defer store.Close()

	require.NoError(t, store.Put(ctx, "s-1", "k", []byte("v1"), 0))

	value, ok, err := store.Get(ctx, "s-1", "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v1"), value)

	_, ok, err = store.Get(ctx, "s-2", "k")
	require.NoError(t, err)
	assert.False(t, ok, "sessions are isolated")

	require.NoError(t, store.Delete(ctx, "s-1", "k"))
	require.NoError(t, store.Delete(ctx, "s-1", "k"))

	_, ok, err = store.Get(ctx, "s-1", "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10, time.Hour)

	value := []byte("original")
	require.NoError(t, store.Put(ctx, "s-1", "k", value, 0))
	value[0] = 'X'

	stored, _, _ := store.Get(ctx, "s-1", "k")
	stored[1] = 'Y'

	again, _, _ := store.Get(ctx, "s-1", "k")
	assert.Equal(t, "original", string(again))
}

func TestMemoryStore_PerEntryTTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10, time.Hour)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put(ctx, "s-1", "k", []byte("v"), time.Minute))

	now = now.Add(59 * time.Second)
	_, ok, _ := store.Get(ctx, "s-1", "k")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok, _ = store.Get(ctx, "s-1", "k")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(3, time.Hour)

	for i := 0; i < 4; i++ {
		require.NoError(t, store.Put(ctx, fmt.Sprintf("s-%d", i), ResultKey, []byte("v"), 0))
	}

	assert.Equal(t, 3, store.Len())
	_, ok, _ := store.Get(ctx, "s-0", ResultKey)
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "s-3", ResultKey)
	assert.True(t, ok)
}

func TestMemoryStore_Close(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10, time.Hour)
	require.NoError(t, store.Put(ctx, "s-1", "k", []byte("v"), 0))

	require.NoError(t, store.Close())
	assert.Equal(t, 0, store.Len())
}
