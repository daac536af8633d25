package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/ruteri/vault-autounseal/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreRoundTrip(t *testing.T) {
	store := NewMemStore(testLogger())
	ctx := context.Background()

	_, err := store.Fetch(ctx, interfaces.RootTokenKey)
	assert.ErrorIs(t, err, interfaces.ErrObjectNotFound)

	require.NoError(t, store.Store(ctx, interfaces.RootTokenKey, []byte("hvs.token")))

	exists, err := store.Exists(ctx, interfaces.RootTokenKey)
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := store.Fetch(ctx, interfaces.RootTokenKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("hvs.token"), data)

	require.NoError(t, store.Delete(ctx, interfaces.RootTokenKey))

	exists, err = store.Exists(ctx, interfaces.RootTokenKey)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemStoreCopiesData(t *testing.T) {
	store := NewMemStore(testLogger())
	ctx := context.Background()

	original := []byte("share-data")
	require.NoError(t, store.Store(ctx, interfaces.ShareKey(1), original))

	// Mutating the caller's slice must not affect the stored object.
	original[0] = 'X'

	data, err := store.Fetch(ctx, interfaces.ShareKey(1))
	require.NoError(t, err)
	assert.Equal(t, []byte("share-data"), data)

	// Mutating a fetched slice must not affect later fetches.
	data[0] = 'Y'

	again, err := store.Fetch(ctx, interfaces.ShareKey(1))
	require.NoError(t, err)
	assert.Equal(t, []byte("share-data"), again)
}

func TestMemStoreConcurrentAccess(t *testing.T) {
	store := NewMemStore(testLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i%5)
			_ = store.Store(ctx, key, []byte(fmt.Sprintf("writer-%d", i)))
			_, _ = store.Fetch(ctx, key)
			_, _ = store.Exists(ctx, key)
		}(i)
	}
	wg.Wait()

	assert.True(t, store.Available(ctx))
}
