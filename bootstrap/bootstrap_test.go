package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/ruteri/vault-autounseal/interfaces"
	"github.com/ruteri/vault-autounseal/storage"
	"github.com/ruteri/vault-autounseal/vaultclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func initResult() *interfaces.InitResult {
	return &interfaces.InitResult{
		Shares:    []string{"share-1", "share-2", "share-3", "share-4", "share-5"},
		RootToken: "hvs.root",
	}
}

func TestBootstrapWritesAllObjects(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore(testLogger())

	vault := new(vaultclient.MockSealControl)
	vault.On("Initialize", mock.Anything, interfaces.InitParams{SecretShares: 5, SecretThreshold: 3}).
		Return(initResult(), nil)

	b := New(vault, store, Config{}, testLogger())
	require.NoError(t, b.Bootstrap(ctx))

	for i := 1; i <= 5; i++ {
		data, err := store.Fetch(ctx, interfaces.ShareKey(i))
		require.NoError(t, err)
		assert.Equal(t, []byte(fmt.Sprintf("share-%d", i)), data)
	}

	token, err := store.Fetch(ctx, interfaces.RootTokenKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("hvs.root"), token)

	vault.AssertExpectations(t)
}

func TestBootstrapNeverOverwritesExistingShares(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore(testLogger())

	// A previous partially failed run already wrote share 2, and another
	// node may have consumed it since.
	require.NoError(t, store.Store(ctx, interfaces.ShareKey(2), []byte("original-share-2")))

	vault := new(vaultclient.MockSealControl)
	vault.On("Initialize", mock.Anything, mock.Anything).Return(initResult(), nil)

	b := New(vault, store, Config{}, testLogger())
	require.NoError(t, b.Bootstrap(ctx))

	data, err := store.Fetch(ctx, interfaces.ShareKey(2))
	require.NoError(t, err)
	assert.Equal(t, []byte("original-share-2"), data)

	data, err = store.Fetch(ctx, interfaces.ShareKey(1))
	require.NoError(t, err)
	assert.Equal(t, []byte("share-1"), data)
}

func TestBootstrapTwiceLeavesFirstRunsMaterial(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore(testLogger())

	vault := new(vaultclient.MockSealControl)
	vault.On("Initialize", mock.Anything, mock.Anything).Return(initResult(), nil).Once()
	// A second run against a fully populated store; the server handing out
	// fresh material must not displace what other nodes already consume.
	vault.On("Initialize", mock.Anything, mock.Anything).Return(&interfaces.InitResult{
		Shares:    []string{"new-1", "new-2", "new-3", "new-4", "new-5"},
		RootToken: "hvs.other",
	}, nil)

	b := New(vault, store, Config{}, testLogger())
	require.NoError(t, b.Bootstrap(ctx))
	require.NoError(t, b.Bootstrap(ctx))

	for i := 1; i <= 5; i++ {
		data, err := store.Fetch(ctx, interfaces.ShareKey(i))
		require.NoError(t, err)
		assert.Equal(t, []byte(fmt.Sprintf("share-%d", i)), data)
	}

	token, err := store.Fetch(ctx, interfaces.RootTokenKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("hvs.root"), token)
}

func TestBootstrapInitFailureIsFatal(t *testing.T) {
	ctx := context.Background()

	vault := new(vaultclient.MockSealControl)
	vault.On("Initialize", mock.Anything, mock.Anything).
		Return(nil, errors.New("init rejected"))

	store := new(storage.MockObjectStore)

	b := New(vault, store, Config{}, testLogger())
	err := b.Bootstrap(ctx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "initialization failed")
	store.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything)
}

func TestBootstrapShareCountMismatch(t *testing.T) {
	ctx := context.Background()

	vault := new(vaultclient.MockSealControl)
	vault.On("Initialize", mock.Anything, mock.Anything).Return(&interfaces.InitResult{
		Shares:    []string{"only-one"},
		RootToken: "hvs.root",
	}, nil)

	store := new(storage.MockObjectStore)

	b := New(vault, store, Config{}, testLogger())
	err := b.Bootstrap(ctx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 5")
	store.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything)
}

func TestBootstrapPartialWriteFailure(t *testing.T) {
	ctx := context.Background()

	vault := new(vaultclient.MockSealControl)
	vault.On("Initialize", mock.Anything, mock.Anything).Return(initResult(), nil)

	store := new(storage.MockObjectStore)
	for i := 1; i <= 5; i++ {
		store.On("Exists", mock.Anything, interfaces.ShareKey(i)).Return(false, nil)
	}
	store.On("Exists", mock.Anything, interfaces.RootTokenKey).Return(false, nil)

	store.On("Store", mock.Anything, interfaces.ShareKey(2), mock.Anything).Return(errors.New("put timeout"))
	for _, key := range []string{
		interfaces.ShareKey(1), interfaces.ShareKey(3), interfaces.ShareKey(4), interfaces.ShareKey(5),
		interfaces.RootTokenKey,
	} {
		store.On("Store", mock.Anything, key, mock.Anything).Return(nil)
	}

	b := New(vault, store, Config{}, testLogger())
	err := b.Bootstrap(ctx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "share 2")

	// One failed write must not stop the remaining writes.
	store.AssertCalled(t, "Store", mock.Anything, interfaces.ShareKey(5), mock.Anything)
	store.AssertCalled(t, "Store", mock.Anything, interfaces.RootTokenKey, mock.Anything)
}

func TestBootstrapExistsCheckFailureSkipsWrite(t *testing.T) {
	ctx := context.Background()

	vault := new(vaultclient.MockSealControl)
	vault.On("Initialize", mock.Anything, mock.Anything).Return(initResult(), nil)

	store := new(storage.MockObjectStore)
	store.On("Exists", mock.Anything, interfaces.ShareKey(3)).Return(false, errors.New("head timeout"))
	for _, key := range []string{
		interfaces.ShareKey(1), interfaces.ShareKey(2), interfaces.ShareKey(4), interfaces.ShareKey(5),
		interfaces.RootTokenKey,
	} {
		store.On("Exists", mock.Anything, key).Return(false, nil)
		store.On("Store", mock.Anything, key, mock.Anything).Return(nil)
	}

	b := New(vault, store, Config{}, testLogger())
	err := b.Bootstrap(ctx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "share 3")

	// When presence can't be determined, the share must not be written.
	store.AssertNotCalled(t, "Store", mock.Anything, interfaces.ShareKey(3), mock.Anything)
}
