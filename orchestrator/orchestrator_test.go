package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ruteri/vault-autounseal/bootstrap"
	"github.com/ruteri/vault-autounseal/election"
	"github.com/ruteri/vault-autounseal/interfaces"
	"github.com/ruteri/vault-autounseal/procutils"
	"github.com/ruteri/vault-autounseal/storage"
	"github.com/ruteri/vault-autounseal/unseal"
	"github.com/ruteri/vault-autounseal/vaultclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubElector struct {
	outcome election.Outcome
	err     error
	calls   int
}

func (s *stubElector) Campaign(ctx context.Context) (election.Outcome, error) {
	s.calls++
	return s.outcome, s.err
}

type stubBootstrapper struct {
	err   error
	calls int
}

func (s *stubBootstrapper) Bootstrap(ctx context.Context) error {
	s.calls++
	return s.err
}

type stubUnsealer struct {
	err   error
	calls int
}

func (s *stubUnsealer) Unseal(ctx context.Context) error {
	s.calls++
	return s.err
}

// newNodeOrchestrator wires a full orchestrator from real components against
// one mock Vault node and a shared store.
func newNodeOrchestrator(t *testing.T, store interfaces.ObjectStore, nodeURL string, settle time.Duration) *Orchestrator {
	t.Helper()

	client, err := vaultclient.New(vaultclient.Config{Address: nodeURL}, testLogger())
	require.NoError(t, err)

	elector := election.New(store, election.Config{SettleDelay: settle}, testLogger())
	boot := bootstrap.New(client, store, bootstrap.Config{}, testLogger())
	unsealer := unseal.New(client, store, unseal.Config{
		SecretThreshold: 3,
		PollAttempts:    200,
		PollInterval:    10 * time.Millisecond,
	}, testLogger())

	return New(client, nil, elector, boot, unsealer, Config{PollInterval: time.Millisecond}, testLogger())
}

func TestRunAlreadyUnsealedShortCircuits(t *testing.T) {
	vault := new(vaultclient.MockSealControl)
	vault.On("Initialized", mock.Anything).Return(true, nil)
	vault.On("SealStatus", mock.Anything).Return(interfaces.SealState{Sealed: false}, nil)

	elector := &stubElector{}
	boot := &stubBootstrapper{}
	unsealer := &stubUnsealer{}

	o := New(vault, nil, elector, boot, unsealer, Config{PollInterval: time.Millisecond}, testLogger())
	require.NoError(t, o.Run(context.Background()))

	assert.Equal(t, PhaseDone, o.Phase())
	assert.Zero(t, elector.calls)
	assert.Zero(t, boot.calls)
	assert.Zero(t, unsealer.calls)
}

func TestRunWaitsForServerProcess(t *testing.T) {
	checker := new(procutils.MockProcessChecker)
	checker.On("Running", mock.Anything, "vault").Return(false, nil).Twice()
	checker.On("Running", mock.Anything, "vault").Return(true, nil)

	vault := new(vaultclient.MockSealControl)
	vault.On("Initialized", mock.Anything).Return(true, nil)
	vault.On("SealStatus", mock.Anything).Return(interfaces.SealState{Sealed: false}, nil)

	o := New(vault, checker, &stubElector{}, &stubBootstrapper{}, &stubUnsealer{},
		Config{ProcessName: "vault", PollInterval: time.Millisecond}, testLogger())

	require.NoError(t, o.Run(context.Background()))
	checker.AssertNumberOfCalls(t, "Running", 3)
}

func TestRunWaitsForAPIReadiness(t *testing.T) {
	vault := new(vaultclient.MockSealControl)
	vault.On("Initialized", mock.Anything).Return(false, errors.New("connection refused")).Twice()
	vault.On("Initialized", mock.Anything).Return(true, nil)
	vault.On("SealStatus", mock.Anything).Return(interfaces.SealState{Sealed: false}, nil)

	o := New(vault, nil, &stubElector{}, &stubBootstrapper{}, &stubUnsealer{},
		Config{PollInterval: time.Millisecond}, testLogger())

	require.NoError(t, o.Run(context.Background()))
	vault.AssertNumberOfCalls(t, "Initialized", 3)
}

func TestRunElectionLostProceedsToUnseal(t *testing.T) {
	vault := new(vaultclient.MockSealControl)
	vault.On("Initialized", mock.Anything).Return(false, nil)
	vault.On("SealStatus", mock.Anything).Return(interfaces.SealState{Sealed: true}, nil)

	elector := &stubElector{outcome: election.OutcomeLost}
	boot := &stubBootstrapper{}
	unsealer := &stubUnsealer{}

	o := New(vault, nil, elector, boot, unsealer, Config{PollInterval: time.Millisecond}, testLogger())
	require.NoError(t, o.Run(context.Background()))

	assert.Equal(t, 1, elector.calls)
	assert.Zero(t, boot.calls)
	assert.Equal(t, 1, unsealer.calls)
}

func TestRunElectionUndecidedProceedsToUnseal(t *testing.T) {
	vault := new(vaultclient.MockSealControl)
	vault.On("Initialized", mock.Anything).Return(false, nil)
	vault.On("SealStatus", mock.Anything).Return(interfaces.SealState{Sealed: true}, nil)

	// An undecidable election must never lead to bootstrapping.
	elector := &stubElector{outcome: election.OutcomeError, err: errors.New("store is down")}
	boot := &stubBootstrapper{}
	unsealer := &stubUnsealer{}

	o := New(vault, nil, elector, boot, unsealer, Config{PollInterval: time.Millisecond}, testLogger())
	require.NoError(t, o.Run(context.Background()))

	assert.Zero(t, boot.calls)
	assert.Equal(t, 1, unsealer.calls)
}

func TestRunBootstrapFailureIsFatal(t *testing.T) {
	vault := new(vaultclient.MockSealControl)
	vault.On("Initialized", mock.Anything).Return(false, nil)
	vault.On("SealStatus", mock.Anything).Return(interfaces.SealState{Sealed: true}, nil)

	elector := &stubElector{outcome: election.OutcomeWon}
	boot := &stubBootstrapper{err: errors.New("distribution incomplete")}
	unsealer := &stubUnsealer{}

	o := New(vault, nil, elector, boot, unsealer, Config{PollInterval: time.Millisecond}, testLogger())
	err := o.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bootstrap failed")
	assert.Equal(t, PhaseFailed, o.Phase())
	assert.Zero(t, unsealer.calls)
}

func TestRunUnsealFailureIsFatal(t *testing.T) {
	vault := new(vaultclient.MockSealControl)
	vault.On("Initialized", mock.Anything).Return(true, nil)
	vault.On("SealStatus", mock.Anything).Return(interfaces.SealState{Sealed: true}, nil)

	unsealer := &stubUnsealer{err: errors.New("share 3 never appeared")}

	o := New(vault, nil, &stubElector{}, &stubBootstrapper{}, unsealer,
		Config{PollInterval: time.Millisecond}, testLogger())
	err := o.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unseal failed")
	assert.Equal(t, PhaseFailed, o.Phase())
}

func TestRunBoundedProcessWait(t *testing.T) {
	checker := new(procutils.MockProcessChecker)
	checker.On("Running", mock.Anything, "vault").Return(false, nil)

	o := New(new(vaultclient.MockSealControl), checker, &stubElector{}, &stubBootstrapper{}, &stubUnsealer{},
		Config{ProcessName: "vault", PollInterval: time.Millisecond, MaxPollAttempts: 3}, testLogger())

	err := o.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "waiting for server process")
	checker.AssertNumberOfCalls(t, "Running", 3)
}

func TestRunCanceledDuringProcessWait(t *testing.T) {
	checker := new(procutils.MockProcessChecker)
	checker.On("Running", mock.Anything, "vault").Return(false, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	o := New(new(vaultclient.MockSealControl), checker, &stubElector{}, &stubBootstrapper{}, &stubUnsealer{},
		Config{ProcessName: "vault", PollInterval: time.Millisecond}, testLogger())

	err := o.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, PhaseFailed, o.Phase())
}

func TestRunSingleNodeScenario(t *testing.T) {
	ctx := context.Background()

	cluster := vaultclient.NewMockVaultCluster()
	node := cluster.NewServer()
	defer node.Close()

	store := storage.NewMemStore(testLogger())
	o := newNodeOrchestrator(t, store, node.URL(), 20*time.Millisecond)

	require.NoError(t, o.Run(ctx))

	assert.Equal(t, PhaseDone, o.Phase())
	assert.False(t, node.Sealed())
	assert.Equal(t, 1, cluster.InitCalls)

	for i := 1; i <= 5; i++ {
		exists, err := store.Exists(ctx, interfaces.ShareKey(i))
		require.NoError(t, err)
		assert.True(t, exists, "share %d should be in the store", i)
	}

	exists, err := store.Exists(ctx, interfaces.RootTokenKey)
	require.NoError(t, err)
	assert.True(t, exists)

	// The winner cleaned up its election lock.
	exists, err = store.Exists(ctx, interfaces.LockKey)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRunPreInitializedScenario(t *testing.T) {
	ctx := context.Background()

	cluster := vaultclient.NewMockVaultCluster()
	shares, rootToken, err := cluster.Initialize(5, 3)
	require.NoError(t, err)

	node := cluster.NewServer()
	defer node.Close()

	store := storage.NewMemStore(testLogger())
	for i, share := range shares {
		require.NoError(t, store.Store(ctx, interfaces.ShareKey(i+1), []byte(share)))
	}
	require.NoError(t, store.Store(ctx, interfaces.RootTokenKey, []byte(rootToken)))

	client, err := vaultclient.New(vaultclient.Config{Address: node.URL()}, testLogger())
	require.NoError(t, err)

	elector := &stubElector{}
	boot := &stubBootstrapper{}
	unsealer := unseal.New(client, store, unseal.Config{
		SecretThreshold: 3,
		PollAttempts:    3,
		PollInterval:    time.Millisecond,
	}, testLogger())

	o := New(client, nil, elector, boot, unsealer, Config{PollInterval: time.Millisecond}, testLogger())
	require.NoError(t, o.Run(ctx))

	assert.False(t, node.Sealed())
	assert.Zero(t, elector.calls)
	assert.Zero(t, boot.calls)
	assert.Equal(t, 1, cluster.InitCalls)
}

func TestRunTwoNodeRaceScenario(t *testing.T) {
	ctx := context.Background()

	cluster := vaultclient.NewMockVaultCluster()
	nodeA := cluster.NewServer()
	defer nodeA.Close()
	nodeB := cluster.NewServer()
	defer nodeB.Close()

	store := storage.NewMemStore(testLogger())

	oA := newNodeOrchestrator(t, store, nodeA.URL(), 150*time.Millisecond)
	oB := newNodeOrchestrator(t, store, nodeB.URL(), 150*time.Millisecond)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, o := range []*Orchestrator{oA, oB} {
		wg.Add(1)
		go func(i int, o *Orchestrator) {
			defer wg.Done()
			errs[i] = o.Run(ctx)
		}(i, o)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	// Exactly one node initialized the cluster, and both ended up unsealed.
	assert.Equal(t, 1, cluster.InitCalls)
	assert.False(t, nodeA.Sealed())
	assert.False(t, nodeB.Sealed())
}
