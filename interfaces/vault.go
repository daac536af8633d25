package interfaces

import "context"

// SealState is the subset of the server's seal status the orchestrator acts
// on. Progress counts shares submitted toward the current unseal attempt.
type SealState struct {
	Sealed    bool
	Threshold int
	Shares    int
	Progress  int
}

// InitParams configures the one-time cluster initialization. Shares and
// threshold are fixed configuration, never derived at runtime.
type InitParams struct {
	SecretShares    int
	SecretThreshold int
}

// InitResult carries the secret material generated by initialization. The
// shares are opaque server-encoded strings, stored and submitted verbatim.
type InitResult struct {
	Shares    []string
	RootToken string
}

// SealControl is the slice of the secret-management server's control API the
// orchestrator depends on. All calls go to the local node's server; only
// Initialize has cluster-wide effect.
type SealControl interface {
	// Initialized reports whether the cluster has been initialized.
	Initialized(ctx context.Context) (bool, error)

	// SealStatus returns the local node's seal state.
	SealStatus(ctx context.Context) (SealState, error)

	// Initialize performs the one-time cluster initialization. The server
	// rejects a second initialization; callers must not retry.
	Initialize(ctx context.Context, params InitParams) (*InitResult, error)

	// SubmitUnsealShare submits one share toward unsealing the local node
	// and returns the resulting seal state.
	SubmitUnsealShare(ctx context.Context, share string) (SealState, error)
}

// ProcessChecker reports whether a named process is running on this host.
type ProcessChecker interface {
	Running(ctx context.Context, name string) (bool, error)
}
