package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"
	"github.com/ruteri/vault-autounseal/interfaces"
	"github.com/ruteri/vault-autounseal/metrics"
)

const (
	// DefaultSecretShares is the number of shares initialization splits
	// the master key into.
	DefaultSecretShares = 5

	// DefaultSecretThreshold is how many shares are required to unseal.
	DefaultSecretThreshold = 3
)

// Config holds the seal parameters used for initialization.
type Config struct {
	// SecretShares is the total number of unseal shares to generate.
	// Defaults to DefaultSecretShares.
	SecretShares int

	// SecretThreshold is the quorum required to unseal.
	// Defaults to DefaultSecretThreshold.
	SecretThreshold int
}

// Bootstrapper initializes a cluster and distributes its secret material.
type Bootstrapper struct {
	vault interfaces.SealControl
	store interfaces.ObjectStore
	cfg   Config
	log   *slog.Logger
}

// New creates a Bootstrapper. Zero config fields are filled with defaults.
func New(vault interfaces.SealControl, store interfaces.ObjectStore, cfg Config, log *slog.Logger) *Bootstrapper {
	if cfg.SecretShares == 0 {
		cfg.SecretShares = DefaultSecretShares
	}
	if cfg.SecretThreshold == 0 {
		cfg.SecretThreshold = DefaultSecretThreshold
	}

	return &Bootstrapper{
		vault: vault,
		store: store,
		cfg:   cfg,
		log:   log,
	}
}

// Bootstrap performs operator initialization and writes every unseal share
// plus the root token to the store. Share writes are independent, so one
// failure does not stop the rest; all failures are aggregated into the
// returned error. Objects already present in the store are left untouched.
func (b *Bootstrapper) Bootstrap(ctx context.Context) error {
	result, err := b.vault.Initialize(ctx, interfaces.InitParams{
		SecretShares:    b.cfg.SecretShares,
		SecretThreshold: b.cfg.SecretThreshold,
	})
	if err != nil {
		return fmt.Errorf("cluster initialization failed: %w", err)
	}

	if len(result.Shares) != b.cfg.SecretShares {
		return fmt.Errorf("initialization returned %d shares, expected %d", len(result.Shares), b.cfg.SecretShares)
	}

	b.log.Info("Cluster initialized, distributing secret material",
		slog.Int("secret_shares", b.cfg.SecretShares),
		slog.Int("secret_threshold", b.cfg.SecretThreshold))

	var errs *multierror.Error

	for i, share := range result.Shares {
		key := interfaces.ShareKey(i + 1)

		wrote, err := b.writeOnce(ctx, key, []byte(share))
		switch {
		case err != nil:
			b.log.Error("Failed to write unseal share", slog.String("key", key), "err", err)
			metrics.ShareWriteFailures.Inc()
			errs = multierror.Append(errs, fmt.Errorf("share %d: %w", i+1, err))
		case wrote:
			metrics.SharesWritten.Inc()
		default:
			metrics.SharesSkipped.Inc()
		}
	}

	if _, err := b.writeOnce(ctx, interfaces.RootTokenKey, []byte(result.RootToken)); err != nil {
		b.log.Error("Failed to write root token", "err", err)
		errs = multierror.Append(errs, fmt.Errorf("root token: %w", err))
	}

	if err := errs.ErrorOrNil(); err != nil {
		return fmt.Errorf("secret material distribution incomplete: %w", err)
	}

	b.log.Info("Secret material distributed",
		slog.Int("shares", len(result.Shares)),
		slog.String("store", b.store.Name()))

	return nil
}

// writeOnce writes an object unless it already exists. Existing objects are
// never overwritten, and a failed existence check counts as a write failure
// rather than risking an overwrite.
func (b *Bootstrapper) writeOnce(ctx context.Context, key string, data []byte) (bool, error) {
	exists, err := b.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to check for existing object: %w", err)
	}

	if exists {
		b.log.Info("Object already present, leaving untouched", slog.String("key", key))
		return false, nil
	}

	if err := b.store.Store(ctx, key, data); err != nil {
		return false, fmt.Errorf("failed to store object: %w", err)
	}

	return true, nil
}
