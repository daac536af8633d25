package unseal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ruteri/vault-autounseal/interfaces"
	"github.com/ruteri/vault-autounseal/metrics"
)

const (
	// DefaultSecretThreshold matches the default bootstrap quorum.
	DefaultSecretThreshold = 3

	// DefaultPollAttempts bounds how long a single share is waited for.
	DefaultPollAttempts = 30

	// DefaultPollInterval is the delay between share existence checks.
	DefaultPollInterval = time.Second
)

// Config controls share retrieval and submission.
type Config struct {
	// SecretThreshold is the number of shares to fetch and submit.
	// Defaults to DefaultSecretThreshold.
	SecretThreshold int

	// PollAttempts is the existence-check budget per share.
	// Defaults to DefaultPollAttempts.
	PollAttempts int

	// PollInterval is the delay between existence checks.
	// Defaults to DefaultPollInterval.
	PollInterval time.Duration
}

// Coordinator unseals the local server with shares from the object store.
type Coordinator struct {
	vault interfaces.SealControl
	store interfaces.ObjectStore
	cfg   Config
	log   *slog.Logger
}

// New creates a Coordinator. Zero config fields are filled with defaults.
func New(vault interfaces.SealControl, store interfaces.ObjectStore, cfg Config, log *slog.Logger) *Coordinator {
	if cfg.SecretThreshold == 0 {
		cfg.SecretThreshold = DefaultSecretThreshold
	}
	if cfg.PollAttempts == 0 {
		cfg.PollAttempts = DefaultPollAttempts
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	return &Coordinator{
		vault: vault,
		store: store,
		cfg:   cfg,
		log:   log,
	}
}

// Unseal fetches the quorum of shares and submits them to the server in
// index order. It returns nil only when the server reports itself unsealed
// afterwards. All shares are fetched before the first submission, so a
// missing share never leads to a partial unseal attempt.
func (c *Coordinator) Unseal(ctx context.Context) error {
	shares := make([]string, 0, c.cfg.SecretThreshold)

	for i := 1; i <= c.cfg.SecretThreshold; i++ {
		key := interfaces.ShareKey(i)

		if err := c.waitForShare(ctx, key); err != nil {
			return err
		}

		data, err := c.store.Fetch(ctx, key)
		if err != nil {
			// Existence was just observed, so any failure here, including
			// not-found, means the store contradicts itself.
			return fmt.Errorf("failed to fetch share %d after it was observed: %w", i, err)
		}

		shares = append(shares, strings.TrimSpace(string(data)))
	}

	c.log.Info("All required shares fetched, submitting to server",
		slog.Int("shares", len(shares)))

	var state interfaces.SealState
	for i, share := range shares {
		var err error
		state, err = c.vault.SubmitUnsealShare(ctx, share)
		if err != nil {
			return fmt.Errorf("unseal share %d rejected: %w", i+1, err)
		}
		metrics.UnsealSubmissions.Inc()

		c.log.Info("Submitted unseal share",
			slog.Int("share", i+1),
			slog.Int("progress", state.Progress),
			slog.Bool("sealed", state.Sealed))
	}

	if state.Sealed {
		return fmt.Errorf("server still sealed after submitting %d shares", len(shares))
	}

	c.log.Info("Server unsealed")

	return nil
}

// waitForShare polls for a share's existence within the configured budget.
// Failed existence checks consume an attempt like an absent share does.
func (c *Coordinator) waitForShare(ctx context.Context, key string) error {
	attempt := 0
	operation := func() error {
		attempt++

		exists, err := c.store.Exists(ctx, key)
		if err != nil {
			c.log.Warn("Share existence check failed",
				slog.String("key", key),
				slog.Int("attempt", attempt),
				"err", err)
			metrics.SharePollRetries.Inc()
			return err
		}

		if !exists {
			c.log.Debug("Share not yet present",
				slog.String("key", key),
				slog.Int("attempt", attempt))
			metrics.SharePollRetries.Inc()
			return fmt.Errorf("share %s not yet present", key)
		}

		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.cfg.PollInterval), uint64(c.cfg.PollAttempts-1)),
		ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("share %s did not appear within %d attempts: %w", key, c.cfg.PollAttempts, err)
	}

	return nil
}
