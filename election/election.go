package election

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/vault-autounseal/interfaces"
	"github.com/ruteri/vault-autounseal/metrics"
)

// DefaultSettleDelay is how long an attempt waits for concurrent lock
// writes to land before re-reading the lock.
const DefaultSettleDelay = 10 * time.Second

// Outcome is the result of one election attempt.
type Outcome int

const (
	// OutcomeUnknown is the zero value; no attempt has completed.
	OutcomeUnknown Outcome = iota

	// OutcomeWon means this node holds the initializer role.
	OutcomeWon

	// OutcomeLost means another node holds or contested it.
	OutcomeLost

	// OutcomeError means the attempt could not determine a winner.
	// Callers must treat it like a loss and never assume victory.
	OutcomeError
)

// String returns the outcome as a short lowercase word, suitable for logs
// and metric labels.
func (o Outcome) String() string {
	switch o {
	case OutcomeWon:
		return "won"
	case OutcomeLost:
		return "lost"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Config controls a node's election attempts.
type Config struct {
	// LockKey is the object key used as the election lock.
	// Defaults to interfaces.LockKey.
	LockKey string

	// SettleDelay is how long to wait after writing the lock before
	// re-reading it. Defaults to DefaultSettleDelay.
	SettleDelay time.Duration

	// CandidateID identifies this node in the lock record. Left empty,
	// a fresh identifier is generated per campaign.
	CandidateID string
}

// Election runs initializer elections against a shared object store.
type Election struct {
	store interfaces.ObjectStore
	cfg   Config
	log   *slog.Logger
}

// New creates an Election. Zero config fields are filled with defaults.
func New(store interfaces.ObjectStore, cfg Config, log *slog.Logger) *Election {
	if cfg.LockKey == "" {
		cfg.LockKey = interfaces.LockKey
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}

	return &Election{
		store: store,
		cfg:   cfg,
		log:   log,
	}
}

// Campaign runs one election attempt. The returned error is non-nil only
// together with OutcomeError and carries the store failure that made the
// attempt undecidable.
func (e *Election) Campaign(ctx context.Context) (Outcome, error) {
	outcome, err := e.campaign(ctx)
	metrics.ElectionOutcomes.WithLabelValues(outcome.String()).Inc()
	return outcome, err
}

func (e *Election) campaign(ctx context.Context) (Outcome, error) {
	candidateID := e.cfg.CandidateID
	if candidateID == "" {
		candidateID = NewCandidateID()
	}

	e.log.Info("Entering initializer election",
		slog.String("candidate_id", candidateID),
		slog.String("store", e.store.Name()))

	exists, err := e.store.Exists(ctx, e.cfg.LockKey)
	if err != nil {
		e.log.Error("Failed to check election lock", "err", err)
		return OutcomeError, fmt.Errorf("failed to check election lock: %w", err)
	}

	if exists {
		e.log.Info("Lost election, lock already present")
		return OutcomeLost, nil
	}

	if err := e.store.Store(ctx, e.cfg.LockKey, []byte(candidateID)); err != nil {
		// The write may have landed despite the error, and a concurrent
		// candidate is the likelier cause. Settle and re-read to find out.
		e.log.Warn("Election lock write failed, continuing to settle check", "err", err)
	}

	e.log.Debug("Waiting for concurrent candidates to settle",
		slog.Duration("settle_delay", e.cfg.SettleDelay))

	select {
	case <-ctx.Done():
		return OutcomeError, ctx.Err()
	case <-time.After(e.cfg.SettleDelay):
	}

	data, err := e.store.Fetch(ctx, e.cfg.LockKey)
	if err != nil {
		if errors.Is(err, interfaces.ErrObjectNotFound) {
			// A faster winner has already cleaned up its lock.
			e.log.Info("Lost election, lock vanished during settle window")
			return OutcomeLost, nil
		}

		e.log.Error("Failed to re-read election lock", "err", err)
		return OutcomeError, fmt.Errorf("failed to re-read election lock: %w", err)
	}

	if string(data) != candidateID {
		e.log.Info("Lost election",
			slog.String("winner_id", string(data)))
		return OutcomeLost, nil
	}

	// Best-effort cleanup. A leftover lock blocks future elections until
	// removed by hand, but a failed delete must not invalidate the win.
	if err := e.store.Delete(ctx, e.cfg.LockKey); err != nil {
		e.log.Warn("Failed to delete election lock after winning, stale lock may block future elections",
			"err", err)
	}

	e.log.Info("Won initializer election",
		slog.String("candidate_id", candidateID))

	return OutcomeWon, nil
}

// NewCandidateID builds an identifier that differs across nodes and across
// repeated attempts by the same node.
func NewCandidateID() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}

	return fmt.Sprintf("%s-%d-%s", hostname, time.Now().UnixNano(), uuid.NewString()[:8])
}
