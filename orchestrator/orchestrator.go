package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ruteri/vault-autounseal/election"
	"github.com/ruteri/vault-autounseal/interfaces"
	"github.com/ruteri/vault-autounseal/metrics"
	"go.uber.org/atomic"
)

// DefaultPollInterval is the delay between readiness checks.
const DefaultPollInterval = time.Second

// Run phases, exported through Phase for status reporting.
const (
	PhaseWaitServerProcess = "wait_server_process"
	PhaseWaitAPIReady      = "wait_api_ready"
	PhaseCheckUnsealed     = "check_unsealed"
	PhaseCheckInitialized  = "check_initialized"
	PhaseElect             = "elect"
	PhaseBootstrap         = "bootstrap"
	PhaseUnseal            = "unseal"
	PhaseDone              = "done"
	PhaseFailed            = "failed"
)

// Elector decides whether this node performs one-time initialization.
type Elector interface {
	Campaign(ctx context.Context) (election.Outcome, error)
}

// Bootstrapper initializes the cluster and distributes its secret material.
type Bootstrapper interface {
	Bootstrap(ctx context.Context) error
}

// Unsealer brings the local server out of the sealed state.
type Unsealer interface {
	Unseal(ctx context.Context) error
}

// Config controls the orchestrator's environment checks.
type Config struct {
	// ProcessName is the local server process waited for before touching
	// the API. Empty skips the process wait.
	ProcessName string

	// PollInterval is the delay between readiness checks. Defaults to
	// DefaultPollInterval.
	PollInterval time.Duration

	// MaxPollAttempts optionally bounds the process and API readiness
	// waits. Zero waits forever, which is the production mode under an
	// external supervisor; bounds exist for tests and one-shot diagnostics.
	MaxPollAttempts int
}

// Orchestrator drives one node through election, bootstrap, and unseal.
type Orchestrator struct {
	vault    interfaces.SealControl
	checker  interfaces.ProcessChecker
	elector  Elector
	boot     Bootstrapper
	unsealer Unsealer
	cfg      Config
	log      *slog.Logger

	phase *atomic.String
}

// New creates an Orchestrator. Zero config fields are filled with defaults.
func New(vault interfaces.SealControl, checker interfaces.ProcessChecker, elector Elector, boot Bootstrapper, unsealer Unsealer, cfg Config, log *slog.Logger) *Orchestrator {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	return &Orchestrator{
		vault:    vault,
		checker:  checker,
		elector:  elector,
		boot:     boot,
		unsealer: unsealer,
		cfg:      cfg,
		log:      log,
		phase:    atomic.NewString(""),
	}
}

// Phase returns the phase the orchestrator is currently in.
func (o *Orchestrator) Phase() string {
	return o.phase.Load()
}

// Run executes the full sequence once. It returns nil when the local server
// ends up unsealed, including the case where it already was. Any error is
// fatal for this run; the external supervisor is expected to restart the
// process, and every phase tolerates re-entry.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.run(ctx); err != nil {
		o.setPhase(PhaseFailed)
		return err
	}

	o.setPhase(PhaseDone)
	return nil
}

func (o *Orchestrator) run(ctx context.Context) error {
	o.setPhase(PhaseWaitServerProcess)
	if err := o.waitForProcess(ctx); err != nil {
		return fmt.Errorf("waiting for server process: %w", err)
	}

	o.setPhase(PhaseWaitAPIReady)
	if err := o.waitForAPI(ctx); err != nil {
		return fmt.Errorf("waiting for server API: %w", err)
	}

	o.setPhase(PhaseCheckUnsealed)
	status, err := o.vault.SealStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to query seal status: %w", err)
	}
	if !status.Sealed {
		o.log.Info("Server already unsealed, nothing to do")
		return nil
	}

	o.setPhase(PhaseCheckInitialized)
	initialized, err := o.vault.Initialized(ctx)
	if err != nil {
		return fmt.Errorf("failed to query init status: %w", err)
	}

	if initialized {
		o.log.Info("Cluster already initialized")
	} else {
		o.setPhase(PhaseElect)
		outcome, err := o.elector.Campaign(ctx)
		if err != nil {
			o.log.Warn("Election could not determine a winner, assuming another node initializes",
				"err", err)
		}

		if outcome == election.OutcomeWon {
			o.setPhase(PhaseBootstrap)
			if err := o.boot.Bootstrap(ctx); err != nil {
				return fmt.Errorf("bootstrap failed: %w", err)
			}
		} else {
			o.log.Info("Not the initializer, waiting for shares",
				slog.String("election_outcome", outcome.String()))
		}
	}

	o.setPhase(PhaseUnseal)
	if err := o.unsealer.Unseal(ctx); err != nil {
		return fmt.Errorf("unseal failed: %w", err)
	}

	return nil
}

// waitForProcess polls until the configured server process exists. The wait
// is unbounded unless MaxPollAttempts is set; context cancellation ends it
// early either way.
func (o *Orchestrator) waitForProcess(ctx context.Context) error {
	if o.cfg.ProcessName == "" {
		o.log.Debug("No server process name configured, skipping process wait")
		return nil
	}

	o.log.Info("Waiting for server process",
		slog.String("process", o.cfg.ProcessName))

	return o.wait(ctx, func() error {
		running, err := o.checker.Running(ctx, o.cfg.ProcessName)
		if err != nil {
			o.log.Warn("Process check failed", "err", err)
			return err
		}
		if !running {
			return fmt.Errorf("process %s not running", o.cfg.ProcessName)
		}
		return nil
	})
}

// waitForAPI polls until both status endpoints answer. Only reachability
// matters here; the answers are evaluated later.
func (o *Orchestrator) waitForAPI(ctx context.Context) error {
	o.log.Info("Waiting for server API to become reachable")

	return o.wait(ctx, func() error {
		if _, err := o.vault.Initialized(ctx); err != nil {
			o.log.Debug("Init status endpoint not reachable yet", "err", err)
			return err
		}
		if _, err := o.vault.SealStatus(ctx); err != nil {
			o.log.Debug("Seal status endpoint not reachable yet", "err", err)
			return err
		}
		return nil
	})
}

func (o *Orchestrator) wait(ctx context.Context, check func() error) error {
	var policy backoff.BackOff = backoff.NewConstantBackOff(o.cfg.PollInterval)
	if o.cfg.MaxPollAttempts > 0 {
		policy = backoff.WithMaxRetries(policy, uint64(o.cfg.MaxPollAttempts-1))
	}
	return backoff.Retry(check, backoff.WithContext(policy, ctx))
}

func (o *Orchestrator) setPhase(phase string) {
	o.phase.Store(phase)
	metrics.PhaseTransitions.WithLabelValues(phase).Inc()
	o.log.Debug("Entering phase", slog.String("phase", phase))
}
