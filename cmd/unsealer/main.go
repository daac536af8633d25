package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/ruteri/vault-autounseal/bootstrap"
	"github.com/ruteri/vault-autounseal/cmd/flags"
	"github.com/ruteri/vault-autounseal/common"
	"github.com/ruteri/vault-autounseal/election"
	"github.com/ruteri/vault-autounseal/httpserver"
	"github.com/ruteri/vault-autounseal/interfaces"
	"github.com/ruteri/vault-autounseal/orchestrator"
	"github.com/ruteri/vault-autounseal/procutils"
	"github.com/ruteri/vault-autounseal/storage"
	"github.com/ruteri/vault-autounseal/unseal"
	"github.com/ruteri/vault-autounseal/vaultclient"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:      "vault-unsealer",
		Usage:     "Initialize and unseal the local Vault server, coordinating with peer nodes through an object store",
		ArgsUsage: "<bucket> <region>",
		Version:   common.Version,
		Flags: append([]cli.Flag{
			flags.VaultAddrFlag,
			flags.VaultCACertFlag,
			flags.VaultTLSSkipVerifyFlag,
			flags.ServerProcessNameFlag,
			flags.StorePrefixFlag,
			flags.StoreEndpointFlag,
			flags.SecretSharesFlag,
			flags.SecretThresholdFlag,
			flags.SettleDelayFlag,
			flags.SharePollAttemptsFlag,
			flags.SharePollIntervalFlag,
			flags.PollIntervalFlag,
		}, flags.CommonFlags...),
		Action: func(cCtx *cli.Context) error {
			if cCtx.NArg() != 2 {
				return fmt.Errorf("expected exactly two arguments <bucket> <region>, got %d", cCtx.NArg())
			}
			bucket := cCtx.Args().Get(0)
			region := cCtx.Args().Get(1)

			secretShares := cCtx.Int(flags.SecretSharesFlag.Name)
			secretThreshold := cCtx.Int(flags.SecretThresholdFlag.Name)
			if secretThreshold < 1 || secretShares < secretThreshold {
				return fmt.Errorf("invalid seal configuration: threshold %d must be between 1 and %d", secretThreshold, secretShares)
			}

			logger := flags.SetupLogger(cCtx)

			query := url.Values{}
			query.Set("region", region)
			if endpoint := cCtx.String(flags.StoreEndpointFlag.Name); endpoint != "" {
				query.Set("endpoint", endpoint)
			}
			storeURI := fmt.Sprintf("s3://%s/%s?%s", bucket, cCtx.String(flags.StorePrefixFlag.Name), query.Encode())

			var storeFactory interfaces.StoreFactory = storage.NewStoreFactory(logger)
			store, err := storeFactory.StoreFor(storeURI)
			if err != nil {
				logger.Error("Failed to create object store", "err", err)
				return err
			}

			// Fail fast on an unreachable store; the supervisor restarts
			// us once it recovers.
			if !store.Available(cCtx.Context) {
				err := fmt.Errorf("%w: %s", interfaces.ErrStoreUnavailable, store.LocationURI())
				logger.Error("Object store is not accessible", "err", err)
				return err
			}

			vault, err := vaultclient.New(vaultclient.Config{
				Address:       cCtx.String(flags.VaultAddrFlag.Name),
				CACert:        cCtx.String(flags.VaultCACertFlag.Name),
				TLSSkipVerify: cCtx.Bool(flags.VaultTLSSkipVerifyFlag.Name),
			}, logger)
			if err != nil {
				logger.Error("Failed to create Vault client", "err", err)
				return err
			}

			candidateID := election.NewCandidateID()
			elector := election.New(store, election.Config{
				SettleDelay: cCtx.Duration(flags.SettleDelayFlag.Name),
				CandidateID: candidateID,
			}, logger)

			boot := bootstrap.New(vault, store, bootstrap.Config{
				SecretShares:    secretShares,
				SecretThreshold: secretThreshold,
			}, logger)

			unsealer := unseal.New(vault, store, unseal.Config{
				SecretThreshold: secretThreshold,
				PollAttempts:    cCtx.Int(flags.SharePollAttemptsFlag.Name),
				PollInterval:    cCtx.Duration(flags.SharePollIntervalFlag.Name),
			}, logger)

			orch := orchestrator.New(vault, procutils.NewChecker(logger), elector, boot, unsealer, orchestrator.Config{
				ProcessName:  cCtx.String(flags.ServerProcessNameFlag.Name),
				PollInterval: cCtx.Duration(flags.PollIntervalFlag.Name),
			}, logger)

			cfg := flags.ConfigureServer(cCtx, logger, orch.Phase)
			cfg.CandidateID = candidateID
			srv, err := httpserver.New(cfg)
			if err != nil {
				logger.Error("Failed to create status server", "err", err)
				return err
			}
			srv.RunInBackground()

			// Cancel the run on SIGINT/SIGTERM so the external supervisor
			// can stop us cleanly mid-wait.
			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go func() {
				<-exit
				logger.Info("Shutdown signal received")
				cancel()
			}()

			logger.Info("Starting unseal orchestration",
				"bucket", bucket,
				"region", region,
				"vault", cCtx.String(flags.VaultAddrFlag.Name),
				"candidate", candidateID)

			if err := orch.Run(ctx); err != nil {
				logger.Error("Unseal orchestration failed", "err", err)
				srv.Shutdown()
				return err
			}

			srv.SetReady(true)
			logger.Info("Node is initialized and unsealed")

			srv.Shutdown()
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
