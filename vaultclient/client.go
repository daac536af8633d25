package vaultclient

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hashicorp/vault/api"
	"github.com/ruteri/vault-autounseal/interfaces"
)

// Client implements seal-control operations against a Vault server using the
// official API client.
type Client struct {
	client *api.Client
	log    *slog.Logger
}

// Config holds the connection parameters for a Vault server.
type Config struct {
	// Address is the Vault server URL, e.g. https://127.0.0.1:8200.
	// Empty means the VAULT_ADDR environment default.
	Address string

	// CACert is an optional path to a PEM-encoded CA certificate used to
	// verify the server certificate.
	CACert string

	// TLSSkipVerify disables server certificate verification. Meant for
	// development setups with self-signed certificates.
	TLSSkipVerify bool
}

// New creates a Vault seal-control client.
func New(cfg Config, log *slog.Logger) (*Client, error) {
	apiCfg := api.DefaultConfig()
	if cfg.Address != "" {
		apiCfg.Address = cfg.Address
	}

	if cfg.CACert != "" || cfg.TLSSkipVerify {
		tlsCfg := &api.TLSConfig{
			CACert:   cfg.CACert,
			Insecure: cfg.TLSSkipVerify,
		}
		if err := apiCfg.ConfigureTLS(tlsCfg); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}

	return &Client{
		client: client,
		log:    log,
	}, nil
}

// Initialized reports whether the Vault cluster has been initialized.
func (c *Client) Initialized(ctx context.Context) (bool, error) {
	initialized, err := c.client.Sys().InitStatusWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to query init status: %w", err)
	}

	return initialized, nil
}

// SealStatus returns the current seal state of the Vault server.
func (c *Client) SealStatus(ctx context.Context) (interfaces.SealState, error) {
	status, err := c.client.Sys().SealStatusWithContext(ctx)
	if err != nil {
		return interfaces.SealState{}, fmt.Errorf("failed to query seal status: %w", err)
	}

	return sealStateFrom(status), nil
}

// Initialize performs operator initialization and returns the generated
// unseal shares along with the initial root token. Vault accepts this
// exactly once per cluster; a second call fails server-side.
func (c *Client) Initialize(ctx context.Context, params interfaces.InitParams) (*interfaces.InitResult, error) {
	resp, err := c.client.Sys().InitWithContext(ctx, &api.InitRequest{
		SecretShares:    params.SecretShares,
		SecretThreshold: params.SecretThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vault: %w", err)
	}

	c.log.Info("Vault initialized",
		slog.Int("secret_shares", params.SecretShares),
		slog.Int("secret_threshold", params.SecretThreshold))

	return &interfaces.InitResult{
		Shares:    resp.Keys,
		RootToken: resp.RootToken,
	}, nil
}

// SubmitUnsealShare submits a single unseal share and returns the seal state
// reported by the server afterwards.
func (c *Client) SubmitUnsealShare(ctx context.Context, share string) (interfaces.SealState, error) {
	status, err := c.client.Sys().UnsealWithContext(ctx, share)
	if err != nil {
		return interfaces.SealState{}, fmt.Errorf("failed to submit unseal share: %w", err)
	}

	return sealStateFrom(status), nil
}

func sealStateFrom(status *api.SealStatusResponse) interfaces.SealState {
	return interfaces.SealState{
		Sealed:    status.Sealed,
		Threshold: status.T,
		Shares:    status.N,
		Progress:  status.Progress,
	}
}
