// Package vaultclient wraps the HashiCorp Vault API client with the small
// seal-control surface the unseal orchestrator needs: initialization and
// seal status queries, operator initialization, and unseal share submission.
//
// # Mock Servers
//
// The package also provides an HTTP mock of that surface for tests.
// MockVaultCluster models cluster-wide state (initialization, Shamir
// shares), while MockVaultServer models a single node with its own seal
// state. Several servers attached to one cluster share initialization but
// seal independently, the way real cluster nodes do. The mock performs real
// Shamir splitting and combining, so submitted shares are actually verified
// against the master key.
package vaultclient
