// Package main (cmd/unsealer) implements the vault-unsealer command, which
// brings the local Vault server from a freshly started, sealed state to an
// unsealed one, coordinating with peer nodes through a shared object store.
//
// Exactly one node of an uninitialized cluster performs operator
// initialization. The nodes decide which one through a lock-object election
// in the object store; the winner initializes Vault and distributes the
// generated unseal shares and root token to well-known keys, and every node
// (winner included) then fetches the quorum of shares and unseals itself.
// Nodes that join later or restart find the server already initialized and
// go straight to unsealing, so the command is safe to run on every boot.
//
// The command takes the object store bucket and region as positional
// arguments; everything else is optional flags with defaults. It exits 0
// once the local server is unsealed and 1 on any fatal condition, leaving
// restarts to the init system or supervisor running it.
//
// While running, a small status API reports liveness, readiness (ready only
// once unsealed), and the current phase, with Prometheus metrics on a
// second listener.
//
// Example usage:
//
//	vault-unsealer --vault-addr=https://127.0.0.1:8200 \
//	    --vault-tls-skip-verify \
//	    --settle-delay=10s \
//	    unseal-bucket eu-west-1
package main
