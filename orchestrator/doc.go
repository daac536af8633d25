// Package orchestrator sequences one node's path from a freshly started,
// sealed server to an unsealed one.
//
// A single run walks the following phases:
//
//  1. Wait for the local server process to exist.
//  2. Wait for the server's status API to become reachable.
//  3. If the server is already unsealed, stop successfully. This is the
//     idempotent re-entry point after restarts.
//  4. If the cluster is not initialized, run the initializer election.
//     The winner bootstraps the cluster; everyone else proceeds directly,
//     trusting the winner to produce the shares.
//  5. Unseal the local server with shares from the store.
//
// The waits in phases 1 and 2 are unbounded on purpose: the orchestrator
// is expected to run under an external supervisor, which also restarts it
// after a fatal failure. An optional attempt cap exists for tests and
// one-shot diagnostics. Every phase is idempotent or safely re-enterable,
// so a restart never corrupts cluster state.
//
// Elections that end in an error are treated like a loss. The node then
// behaves as if another node were initializing, and if none is, the share
// wait in phase 5 runs out and fails the run instead.
//
// The current phase is exported via Phase for status endpoints.
package orchestrator
