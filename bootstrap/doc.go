// Package bootstrap performs one-time cluster initialization and
// distributes the resulting secret material through the shared object store.
//
// Bootstrap is only ever run by the node that won the initializer election.
// It calls operator initialization exactly once, then writes each unseal
// share and the root token to well-known keys. Writes are write-once: an
// object already present in the store is never overwritten, so re-running
// after a partial failure completes the missing writes without disturbing
// shares that other nodes may already have consumed.
//
// An initialization failure is fatal with no retry, because re-running
// initialization against a partially initialized server is undefined.
// Individual write failures do not stop the remaining writes; they are
// collected and reported together, and any failure makes the whole run
// fail even though the successful writes remain valid.
package bootstrap
