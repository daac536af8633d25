// Package unseal retrieves the quorum of secret shares from the shared
// object store and submits them to the local server until it unseals.
//
// Every node runs this after cluster initialization is confirmed, whether
// the node performed the initialization itself or lost the election and is
// waiting for the winner's shares to appear.
//
// # Share Polling
//
// Shares are fetched sequentially, each with its own bounded retry budget,
// rather than with one long blocking wait across all of them. A transient
// absence of one share therefore does not restart the wait clock for shares
// already available, and an exhausted budget names the specific share that
// never appeared. Running out of attempts is fatal: the material is expected
// to exist shortly after initialization, and waiting forever would mask a
// real outage.
//
// A fetch failure after existence was observed is also fatal, since it
// means the store contradicts itself. Submission happens strictly in share
// index order, and any rejection aborts the run; there is no alternative
// share to retry with, because only the canonical set is ever materialized.
package unseal
