// Package election decides which node of a cluster performs one-time
// initialization, using a lock object in a shared store.
//
// # Protocol
//
// The store is treated as a last-writer-wins register with a settle window,
// not a compare-and-swap. One attempt proceeds as follows:
//
//  1. Generate a candidate identifier unique per node and per attempt.
//  2. Check for an existing lock object. If present, lose immediately.
//  3. Write the candidate identifier to the lock key. The check-then-write
//     is not atomic against the store; this is the protocol's deliberate
//     race window.
//  4. Wait a fixed settle delay so that any concurrent candidates' writes
//     land. A second candidate writing inside the window overwrites the
//     first; the delay must comfortably exceed the store's write
//     propagation time.
//  5. Re-read the lock. If it still holds this node's identifier, the node
//     has won. The winner deletes the lock before reporting victory.
//
// # Failure Semantics
//
// The attempt never assumes victory on ambiguous state. A store failure
// while checking or re-reading the lock yields OutcomeError, which callers
// must treat like a loss. The one exception is a failed lock write after a
// successful absence check: the write may have landed anyway, and a
// concurrent candidate is the likelier cause, so the attempt still settles
// and re-reads to find out.
//
// Lock cleanup after a win is best effort. A failed cleanup leaves the lock
// object behind, and a leftover lock makes every later attempt lose until
// the object is removed by hand. The same applies when a winner crashes
// between writing the lock and cleaning it up. The protocol accepts this
// and leans on external supervision instead of lock expiry.
//
// Two candidates whose writes land within the same settle window on a store
// without read-after-write consistency can in principle both see their own
// identifier on re-read. The settle delay is sized to make that window
// negligible for small clusters; this package deliberately does not try to
// be a consensus implementation.
package election
