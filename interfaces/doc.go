// Package interfaces defines the core interfaces and types for the unseal
// orchestrator, separating interface definitions from implementations.
//
// The package provides the contracts between the components of the system:
//
// # Storage Interfaces
//
// ObjectStore: key-addressed put/get/exists/delete against the shared durable
// store that cluster nodes coordinate through. Implementations live in the
// storage package (S3, local file system, in-memory).
//
// StoreFactory: creates ObjectStore instances from location URIs.
//
// # Server Control Interfaces
//
// SealControl: the slice of the secret-management server's API the orchestrator
// needs: initialization status, seal status, one-time initialize, and
// share-by-share unseal. Implemented by the vaultclient package.
//
// ProcessChecker: reports whether the local server process exists, used by the
// orchestrator while waiting for the server to come up.
//
// # Key Layout
//
// All coordination state lives in a flat key space under the configured bucket
// and prefix:
//
//	initializer.lock  - election lock record (candidate identifier)
//	shamir-key{1..N}  - secret shares, written once by the bootstrap winner
//	root-token        - privileged bootstrap credential, written once
package interfaces
