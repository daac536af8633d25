// Package storage provides key-addressed object stores with pluggable backends.
//
// The storage package offers a unified interface for storing and retrieving
// small named objects (the election lock marker, unseal key shares, the root
// token) across multiple backends:
//
//   - S3-compatible object storage for production deployments
//   - File system storage for local development and single-node setups
//   - In-process memory storage for tests
//
// # Storage URI Format
//
// Object stores are specified using URI format:
//
//	[scheme]://[auth@]host[/path][?params]
//
// Supported URI schemes:
//
//   - s3://bucket-name/prefix/?region=us-west-2&endpoint=minio.example.com
//   - file:///var/lib/vault-autounseal/
//   - mem://
//
// # Write Semantics
//
// Stores are plain last-writer-wins registers keyed by name. Store overwrites
// unconditionally and there is no compare-and-swap primitive; callers that
// need mutual exclusion or write-once behavior build it on top (see the
// election and bootstrap packages).
//
// Fetch returns interfaces.ErrObjectNotFound for absent keys so that callers
// can tell "not written yet" apart from a failing backend. Delete of an
// absent key is not an error on any backend.
//
// # Usage Example
//
//	factory := storage.NewStoreFactory(logger)
//
//	store, err := factory.StoreFor("s3://unseal-bucket/cluster-a/?region=us-east-1")
//	if err != nil {
//	    log.Fatalf("Failed to create object store: %v", err)
//	}
//
//	err = store.Store(ctx, interfaces.ShareKey(1), shareData)
package storage
