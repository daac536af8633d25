package interfaces

import (
	"context"
	"errors"
)

var (
	// ErrObjectNotFound is returned by Fetch when the key has no object.
	// Pollers treat it as "not yet present", never as corruption.
	ErrObjectNotFound = errors.New("object not found")

	// ErrStoreUnavailable is returned when the storage backend is not
	// accessible. This could be due to network issues, authentication
	// failures, or service outages.
	ErrStoreUnavailable = errors.New("object store unavailable")

	// ErrInvalidLocationURI is returned when a store location URI is
	// malformed or uses an unsupported scheme.
	ErrInvalidLocationURI = errors.New("invalid store location URI")
)

// ObjectStore provides key-addressed storage shared by all cluster nodes.
// It is the only channel nodes coordinate through, so implementations must
// be durable and visible across the cluster; no atomicity beyond single-key
// put/delete is assumed.
type ObjectStore interface {
	// Store writes data under key, overwriting any existing object.
	Store(ctx context.Context, key string, data []byte) error

	// Fetch retrieves the object at key. Returns ErrObjectNotFound if the
	// key holds no object.
	Fetch(ctx context.Context, key string) ([]byte, error)

	// Exists reports whether an object is present at key without fetching it.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the object at key. Deleting an absent key is not an
	// error.
	Delete(ctx context.Context, key string) error

	// Available checks if the backend is accessible.
	Available(ctx context.Context) bool

	// Name returns an identifier for logging.
	Name() string

	// LocationURI returns the URI identifying this backend.
	LocationURI() string
}

// StoreFactory creates object stores from location URIs.
type StoreFactory interface {
	// StoreFor creates a store from a URI.
	// Supports s3://, file://, mem://
	StoreFor(locationURI string) (ObjectStore, error)
}
