package storage

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ruteri/vault-autounseal/interfaces"
)

// MemStore implements an object store backed by an in-process map.
// It is safe for concurrent use and is primarily intended for tests, where
// several coordinators need to share one store without external services.
type MemStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	log     *slog.Logger
}

// NewMemStore creates an empty in-memory object store.
func NewMemStore(log *slog.Logger) *MemStore {
	return &MemStore{
		objects: make(map[string][]byte),
		log:     log,
	}
}

// Fetch retrieves an object by key.
// Returns ErrObjectNotFound if the key has never been stored.
func (s *MemStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.objects[key]
	if !ok {
		return nil, interfaces.ErrObjectNotFound
	}

	// Copy so callers can't mutate the stored object.
	out := make([]byte, len(data))
	copy(out, data)

	return out, nil
}

// Store writes data under the given key, overwriting any existing object.
func (s *MemStore) Store(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	s.objects[key] = stored

	s.log.Debug("Stored object in memory",
		slog.String("key", key),
		slog.Int("size", len(data)))

	return nil
}

// Exists checks whether a key is present.
func (s *MemStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.objects[key]
	return ok, nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (s *MemStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	return nil
}

// Available always reports true for the in-memory store.
func (s *MemStore) Available(ctx context.Context) bool {
	return true
}

// Name returns a unique identifier for this object store.
func (s *MemStore) Name() string {
	return "mem"
}

// LocationURI returns the URI that identifies this object store.
func (s *MemStore) LocationURI() string {
	return "mem://"
}
