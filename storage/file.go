package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ruteri/vault-autounseal/interfaces"
)

// FileStore implements an object store using the local file system.
// It is intended for development and single-node setups where a shared
// object store would be overkill.
type FileStore struct {
	baseDir     string
	log         *slog.Logger
	locationURI string
}

// NewFileStore creates a new file object store rooted at baseDir.
// The directory is created if it doesn't exist. Since the store holds
// unseal material, it is only readable by the owner.
// Returns ErrStoreUnavailable if the base directory cannot be created.
func NewFileStore(baseDir string, log *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: failed to create base directory: %v", interfaces.ErrStoreUnavailable, err)
	}

	// Format the URI for tracking
	uri := fmt.Sprintf("file://%s", baseDir)

	return &FileStore{
		baseDir:     baseDir,
		log:         log,
		locationURI: uri,
	}, nil
}

// Fetch retrieves an object from the file system by key.
// Returns ErrObjectNotFound if the file doesn't exist.
func (s *FileStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	filePath := s.filePath(key)

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, interfaces.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	s.log.Debug("Fetched object from file",
		slog.String("path", filePath),
		slog.Int("size", len(data)))

	return data, nil
}

// Store writes data to the file system under the given key, overwriting any
// existing file.
func (s *FileStore) Store(ctx context.Context, key string, data []byte) error {
	filePath := s.filePath(key)

	if err := os.MkdirAll(filepath.Dir(filePath), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	s.log.Debug("Stored object in file",
		slog.String("path", filePath),
		slog.Int("size", len(data)))

	return nil
}

// Exists checks whether a file is present for the given key.
func (s *FileStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(s.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat file: %w", err)
	}

	return true, nil
}

// Delete removes the file for the given key. Deleting a key that does not
// exist is not an error.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	filePath := s.filePath(key)

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to remove file: %w", err)
	}

	s.log.Debug("Deleted object from file", slog.String("path", filePath))

	return nil
}

// Available checks if the file store is accessible by verifying the base directory exists.
func (s *FileStore) Available(ctx context.Context) bool {
	_, err := os.Stat(s.baseDir)
	if err != nil {
		s.log.Debug("File store unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this object store.
func (s *FileStore) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(s.baseDir))
}

// LocationURI returns the URI that identifies this object store.
func (s *FileStore) LocationURI() string {
	return s.locationURI
}

// filePath maps a key to a path under the base directory.
func (s *FileStore) filePath(key string) string {
	return filepath.Join(s.baseDir, key)
}
