package storage

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockObjectStore mocks the ObjectStore interface
type MockObjectStore struct {
	mock.Mock
}

// Store mocks the Store method
func (m *MockObjectStore) Store(ctx context.Context, key string, data []byte) error {
	args := m.Called(ctx, key, data)
	return args.Error(0)
}

// Fetch mocks the Fetch method
func (m *MockObjectStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Exists mocks the Exists method
func (m *MockObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// Delete mocks the Delete method
func (m *MockObjectStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// Available mocks the Available method
func (m *MockObjectStore) Available(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

// Name mocks the Name method
func (m *MockObjectStore) Name() string {
	args := m.Called()
	return args.String(0)
}

// LocationURI mocks the LocationURI method
func (m *MockObjectStore) LocationURI() string {
	args := m.Called()
	return args.String(0)
}
