package procutils

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockProcessChecker mocks the ProcessChecker interface
type MockProcessChecker struct {
	mock.Mock
}

// Running mocks the Running method
func (m *MockProcessChecker) Running(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}
