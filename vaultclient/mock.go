package vaultclient

import (
	"context"

	"github.com/ruteri/vault-autounseal/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockSealControl mocks the SealControl interface
type MockSealControl struct {
	mock.Mock
}

// Initialized mocks the Initialized method
func (m *MockSealControl) Initialized(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

// SealStatus mocks the SealStatus method
func (m *MockSealControl) SealStatus(ctx context.Context) (interfaces.SealState, error) {
	args := m.Called(ctx)
	return args.Get(0).(interfaces.SealState), args.Error(1)
}

// Initialize mocks the Initialize method
func (m *MockSealControl) Initialize(ctx context.Context, params interfaces.InitParams) (*interfaces.InitResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.InitResult), args.Error(1)
}

// SubmitUnsealShare mocks the SubmitUnsealShare method
func (m *MockSealControl) SubmitUnsealShare(ctx context.Context, share string) (interfaces.SealState, error) {
	args := m.Called(ctx, share)
	return args.Get(0).(interfaces.SealState), args.Error(1)
}
