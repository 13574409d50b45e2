package registry

import (
	"context"

	"github.com/ruteri/content-hash-registry/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockRegistry mocks the interfaces.Registry interface
type MockRegistry struct {
	mock.Mock
}

// Owner mocks the Owner method
func (m *MockRegistry) Owner(ctx context.Context) (interfaces.Identity, error) {
	args := m.Called(ctx)
	return args.Get(0).(interfaces.Identity), args.Error(1)
}

// Append mocks the Append method
func (m *MockRegistry) Append(ctx context.Context, hash interfaces.ContentHash) error {
	args := m.Called(ctx, hash)
	return args.Error(0)
}

// List mocks the List method
func (m *MockRegistry) List(ctx context.Context) ([]interfaces.ContentHash, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interfaces.ContentHash), args.Error(1)
}

// MockRegistryHost mocks the interfaces.RegistryHost interface
type MockRegistryHost struct {
	mock.Mock
}

// Create mocks the Create method
func (m *MockRegistryHost) Create(ctx context.Context, caller interfaces.Identity) (interfaces.ContractAddress, error) {
	args := m.Called(ctx, caller)
	return args.Get(0).(interfaces.ContractAddress), args.Error(1)
}

// Append mocks the Append method
func (m *MockRegistryHost) Append(ctx context.Context, addr interfaces.ContractAddress, caller interfaces.Identity, hash interfaces.ContentHash) error {
	args := m.Called(ctx, addr, caller, hash)
	return args.Error(0)
}

// List mocks the List method
func (m *MockRegistryHost) List(ctx context.Context, addr interfaces.ContractAddress) ([]interfaces.ContentHash, error) {
	args := m.Called(ctx, addr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interfaces.ContentHash), args.Error(1)
}

// Len mocks the Len method
func (m *MockRegistryHost) Len(ctx context.Context, addr interfaces.ContractAddress) (uint64, error) {
	args := m.Called(ctx, addr)
	return args.Get(0).(uint64), args.Error(1)
}

// Owner mocks the Owner method
func (m *MockRegistryHost) Owner(ctx context.Context, addr interfaces.ContractAddress) (interfaces.Identity, error) {
	args := m.Called(ctx, addr)
	return args.Get(0).(interfaces.Identity), args.Error(1)
}

// MockRegistryFactory mocks the interfaces.RegistryFactory interface
type MockRegistryFactory struct {
	mock.Mock
}

// RegistryFor mocks the RegistryFor method
func (m *MockRegistryFactory) RegistryFor(address interfaces.ContractAddress) (interfaces.Registry, error) {
	args := m.Called(address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(interfaces.Registry), args.Error(1)
}
