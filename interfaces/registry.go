package interfaces

import (
	"context"
	"errors"
)

var (
	// ErrUnknownRegistry is returned when no registry is deployed at the requested address.
	ErrUnknownRegistry = errors.New("unknown registry")

	// ErrInvalidCaller is returned when an operation is invoked without a caller identity.
	ErrInvalidCaller = errors.New("invalid caller identity")

	// ErrOutOfGas is returned when a transaction exceeds its metering budget.
	// The transaction has no effect.
	ErrOutOfGas = errors.New("out of gas")

	// ErrExecutionAborted is returned when the host aborts a transaction.
	// The transaction has no effect.
	ErrExecutionAborted = errors.New("execution aborted")
)

// Registry is a caller-bound view of a single deployed registry instance.
type Registry interface {
	// Owner returns the identity that created the registry.
	Owner(ctx context.Context) (Identity, error)

	// Append records hash at the end of the registry's entries.
	Append(ctx context.Context, hash ContentHash) error

	// List returns an order-preserving copy of all recorded hashes.
	List(ctx context.Context) ([]ContentHash, error)
}

// RegistryHost executes registry operations on behalf of authenticated callers.
// Calls are serialized and each one is applied atomically.
type RegistryHost interface {
	// Create deploys a new registry owned by caller and returns its address.
	Create(ctx context.Context, caller Identity) (ContractAddress, error)

	// Append records hash in the registry at addr. Any caller may append.
	Append(ctx context.Context, addr ContractAddress, caller Identity, hash ContentHash) error

	// List returns all hashes recorded in the registry at addr.
	List(ctx context.Context, addr ContractAddress) ([]ContentHash, error)

	// Len returns the number of hashes recorded in the registry at addr
	// without reading them.
	Len(ctx context.Context, addr ContractAddress) (uint64, error)

	// Owner returns the creator of the registry at addr.
	Owner(ctx context.Context, addr ContractAddress) (Identity, error)
}

// RegistryFactory creates Registry views for different contract addresses.
type RegistryFactory interface {
	RegistryFor(address ContractAddress) (Registry, error)
}
