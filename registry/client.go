package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ruteri/content-hash-registry/bindings/fileregistry"
	"github.com/ruteri/content-hash-registry/interfaces"
)

var (
	// ErrNoTransactOpts is returned when a transaction is attempted without first setting transaction options.
	ErrNoTransactOpts = errors.New("no authorized transactor available")

	// ErrTransactionReverted is returned when a mined transaction has a failed receipt status.
	ErrTransactionReverted = errors.New("transaction reverted")
)

// OnchainRegistryClient implements interfaces.Registry for a FileRegistry
// contract deployed on an Ethereum-compatible chain. The chain plays the host:
// the caller identity is the account signing the transactions.
type OnchainRegistryClient struct {
	contract *fileregistry.FileRegistry
	client   bind.ContractBackend
	backend  bind.DeployBackend
	address  common.Address
	auth     *bind.TransactOpts
}

// NewOnchainRegistryClient creates a new client for interacting with the FileRegistry contract
// at the specified address. It requires a ContractBackend for reading from the blockchain
// and a DeployBackend for waiting on transactions.
func NewOnchainRegistryClient(client bind.ContractBackend, backend bind.DeployBackend, address common.Address) (*OnchainRegistryClient, error) {
	contract, err := fileregistry.NewFileRegistry(address, client)
	if err != nil {
		return nil, err
	}

	return &OnchainRegistryClient{
		contract: contract,
		client:   client,
		backend:  backend,
		address:  address,
	}, nil
}

// SetTransactOpts sets the transaction options required for functions that modify state.
// This must be called before Append or AddFile.
func (c *OnchainRegistryClient) SetTransactOpts(auth *bind.TransactOpts) {
	c.auth = auth
}

// Address returns the address of the bound contract.
func (c *OnchainRegistryClient) Address() interfaces.ContractAddress {
	return interfaces.ContractAddress(c.address)
}

// Owner returns the account that deployed the contract.
func (c *OnchainRegistryClient) Owner(ctx context.Context) (interfaces.Identity, error) {
	opts := &bind.CallOpts{Context: ctx}

	owner, err := c.contract.Owner(opts)
	if err != nil {
		return interfaces.Identity{}, err
	}
	if owner == (common.Address{}) {
		return interfaces.Identity{}, interfaces.ErrUnknownRegistry
	}
	return interfaces.Identity(owner), nil
}

// Files returns the raw getFiles result.
func (c *OnchainRegistryClient) Files(ctx context.Context) ([][32]byte, error) {
	return c.contract.GetFiles(&bind.CallOpts{Context: ctx})
}

// List retrieves every recorded hash in insertion order.
func (c *OnchainRegistryClient) List(ctx context.Context) ([]interfaces.ContentHash, error) {
	files, err := c.Files(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]interfaces.ContentHash, len(files))
	for i, f := range files {
		entries[i] = interfaces.ContentHash(f)
	}
	return entries, nil
}

// FileCount returns the number of recorded hashes.
func (c *OnchainRegistryClient) FileCount(ctx context.Context) (uint64, error) {
	opts := &bind.CallOpts{Context: ctx}

	count, err := c.contract.FileCount(opts)
	if err != nil {
		return 0, err
	}
	if !count.IsUint64() {
		return 0, fmt.Errorf("file count %s overflows", count)
	}
	return count.Uint64(), nil
}

// AddFile sends a transaction appending hash to the registry.
// Returns the transaction and an error if the transaction could not be sent.
func (c *OnchainRegistryClient) AddFile(ctx context.Context, hash interfaces.ContentHash) (*types.Transaction, error) {
	if c.auth == nil {
		return nil, ErrNoTransactOpts
	}

	opts := *c.auth
	opts.Context = ctx
	return c.contract.AddFile(&opts, hash)
}

// Append sends an AddFile transaction and waits until it is mined.
// A reverted transaction has no effect on the registry and yields ErrTransactionReverted.
func (c *OnchainRegistryClient) Append(ctx context.Context, hash interfaces.ContentHash) error {
	tx, err := c.AddFile(ctx, hash)
	if err != nil {
		return err
	}

	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return fmt.Errorf("waiting for transaction %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: %s", ErrTransactionReverted, tx.Hash().Hex())
	}
	return nil
}

// RegistryFactory creates OnchainRegistryClient instances for different contract addresses.
type RegistryFactory struct {
	client  bind.ContractBackend
	backend bind.DeployBackend
	auth    *bind.TransactOpts
}

// NewRegistryFactory creates a new factory for registry clients.
// It requires a ContractBackend for reading from the blockchain and a DeployBackend for transactions.
// auth may be nil for read-only clients.
func NewRegistryFactory(client bind.ContractBackend, backend bind.DeployBackend, auth *bind.TransactOpts) *RegistryFactory {
	return &RegistryFactory{client: client, backend: backend, auth: auth}
}

// RegistryFor returns an interfaces.Registry for the specified contract address.
func (f *RegistryFactory) RegistryFor(address interfaces.ContractAddress) (interfaces.Registry, error) {
	client, err := NewOnchainRegistryClient(f.client, f.backend, common.Address(address))
	if err != nil {
		return nil, err
	}
	if f.auth != nil {
		client.SetTransactOpts(f.auth)
	}
	return client, nil
}
