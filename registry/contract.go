package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/ruteri/content-hash-registry/interfaces"
)

var (
	// ErrZeroOwner is returned when a registry is created without a caller identity.
	ErrZeroOwner = errors.New("registry owner must not be the zero identity")

	// ErrAlreadyDeployed is returned when a registry is created over existing state.
	ErrAlreadyDeployed = errors.New("registry already deployed")

	// ErrNotDeployed is returned when no registry state exists in the store.
	ErrNotDeployed = errors.New("registry not deployed")

	// ErrCorruptState is returned when a slot holds a value that is not a 32-byte word.
	ErrCorruptState = errors.New("corrupt registry state")
)

// Storage layout, identical to the Solidity compiler's layout of
//
//	address public owner;     // slot 0
//	bytes32[] private files;  // slot 1 holds the length
//
// with element i of files stored at keccak256(pad32(1)) + i.
var (
	ownerSlot   = common.Hash{}
	lengthSlot  = common.BigToHash(common.Big1)
	entriesBase = crypto.Keccak256Hash(lengthSlot[:])
)

// entrySlot returns the slot holding the i-th entry.
func entrySlot(i uint64) common.Hash {
	base := new(uint256.Int).SetBytes32(entriesBase[:])
	slot := new(uint256.Int).AddUint64(base, i)
	return common.Hash(slot.Bytes32())
}

// Contract is a registry instance persisted in an injected StateStore.
// It holds no state of its own: every call reads and writes through the store,
// and the host running it is responsible for atomicity and ordering.
type Contract struct {
	store interfaces.StateStore
}

// Deploy creates a registry owned by caller in store.
func Deploy(ctx context.Context, store interfaces.StateStore, caller interfaces.Identity) (*Contract, error) {
	if caller.IsZero() {
		return nil, ErrZeroOwner
	}

	c := At(store)
	current, err := c.load(ctx, ownerSlot)
	if err != nil {
		return nil, err
	}
	if current != (common.Hash{}) {
		return nil, ErrAlreadyDeployed
	}

	if err := c.save(ctx, ownerSlot, common.BytesToHash(caller[:])); err != nil {
		return nil, err
	}
	if err := c.save(ctx, lengthSlot, common.Hash{}); err != nil {
		return nil, err
	}
	return c, nil
}

// At returns the registry instance persisted in store.
func At(store interfaces.StateStore) *Contract {
	return &Contract{store: store}
}

// Owner returns the identity recorded at creation.
func (c *Contract) Owner(ctx context.Context) (interfaces.Identity, error) {
	word, err := c.load(ctx, ownerSlot)
	if err != nil {
		return interfaces.Identity{}, err
	}
	if word == (common.Hash{}) {
		return interfaces.Identity{}, ErrNotDeployed
	}
	return interfaces.Identity(common.BytesToAddress(word[:])), nil
}

// Len returns the number of recorded entries.
func (c *Contract) Len(ctx context.Context) (uint64, error) {
	word, err := c.load(ctx, lengthSlot)
	if err != nil {
		return 0, err
	}

	n := new(uint256.Int).SetBytes32(word[:])
	if !n.IsUint64() {
		return 0, fmt.Errorf("%w: entries length overflows", ErrCorruptState)
	}
	return n.Uint64(), nil
}

// Append records hash after the existing entries. The entry slot is written
// before the length slot, so the length never covers an unwritten entry.
func (c *Contract) Append(ctx context.Context, hash interfaces.ContentHash) error {
	n, err := c.Len(ctx)
	if err != nil {
		return err
	}

	if err := c.save(ctx, entrySlot(n), common.Hash(hash)); err != nil {
		return err
	}

	length := uint256.NewInt(n + 1).Bytes32()
	return c.save(ctx, lengthSlot, common.Hash(length))
}

// List returns all entries in insertion order. The slice is freshly allocated.
func (c *Contract) List(ctx context.Context) ([]interfaces.ContentHash, error) {
	n, err := c.Len(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]interfaces.ContentHash, 0, n)
	for i := uint64(0); i < n; i++ {
		word, err := c.load(ctx, entrySlot(i))
		if err != nil {
			return nil, err
		}
		entries = append(entries, interfaces.ContentHash(word))
	}
	return entries, nil
}

// Snapshot materializes the instance into its in-memory form.
func (c *Contract) Snapshot(ctx context.Context) (*State, error) {
	owner, err := c.Owner(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	return &State{Owner: owner, Entries: entries}, nil
}

// load reads a slot. Slots never written read as the zero word.
func (c *Contract) load(ctx context.Context, slot common.Hash) (common.Hash, error) {
	value, err := c.store.Get(ctx, slot[:])
	if errors.Is(err, interfaces.ErrKeyNotFound) {
		return common.Hash{}, nil
	}
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to load slot %s: %w", slot.Hex(), err)
	}
	if len(value) != common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: slot %s holds %d bytes", ErrCorruptState, slot.Hex(), len(value))
	}
	return common.BytesToHash(value), nil
}

func (c *Contract) save(ctx context.Context, slot common.Hash, word common.Hash) error {
	if err := c.store.Put(ctx, slot[:], word[:]); err != nil {
		return fmt.Errorf("failed to store slot %s: %w", slot.Hex(), err)
	}
	return nil
}
