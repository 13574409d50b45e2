// Package host runs registry instances on behalf of authenticated callers.
//
// A Host deploys and executes registry.Contract instances over a single
// durable interfaces.KVStore. Calls are serialized, and every mutating call
// runs as a transaction: its writes are journaled and reach the store only
// when the call succeeds. Failed, cancelled, panicking or out-of-gas calls
// leave no trace.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/ruteri/content-hash-registry/interfaces"
	"github.com/ruteri/content-hash-registry/metrics"
	"github.com/ruteri/content-hash-registry/registry"
)

var ErrNoStore = errors.New("host requires a store")

// Key prefixes in the underlying store.
var (
	contractPrefix = []byte("c")
	noncePrefix    = []byte("n")
)

type Config struct {
	Store interfaces.KVStore

	// GasLimit bounds each mutating transaction. Zero means unlimited.
	GasLimit uint64

	Log     *slog.Logger
	Metrics *metrics.Metrics
}

// Host implements interfaces.RegistryHost.
type Host struct {
	mu       sync.RWMutex
	store    interfaces.KVStore
	gasLimit uint64
	log      *slog.Logger
	metrics  *metrics.Metrics
}

func New(cfg Config) (*Host, error) {
	if cfg.Store == nil {
		return nil, ErrNoStore
	}

	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	return &Host{
		store:    cfg.Store,
		gasLimit: cfg.GasLimit,
		log:      log.With("component", "host"),
		metrics:  cfg.Metrics,
	}, nil
}

// Create deploys a registry owned by caller. The address is derived from
// the caller and its deployment count, so the same caller never gets the
// same address twice.
func (h *Host) Create(ctx context.Context, caller interfaces.Identity) (interfaces.ContractAddress, error) {
	if caller.IsZero() {
		return interfaces.ContractAddress{}, interfaces.ErrInvalidCaller
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var addr interfaces.ContractAddress
	err := h.execute(ctx, "create", true, func(tx *journal) error {
		nonce, err := loadNonce(ctx, tx, caller)
		if err != nil {
			return err
		}

		for {
			addr = interfaces.ContractAddress(crypto.CreateAddress(common.Address(caller), nonce))
			nonce++

			_, err := registry.Deploy(ctx, instanceStore(tx, addr), caller)
			if errors.Is(err, registry.ErrAlreadyDeployed) {
				continue
			}
			if err != nil {
				return err
			}
			break
		}

		return saveNonce(ctx, tx, caller, nonce)
	})
	if err != nil {
		return interfaces.ContractAddress{}, err
	}

	h.metrics.IncrementRegistriesCreated()
	h.log.Info("Registry created",
		slog.String("registry", addr.String()),
		slog.String("owner", caller.String()))

	return addr, nil
}

// Append records hash in the registry at addr. The caller is not required
// to be the owner.
func (h *Host) Append(ctx context.Context, addr interfaces.ContractAddress, caller interfaces.Identity, hash interfaces.ContentHash) error {
	if caller.IsZero() {
		return interfaces.ErrInvalidCaller
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var owner interfaces.Identity
	err := h.execute(ctx, "append", true, func(tx *journal) error {
		c := registry.At(instanceStore(tx, addr))

		var err error
		owner, err = deployedOwner(ctx, c)
		if err != nil {
			return err
		}
		return c.Append(ctx, hash)
	})
	if err != nil {
		return err
	}

	h.metrics.IncrementEntriesAppended()
	h.log.Debug("Entry appended",
		slog.String("registry", addr.String()),
		slog.String("caller", caller.String()),
		slog.Bool("byOwner", caller == owner),
		slog.String("hash", hash.String()))

	return nil
}

// List returns the entries of the registry at addr in insertion order.
func (h *Host) List(ctx context.Context, addr interfaces.ContractAddress) ([]interfaces.ContentHash, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var state *registry.State
	err := h.execute(ctx, "list", false, func(tx *journal) error {
		var err error
		state, err = registry.At(instanceStore(tx, addr)).Snapshot(ctx)
		if errors.Is(err, registry.ErrNotDeployed) {
			return interfaces.ErrUnknownRegistry
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return state.List(), nil
}

// Len returns the number of entries of the registry at addr.
// Only the owner and length slots are read.
func (h *Host) Len(ctx context.Context, addr interfaces.ContractAddress) (uint64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var n uint64
	err := h.execute(ctx, "len", false, func(tx *journal) error {
		c := registry.At(instanceStore(tx, addr))
		if _, err := deployedOwner(ctx, c); err != nil {
			return err
		}

		var err error
		n, err = c.Len(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Owner returns the creator of the registry at addr.
func (h *Host) Owner(ctx context.Context, addr interfaces.ContractAddress) (interfaces.Identity, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var owner interfaces.Identity
	err := h.execute(ctx, "owner", false, func(tx *journal) error {
		var err error
		owner, err = deployedOwner(ctx, registry.At(instanceStore(tx, addr)))
		return err
	})
	if err != nil {
		return interfaces.Identity{}, err
	}
	return owner, nil
}

// Registry returns a Registry view of the instance at addr that acts as caller.
func (h *Host) Registry(addr interfaces.ContractAddress, caller interfaces.Identity) interfaces.Registry {
	return &boundRegistry{host: h, addr: addr, caller: caller}
}

// execute runs fn as one transaction. Writes are committed only when fn
// returns without error and commit is set. Read-only calls are not metered.
func (h *Host) execute(ctx context.Context, op string, commit bool, fn func(tx *journal) error) (err error) {
	start := time.Now()

	limit := h.gasLimit
	if !commit {
		limit = 0
	}
	tx := newJournal(h.store, limit)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic in %s: %v", interfaces.ErrExecutionAborted, op, r)
		}
		h.metrics.ObserveOperation(op, start)
		if err != nil && commit {
			h.metrics.IncrementTransactionsAborted(op, abortReason(err))
			h.log.Debug("Transaction discarded",
				slog.String("operation", op),
				slog.Uint64("gasUsed", tx.gasUsed),
				"err", err)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if !commit {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", interfaces.ErrExecutionAborted, err)
	}
	return tx.commit(ctx)
}

func abortReason(err error) string {
	switch {
	case errors.Is(err, interfaces.ErrOutOfGas):
		return "out_of_gas"
	case errors.Is(err, interfaces.ErrUnknownRegistry):
		return "unknown_registry"
	case errors.Is(err, interfaces.ErrExecutionAborted):
		return "aborted"
	default:
		return "error"
	}
}

func deployedOwner(ctx context.Context, c *registry.Contract) (interfaces.Identity, error) {
	owner, err := c.Owner(ctx)
	if errors.Is(err, registry.ErrNotDeployed) {
		return interfaces.Identity{}, interfaces.ErrUnknownRegistry
	}
	return owner, err
}

func instanceStore(tx *journal, addr interfaces.ContractAddress) interfaces.StateStore {
	return namespace{inner: tx, prefix: append(append([]byte(nil), contractPrefix...), addr[:]...)}
}

func nonceKey(caller interfaces.Identity) []byte {
	return append(append([]byte(nil), noncePrefix...), caller[:]...)
}

func loadNonce(ctx context.Context, tx *journal, caller interfaces.Identity) (uint64, error) {
	value, err := tx.Get(ctx, nonceKey(caller))
	if errors.Is(err, interfaces.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load nonce: %w", err)
	}

	n := new(uint256.Int).SetBytes(value)
	if !n.IsUint64() {
		return 0, fmt.Errorf("nonce of %s overflows", caller)
	}
	return n.Uint64(), nil
}

func saveNonce(ctx context.Context, tx *journal, caller interfaces.Identity, nonce uint64) error {
	word := uint256.NewInt(nonce).Bytes32()
	return tx.Put(ctx, nonceKey(caller), word[:])
}

// boundRegistry is the caller-bound interfaces.Registry view over a Host.
type boundRegistry struct {
	host   *Host
	addr   interfaces.ContractAddress
	caller interfaces.Identity
}

func (r *boundRegistry) Owner(ctx context.Context) (interfaces.Identity, error) {
	return r.host.Owner(ctx, r.addr)
}

func (r *boundRegistry) Append(ctx context.Context, hash interfaces.ContentHash) error {
	return r.host.Append(ctx, r.addr, r.caller, hash)
}

func (r *boundRegistry) List(ctx context.Context) ([]interfaces.ContentHash, error) {
	return r.host.List(ctx, r.addr)
}
