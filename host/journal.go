package host

import (
	"context"
	"fmt"

	"github.com/ruteri/content-hash-registry/interfaces"
)

// Gas charged per slot access.
const (
	GasSlotRead  uint64 = 2100
	GasSlotWrite uint64 = 20000
)

// journal buffers the writes of one transaction over the underlying store.
// Reads observe the transaction's own pending writes. Nothing reaches the
// store until commit.
type journal struct {
	store   interfaces.KVStore
	pending map[string][]byte
	order   []string

	gasLimit uint64
	gasUsed  uint64
}

func newJournal(store interfaces.KVStore, gasLimit uint64) *journal {
	return &journal{
		store:    store,
		pending:  make(map[string][]byte),
		gasLimit: gasLimit,
	}
}

func (j *journal) charge(gas uint64) error {
	j.gasUsed += gas
	if j.gasLimit > 0 && j.gasUsed > j.gasLimit {
		return fmt.Errorf("%w: used %d of %d", interfaces.ErrOutOfGas, j.gasUsed, j.gasLimit)
	}
	return nil
}

func (j *journal) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", interfaces.ErrExecutionAborted, err)
	}
	if err := j.charge(GasSlotRead); err != nil {
		return nil, err
	}

	if v, ok := j.pending[string(key)]; ok {
		return append([]byte(nil), v...), nil
	}
	return j.store.Get(ctx, key)
}

func (j *journal) Put(ctx context.Context, key []byte, value []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", interfaces.ErrExecutionAborted, err)
	}
	if err := j.charge(GasSlotWrite); err != nil {
		return err
	}

	k := string(key)
	if _, ok := j.pending[k]; !ok {
		j.order = append(j.order, k)
	}
	j.pending[k] = append([]byte(nil), value...)
	return nil
}

// commit flushes the pending writes, atomically when the store is a Batcher
// and otherwise one by one in first-write order.
func (j *journal) commit(ctx context.Context) error {
	if len(j.order) == 0 {
		return nil
	}

	if batcher, ok := j.store.(interfaces.Batcher); ok {
		batch := batcher.NewBatch()
		for _, k := range j.order {
			if err := batch.Put([]byte(k), j.pending[k]); err != nil {
				return fmt.Errorf("failed to stage write: %w", err)
			}
		}
		if err := batch.Write(ctx); err != nil {
			return fmt.Errorf("failed to commit batch: %w", err)
		}
		return nil
	}

	for _, k := range j.order {
		if err := j.store.Put(ctx, []byte(k), j.pending[k]); err != nil {
			return fmt.Errorf("failed to commit write: %w", err)
		}
	}
	return nil
}

// namespace scopes a StateStore to keys carrying a fixed prefix.
type namespace struct {
	inner  interfaces.StateStore
	prefix []byte
}

func (n namespace) key(k []byte) []byte {
	out := make([]byte, 0, len(n.prefix)+len(k))
	out = append(out, n.prefix...)
	return append(out, k...)
}

func (n namespace) Get(ctx context.Context, key []byte) ([]byte, error) {
	return n.inner.Get(ctx, n.key(key))
}

func (n namespace) Put(ctx context.Context, key []byte, value []byte) error {
	return n.inner.Put(ctx, n.key(key), value)
}
