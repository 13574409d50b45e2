package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/content-hash-registry/interfaces"
	"go.uber.org/atomic"
)

// MultiStorageBackend replicates state from a primary backend to replicas.
//
// Reads are served by the primary only, so a replica that missed a write can
// never hide or resurrect state. A write is refused with ErrBackendUnavailable
// unless the primary and every in-sync replica are available, and nothing is
// written in that case. The primary is written first and decides the outcome;
// a replica that fails after the primary committed is logged and dropped out
// of sync, and receives no further writes until the process restarts.
type MultiStorageBackend struct {
	backends []interfaces.KVStore
	inSync   []*atomic.Bool
	log      *slog.Logger
}

// NewMultiStorageBackend creates a new multi-storage backend. backends[0] is the primary.
func NewMultiStorageBackend(backends []interfaces.KVStore, logger *slog.Logger) *MultiStorageBackend {
	if logger == nil {
		logger = slog.Default()
	}

	inSync := make([]*atomic.Bool, len(backends))
	for i := range inSync {
		inSync[i] = atomic.NewBool(true)
	}

	return &MultiStorageBackend{
		backends: backends,
		inSync:   inSync,
		log:      logger,
	}
}

func (m *MultiStorageBackend) primary() interfaces.KVStore {
	if len(m.backends) == 0 {
		return nil
	}
	return m.backends[0]
}

func (m *MultiStorageBackend) Get(ctx context.Context, key []byte) ([]byte, error) {
	primary := m.primary()
	if primary == nil || !primary.Available(ctx) {
		return nil, interfaces.ErrBackendUnavailable
	}
	return primary.Get(ctx, key)
}

// Put saves value to the primary and every in-sync replica.
func (m *MultiStorageBackend) Put(ctx context.Context, key []byte, value []byte) error {
	return m.writeAll(ctx, func(backend interfaces.KVStore) error {
		return backend.Put(ctx, key, value)
	})
}

// NewBatch returns a batch replayed on the primary and every in-sync replica
// on Write, atomically on those that support batches.
func (m *MultiStorageBackend) NewBatch() interfaces.Batch {
	return &multiBatch{multi: m}
}

// OutOfSync returns the names of replicas that missed a write.
func (m *MultiStorageBackend) OutOfSync() []string {
	var names []string
	for i, backend := range m.backends {
		if !m.inSync[i].Load() {
			names = append(names, backend.Name())
		}
	}
	return names
}

func (m *MultiStorageBackend) writeAll(ctx context.Context, write func(interfaces.KVStore) error) error {
	start := time.Now()
	primary := m.primary()
	if primary == nil {
		return interfaces.ErrBackendUnavailable
	}

	for i, backend := range m.backends {
		if !m.inSync[i].Load() {
			continue
		}
		if !backend.Available(ctx) {
			m.log.Warn("Refusing write, backend unavailable",
				slog.String("backend_name", backend.Name()),
				slog.Duration("duration", time.Since(start)))
			return fmt.Errorf("%s: %w", backend.Name(), interfaces.ErrBackendUnavailable)
		}
	}

	if err := write(primary); err != nil {
		return fmt.Errorf("%s: %w", primary.Name(), err)
	}

	for i, backend := range m.backends[1:] {
		if !m.inSync[i+1].Load() {
			continue
		}
		if err := write(backend); err != nil {
			m.inSync[i+1].Store(false)
			m.log.Error("Replica dropped out of sync",
				slog.String("backend_name", backend.Name()),
				"err", err)
		}
	}
	return nil
}

// Available reports whether the primary is available.
func (m *MultiStorageBackend) Available(ctx context.Context) bool {
	primary := m.primary()
	return primary != nil && primary.Available(ctx)
}

// Name returns the name of this backend
func (m *MultiStorageBackend) Name() string {
	return "multi-storage"
}

// LocationURI returns the URI of this backend
func (m *MultiStorageBackend) LocationURI() string {
	var locations []string
	for _, backend := range m.backends {
		locations = append(locations, backend.LocationURI())
	}

	return "multi:[" + strings.Join(locations, ",") + "]"
}

// Close closes every backend.
func (m *MultiStorageBackend) Close() error {
	var errs []error
	for _, backend := range m.backends {
		if err := backend.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		}
	}
	return errors.Join(errs...)
}

type multiBatch struct {
	multi  *MultiStorageBackend
	keys   [][]byte
	values [][]byte
}

func (mb *multiBatch) Put(key []byte, value []byte) error {
	mb.keys = append(mb.keys, append([]byte(nil), key...))
	mb.values = append(mb.values, append([]byte(nil), value...))
	return nil
}

func (mb *multiBatch) Write(ctx context.Context) error {
	return mb.multi.writeAll(ctx, func(backend interfaces.KVStore) error {
		if batcher, ok := backend.(interfaces.Batcher); ok {
			batch := batcher.NewBatch()
			for i, k := range mb.keys {
				if err := batch.Put(k, mb.values[i]); err != nil {
					return err
				}
			}
			return batch.Write(ctx)
		}

		for i, k := range mb.keys {
			if err := backend.Put(ctx, k, mb.values[i]); err != nil {
				return err
			}
		}
		return nil
	})
}
