package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ruteri/content-hash-registry/interfaces"
)

// KeyValueBackend implements a storage backend over a go-ethereum key-value
// database, either in memory or LevelDB on disk. Writes through NewBatch are
// committed atomically.
type KeyValueBackend struct {
	db          ethdb.KeyValueStore
	name        string
	log         *slog.Logger
	locationURI string
}

// NewMemoryBackend creates a volatile in-memory backend.
func NewMemoryBackend(log *slog.Logger) *KeyValueBackend {
	return &KeyValueBackend{
		db:          memorydb.New(),
		name:        "memory",
		log:         log,
		locationURI: "memory://",
	}
}

// NewLevelDBBackend opens or creates a LevelDB database in dir.
// cache is in megabytes, handles is the number of open files allowed.
func NewLevelDBBackend(dir string, cache, handles int, readonly bool, log *slog.Logger) (*KeyValueBackend, error) {
	db, err := leveldb.New(dir, cache, handles, "", readonly)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %s: %w", dir, err)
	}

	log.Info("Opened leveldb storage",
		slog.String("path", dir),
		slog.Int("cache", cache),
		slog.Int("handles", handles),
		slog.Bool("readonly", readonly))

	return &KeyValueBackend{
		db:          db,
		name:        "leveldb-" + dir,
		log:         log,
		locationURI: "leveldb://" + dir,
	}, nil
}

func (b *KeyValueBackend) Get(ctx context.Context, key []byte) ([]byte, error) {
	ok, err := b.db.Has(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	if !ok {
		return nil, interfaces.ErrKeyNotFound
	}

	value, err := b.db.Get(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	return value, nil
}

func (b *KeyValueBackend) Put(ctx context.Context, key []byte, value []byte) error {
	if err := b.db.Put(key, value); err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	return nil
}

// NewBatch returns a batch whose writes become visible together.
func (b *KeyValueBackend) NewBatch() interfaces.Batch {
	return &keyValueBatch{batch: b.db.NewBatch()}
}

// Available reports whether the database is open.
func (b *KeyValueBackend) Available(ctx context.Context) bool {
	if _, err := b.db.Has(nil); err != nil {
		b.log.Debug("Key-value backend unavailable", slog.String("backend", b.name), "err", err)
		return false
	}
	return true
}

func (b *KeyValueBackend) Name() string {
	return b.name
}

func (b *KeyValueBackend) LocationURI() string {
	return b.locationURI
}

func (b *KeyValueBackend) Close() error {
	return b.db.Close()
}

type keyValueBatch struct {
	batch ethdb.Batch
}

func (kb *keyValueBatch) Put(key []byte, value []byte) error {
	return kb.batch.Put(key, value)
}

func (kb *keyValueBatch) Write(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := kb.batch.Write(); err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	return nil
}
