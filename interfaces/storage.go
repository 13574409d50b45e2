package interfaces

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// StorageBackendLocation represents URI for a key-value storage backend.
type StorageBackendLocation struct {
	Raw    string     // Original URI
	Scheme string     // Protocol
	Host   string     // Hostname
	Path   string     // Resource path
	Query  url.Values // Query parameters
	Auth   string     // Authentication info
}

// NewStorageBackendLocation creates a new storage location from a URI string with validation.
func NewStorageBackendLocation(uri string) (StorageBackendLocation, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return StorageBackendLocation{}, fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}

	scheme := parsed.Scheme
	switch scheme {
	case "memory", "file", "leveldb", "s3", "vault", "redis", "rediss", "ipfs":
	default:
		return StorageBackendLocation{}, fmt.Errorf("%w: unsupported storage scheme %q", ErrInvalidLocationURI, scheme)
	}

	var auth string
	if parsed.User != nil {
		auth = parsed.User.String()
	}

	return StorageBackendLocation{
		Raw:    uri,
		Scheme: scheme,
		Host:   parsed.Host,
		Path:   parsed.Path,
		Query:  parsed.Query(),
		Auth:   auth,
	}, nil
}

// String returns the original URI string.
func (loc StorageBackendLocation) String() string {
	return loc.Raw
}

// GetParam returns a query parameter value.
func (loc StorageBackendLocation) GetParam(name string) string {
	return loc.Query.Get(name)
}

// GetParamBool returns a boolean query parameter value.
func (loc StorageBackendLocation) GetParamBool(name string) bool {
	value := loc.Query.Get(name)
	return value == "true" || value == "1" || value == "yes"
}

var (
	// ErrKeyNotFound is returned when a key has never been written to the store.
	ErrKeyNotFound = errors.New("key not found")

	// ErrBackendUnavailable is returned when a storage backend is not accessible.
	// This could be due to network issues, authentication failures, or service outages.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrInvalidLocationURI is returned when a storage location URI is malformed or unsupported.
	// URIs must follow the format: [scheme]://[auth@]host[:port][/path][?params]
	ErrInvalidLocationURI = errors.New("invalid storage location URI")
)

// StateStore is the persistent state accessor a registry instance reads and writes.
type StateStore interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key []byte, value []byte) error
}

// KVStore is a durable key-value storage backend.
type KVStore interface {
	StateStore

	// Available checks if backend is accessible.
	Available(ctx context.Context) bool

	// Name returns identifier for logging.
	Name() string

	// LocationURI returns URI identifying this backend.
	LocationURI() string

	// Close releases the resources held by the backend.
	Close() error
}

// Batch accumulates writes that become visible together on Write.
type Batch interface {
	Put(key []byte, value []byte) error
	Write(ctx context.Context) error
}

// Batcher is implemented by stores able to commit several writes atomically.
type Batcher interface {
	NewBatch() Batch
}

// KVStoreFactory creates storage backends.
type KVStoreFactory interface {
	// KVStoreFor creates backend from URI.
	// Supports memory://, file://, leveldb://, s3://, vault://, redis://, ipfs://
	KVStoreFor(location StorageBackendLocation) (KVStore, error)

	// CreateMultiStore creates a replicated storage backend.
	CreateMultiStore(locations []StorageBackendLocation) (KVStore, error)
}
