package storage

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ruteri/content-hash-registry/interfaces"
)

// StorageBackendFactory creates storage backends from location URIs and
// combines several of them into a replicated store.
type StorageBackendFactory struct {
	log *slog.Logger
}

// NewStorageBackendFactory creates a new factory instance that can create storage backends.
func NewStorageBackendFactory(logger *slog.Logger) *StorageBackendFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &StorageBackendFactory{log: logger}
}

// KVStoreFor creates a storage backend from a location URI.
// The URI format should be [scheme]://[auth@]host[:port][/path][?params]
//
// Supported schemes:
//   - memory:// - Volatile in-memory storage
//   - leveldb:// - LevelDB database on the local filesystem
//   - file:// - One file per key on the local filesystem
//   - s3:// - Amazon S3 or compatible object storage
//   - vault:// - HashiCorp Vault KV v2 secrets engine
//   - redis://, rediss:// - Redis server
//   - ipfs:// - Mutable file system of an IPFS node
func (sf *StorageBackendFactory) KVStoreFor(location interfaces.StorageBackendLocation) (interfaces.KVStore, error) {
	switch strings.ToLower(location.Scheme) {
	case "memory":
		return NewMemoryBackend(sf.log), nil
	case "leveldb":
		return sf.createLevelDBBackend(location)
	case "file":
		return sf.createFileBackend(location)
	case "s3":
		return sf.createS3Backend(location)
	case "vault":
		return sf.createVaultBackend(location)
	case "redis", "rediss":
		sf.log.Debug("Creating redis backend", slog.String("uri", redactURL(location.Raw)))
		return NewRedisBackend(location.Raw, sf.log)
	case "ipfs":
		return sf.createIPFSBackend(location)
	default:
		return nil, fmt.Errorf("%w: unsupported backend scheme %q", interfaces.ErrInvalidLocationURI, location.Scheme)
	}
}

// CreateMultiStore creates a replicated backend from a list of location URIs.
// All locations must produce a backend; a single location yields that backend directly.
func (sf *StorageBackendFactory) CreateMultiStore(locations []interfaces.StorageBackendLocation) (interfaces.KVStore, error) {
	if len(locations) == 0 {
		return nil, fmt.Errorf("no storage locations given")
	}

	backends := make([]interfaces.KVStore, 0, len(locations))
	for _, location := range locations {
		backend, err := sf.KVStoreFor(location)
		if err != nil {
			for _, b := range backends {
				b.Close()
			}
			return nil, fmt.Errorf("failed to create storage backend %s: %w", redactURL(location.Raw), err)
		}
		backends = append(backends, backend)
	}

	if len(backends) == 1 {
		return backends[0], nil
	}
	return NewMultiStorageBackend(backends, sf.log), nil
}

// createLevelDBBackend creates a LevelDB backend.
// URI format: leveldb:///absolute/path?cache=16&handles=16&readonly=false
func (sf *StorageBackendFactory) createLevelDBBackend(location interfaces.StorageBackendLocation) (interfaces.KVStore, error) {
	path, err := localPath(location)
	if err != nil {
		return nil, err
	}

	cache, err := intParam(location, "cache", 16)
	if err != nil {
		return nil, err
	}
	handles, err := intParam(location, "handles", 16)
	if err != nil {
		return nil, err
	}

	return NewLevelDBBackend(path, cache, handles, location.GetParamBool("readonly"), sf.log)
}

// createFileBackend creates a file system storage backend.
// URI format: file:///absolute/path/ or file://./relative/path/
func (sf *StorageBackendFactory) createFileBackend(location interfaces.StorageBackendLocation) (interfaces.KVStore, error) {
	sf.log.Debug("Creating file backend", slog.String("uri", location.Raw))

	path, err := localPath(location)
	if err != nil {
		return nil, err
	}
	return NewFileBackend(path, sf.log)
}

// createS3Backend creates an S3 or S3-compatible storage backend.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/path/?region=us-west-2&endpoint=custom.s3.com
func (sf *StorageBackendFactory) createS3Backend(location interfaces.StorageBackendLocation) (interfaces.KVStore, error) {
	sf.log.Debug("Creating S3 backend", slog.String("uri", redactURL(location.Raw)))

	if location.Host == "" {
		return nil, fmt.Errorf("%w: missing S3 bucket", interfaces.ErrInvalidLocationURI)
	}

	region := location.GetParam("region")
	if region == "" {
		region = "us-east-1"
	}

	var accessKey, secretKey string
	if location.Auth != "" {
		accessKey, secretKey, _ = strings.Cut(location.Auth, ":")
	}

	return NewS3Backend(location.Host, strings.TrimPrefix(location.Path, "/"), region, location.GetParam("endpoint"), accessKey, secretKey, sf.log)
}

// createVaultBackend creates a Vault KV v2 backend.
// URI format: vault://host:port/mount/path?token=...&tls=true
func (sf *StorageBackendFactory) createVaultBackend(location interfaces.StorageBackendLocation) (interfaces.KVStore, error) {
	sf.log.Debug("Creating Vault backend", slog.String("host", location.Host))

	mount, dataPath, _ := strings.Cut(strings.Trim(location.Path, "/"), "/")
	if mount == "" {
		return nil, fmt.Errorf("%w: missing Vault mount path", interfaces.ErrInvalidLocationURI)
	}

	scheme := "http"
	if location.GetParamBool("tls") {
		scheme = "https"
	}

	return NewVaultBackend(fmt.Sprintf("%s://%s", scheme, location.Host), mount, dataPath, location.GetParam("token"), sf.log)
}

// createIPFSBackend creates an IPFS MFS storage backend.
// URI format: ipfs://host:port/mfs/root?timeout=30s
func (sf *StorageBackendFactory) createIPFSBackend(location interfaces.StorageBackendLocation) (interfaces.KVStore, error) {
	sf.log.Debug("Creating IPFS backend", slog.String("uri", location.Raw))

	host, port, found := strings.Cut(location.Host, ":")
	if !found || port == "" {
		port = "5001"
	}

	timeout := 30 * time.Second
	if raw := location.GetParam("timeout"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid timeout: %v", interfaces.ErrInvalidLocationURI, err)
		}
		timeout = parsed
	}

	return NewIPFSBackend(host, port, location.Path, timeout, sf.log)
}

func localPath(location interfaces.StorageBackendLocation) (string, error) {
	path := location.Path
	if location.Host != "" {
		path = location.Host + "/" + strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return "", fmt.Errorf("%w: empty path in %s", interfaces.ErrInvalidLocationURI, location.Raw)
	}
	return path, nil
}

func intParam(location interfaces.StorageBackendLocation, name string, def int) (int, error) {
	raw := location.GetParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s: %v", interfaces.ErrInvalidLocationURI, name, err)
	}
	return v, nil
}
