// Package interfaces defines core interfaces and types for the content hash
// registry, separating interface definitions from implementations.
//
// # Registry Interfaces
//
// Registry: a caller-bound view of one registry instance. The registry records
// the identity that created it and an append-only, order-preserving list of
// content hashes. Implemented by the local host binding, the HTTP client and
// the on-chain client.
//
// RegistryHost: the execution surface that creates instances and runs append
// and list operations for an explicitly passed caller identity. The host
// serializes calls and applies each one atomically.
//
// # Storage Interfaces
//
// StateStore: the injected persistent key-value accessor a registry instance
// reads and writes its slots through.
//
// KVStore: a durable StateStore backend (memory, file, leveldb, S3, Vault,
// Redis, IPFS). Backends implementing Batcher commit several writes at once.
//
// KVStoreFactory: creates backends from location URIs and replicated
// multi-backend configurations.
//
// # Types
//
//   - Identity: 20-byte caller identity
//   - ContentHash: 32-byte opaque content hash
//   - ContractAddress: 20-byte address of a registry instance
//   - StorageBackendLocation: parsed storage URI
package interfaces
