// Package storage provides the durable key-value stores that registry state
// is persisted in.
//
// Every backend implements interfaces.KVStore. Keys are opaque byte strings;
// backends addressing values by name (files, objects, secrets) use the hex
// encoding of the key. Backends that can commit several writes atomically
// also implement interfaces.Batcher.
//
// # Storage URI Format
//
// Storage backends are specified using URI format:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Supported URI schemes:
//
//   - memory://
//   - leveldb:///var/lib/registry/state?cache=16&handles=16
//   - file:///var/lib/registry/state
//   - s3://ACCESS_KEY:SECRET_KEY@bucket-name/prefix/?region=us-west-2&endpoint=minio:9000
//   - vault://vault.example.com:8200/secret/registry?token=s.xxx&tls=true
//   - redis://:password@redis.example.com:6379/0
//   - ipfs://127.0.0.1:5001/registry?timeout=30s
//
// # Replication
//
// StorageBackendFactory.CreateMultiStore combines several locations into a
// MultiStorageBackend. The first location is the primary and serves every
// read. A write is refused with interfaces.ErrBackendUnavailable unless the
// primary and every in-sync replica are available, and it succeeds when the
// primary accepts it. A replica that then fails is marked out of sync and
// skipped until the process restarts.
//
//	factory := storage.NewStorageBackendFactory(logger)
//	store, err := factory.CreateMultiStore(locations)
package storage
