// Package registry implements the content-hash registry: an owner identity
// fixed at creation plus an append-only, order-preserving list of 32-byte
// content hashes.
//
// The package offers three renditions of the same semantics:
//
//   - State is the plain in-memory form. Host.List serves reads from a
//     Contract.Snapshot, and New and Append are the reference model the
//     storage-backed renditions are checked against in tests.
//   - Contract runs against an injected interfaces.StateStore using the
//     Solidity storage layout (owner in slot 0, entry count in slot 1,
//     entry i at keccak256(pad32(1)) + i). The host package executes it.
//   - OnchainRegistryClient talks to the FileRegistry contract deployed on
//     an Ethereum-compatible chain through the bindings/fileregistry package.
//
// Appends are not restricted to the owner. The owner is recorded and
// reported, but any caller may record hashes.
//
// # Transaction Operations
//
// Append on OnchainRegistryClient sends a transaction and waits for it to be
// mined. Call SetTransactOpts before using it:
//
//	client, err := registry.NewOnchainRegistryClient(ethClient, ethClient, address)
//	if err != nil {
//	    return err
//	}
//	auth, _ := bind.NewKeyedTransactorWithChainID(privateKey, chainID)
//	client.SetTransactOpts(auth)
//
//	err = client.Append(ctx, interfaces.ComputeContentHash(data))
//
// Read-only operations (Owner, List, FileCount) do not require transaction options.
package registry
