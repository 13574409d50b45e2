// Package cryptoutils provides the cryptographic helpers of the registry:
// caller authentication through secp256k1 request signatures and content
// fingerprinting of files.
//
// # Request Signatures
//
// A request is signed over the message
//
//	METHOD + " " + path + "\n" + timestamp + "\n" + body
//
// hashed with the EIP-191 personal message prefix (accounts.TextHash), where
// timestamp is the decimal Unix time in seconds at signing. The 65-byte
// [R || S || V] signature recovers to the caller's Ethereum address, which is
// the identity the host acts for. V is accepted as 0/1 or 27/28.
//
// The server only accepts a signature whose timestamp lies within its
// configured clock skew of the current time. This bounds replay of a captured
// request to that window but does not prevent it: a request resent within the
// window is executed again, and for an append that records the hash twice.
// Signatures carry no nonce, so callers that need exactly-once appends must
// deduplicate by listing first.
//
// # Fingerprints
//
// Fingerprint hashes a stream into a 32-byte interfaces.ContentHash with
// SHA-256 (default), Keccak-256 or BLAKE2b-256.
package cryptoutils
