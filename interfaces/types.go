// Package interfaces defines the core interfaces and types for the content hash registry.
// It provides the contract between different components without implementation details.
package interfaces

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Identity is the 20-byte identity of a caller invoking a registry operation.
// It is the Ethereum-style address of the secp256k1 key that signed the call.
type Identity [20]byte

// NewIdentityFromBytes creates an identity from a 20-byte slice.
func NewIdentityFromBytes(source []byte) (Identity, error) {
	if len(source) != 20 {
		return Identity{}, errors.New("invalid identity length: must be 20 bytes")
	}

	var id Identity
	copy(id[:], source)
	return id, nil
}

// NewIdentityFromHex parses a 40-character hex identity, with or without 0x prefix.
func NewIdentityFromHex(source string) (Identity, error) {
	raw, err := decodeFixedHex(source, 20)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid identity: %w", err)
	}
	return NewIdentityFromBytes(raw)
}

// IsZero reports whether the identity is unset.
func (id Identity) IsZero() bool {
	return id == Identity{}
}

// String returns the 0x-prefixed hex representation.
func (id Identity) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// Bytes returns the raw 20-byte identity.
func (id Identity) Bytes() []byte {
	return id[:]
}

func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := NewIdentityFromHex(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ContentHash is a fixed-width 32-byte identifier of a file or blob.
// The registry treats it as opaque.
type ContentHash [32]byte

// NewContentHashFromBytes creates a content hash from a 32-byte slice.
func NewContentHashFromBytes(source []byte) (ContentHash, error) {
	if len(source) != 32 {
		return ContentHash{}, errors.New("invalid content hash conversion from bytes: incorrect length")
	}

	var hash ContentHash
	copy(hash[:], source)
	return hash, nil
}

// NewContentHashFromHex parses a 64-character hex hash, with or without 0x prefix.
func NewContentHashFromHex(source string) (ContentHash, error) {
	raw, err := decodeFixedHex(source, 32)
	if err != nil {
		return ContentHash{}, fmt.Errorf("invalid content hash: %w", err)
	}
	return NewContentHashFromBytes(raw)
}

// ComputeContentHash calculates the SHA-256 content hash of data.
func ComputeContentHash(data []byte) ContentHash {
	return ContentHash(sha256.Sum256(data))
}

// String returns the 0x-prefixed hex representation.
func (h ContentHash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// Bytes returns the raw 32-byte hash.
func (h ContentHash) Bytes() []byte {
	return h[:]
}

func (h ContentHash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *ContentHash) UnmarshalText(text []byte) error {
	parsed, err := NewContentHashFromHex(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ContractAddress is the address of one deployed registry instance.
type ContractAddress [20]byte

// NewContractAddressFromBytes creates a contract address from a 20-byte slice.
func NewContractAddressFromBytes(addr []byte) (ContractAddress, error) {
	if len(addr) != 20 {
		return ContractAddress{}, errors.New("invalid address length: must be 20 bytes")
	}

	var res ContractAddress
	copy(res[:], addr)
	return res, nil
}

// NewContractAddressFromHex parses a 40-character hex address, with or without 0x prefix.
func NewContractAddressFromHex(addr string) (ContractAddress, error) {
	raw, err := decodeFixedHex(addr, 20)
	if err != nil {
		return ContractAddress{}, fmt.Errorf("invalid contract address: %w", err)
	}
	return NewContractAddressFromBytes(raw)
}

// String returns the 0x-prefixed hex representation of the contract address.
func (addr ContractAddress) String() string {
	return "0x" + hex.EncodeToString(addr[:])
}

// Bytes returns the raw 20-byte address.
func (addr ContractAddress) Bytes() []byte {
	return addr[:]
}

func (addr ContractAddress) MarshalText() ([]byte, error) {
	return []byte(addr.String()), nil
}

func (addr *ContractAddress) UnmarshalText(text []byte) error {
	parsed, err := NewContractAddressFromHex(string(text))
	if err != nil {
		return err
	}
	*addr = parsed
	return nil
}

func decodeFixedHex(source string, size int) ([]byte, error) {
	clean := strings.TrimPrefix(strings.TrimPrefix(source, "0x"), "0X")
	if len(clean) != size*2 {
		return nil, fmt.Errorf("hex string must be %d characters, got %d", size*2, len(clean))
	}

	raw, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex format: %w", err)
	}
	return raw, nil
}
