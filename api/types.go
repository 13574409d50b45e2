package api

import (
	"github.com/ruteri/content-hash-registry/interfaces"
)

// Header constants used in HTTP requests.
const (
	// SignatureHeader carries the hex-encoded 65-byte secp256k1 signature of
	// the request, see cryptoutils.SignRequest.
	SignatureHeader = "X-Registry-Signature"

	// CallerHeader optionally names the expected caller identity. When
	// present it must match the identity recovered from the signature.
	CallerHeader = "X-Registry-Caller"

	// TimestampHeader carries the signing time in decimal Unix seconds.
	// It is covered by the signature and must be close to the server's clock.
	TimestampHeader = "X-Registry-Timestamp"
)

// CreateRegistryResponse is returned by POST /api/registries.
type CreateRegistryResponse struct {
	Address interfaces.ContractAddress `json:"address"`
	Owner   interfaces.Identity        `json:"owner"`
}

// RegistryInfoResponse is returned by GET /api/registries/{address}.
type RegistryInfoResponse struct {
	Address interfaces.ContractAddress `json:"address"`
	Owner   interfaces.Identity        `json:"owner"`
	Entries uint64                     `json:"entries"`
}

// AppendEntryRequest is the body of POST /api/registries/{address}/entries.
type AppendEntryRequest struct {
	Hash interfaces.ContentHash `json:"hash"`
}

// ListEntriesResponse is returned by GET /api/registries/{address}/entries.
type ListEntriesResponse struct {
	Entries []interfaces.ContentHash `json:"entries"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}
