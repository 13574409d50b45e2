/*
Package api defines the HTTP interface of the content-hash registry server:
request and response types, header names and the server configuration.

# Endpoints

	POST /api/registries                      create a registry owned by the caller
	GET  /api/registries/{address}            owner and entry count
	POST /api/registries/{address}/entries    append {"hash": "0x..."}
	GET  /api/registries/{address}/entries    all hashes in insertion order

Mutating requests are authenticated: the X-Registry-Signature header carries
a secp256k1 signature over the request and its X-Registry-Timestamp (see
package cryptoutils), and the recovered address is the caller identity.
Reads are public.

The clients subpackage provides a Go client for these endpoints.
*/
package api
