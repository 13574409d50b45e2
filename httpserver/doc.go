/*
Package httpserver exposes a RegistryHost over HTTP.

# Endpoints

	POST /api/registries                    create a registry owned by the caller (201)
	GET  /api/registries/{address}          owner and entry count
	POST /api/registries/{address}/entries  append {"hash": "0x..."} (204)
	GET  /api/registries/{address}/entries  all hashes in insertion order

	GET /livez, /readyz, /drain, /undrain   health and draining
	/debug/pprof/*                          when pprof is enabled

# Authentication

POST requests carry an X-Registry-Signature header holding the hex-encoded
secp256k1 signature produced by cryptoutils.SignRequest over the method, the
URL path, the X-Registry-Timestamp value and the raw body. The recovered key
identifies the caller. An optional X-Registry-Caller header pins the expected
identity so that a tampered request is rejected instead of being attributed
to an unrelated key.

Timestamps further than --max-clock-skew (5 minutes by default) from the
server clock are rejected. Within that window a captured request can be
replayed and is executed again.

# Errors

Failures are returned as {"error": "..."} with these status codes:

  - 400 malformed address, body or header
  - 401 missing or mismatched signature, missing or stale timestamp
  - 404 no registry at the address
  - 413 body above the configured limit
  - 422 transaction ran out of gas
  - 500 storage failures and aborted transactions
  - 503 a state store backend is offline
*/
package httpserver
