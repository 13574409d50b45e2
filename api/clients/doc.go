/*
Package clients provides a Go client for the registry HTTP API.

RegistryClient signs every mutating request with the caller's secp256k1 key,
so the server attributes it to the caller's identity:

	client := clients.NewRegistryClient("http://localhost:8080", key)
	addr, err := client.Create(ctx)
	...
	reg := client.At(addr)
	err = reg.Append(ctx, interfaces.ComputeContentHash(data))
	entries, err := reg.List(ctx)

Errors returned by the server are *APIError values. They unwrap to
interfaces.ErrUnknownRegistry, interfaces.ErrOutOfGas or
interfaces.ErrInvalidCaller when the status code carries that meaning.
*/
package clients
