// Package main (cmd/registry_client) is a command-line client for content
// hash registries.
//
// By default it talks to a registry server given by --server and signs
// requests with --private-key. With --rpc-addr it reads from and appends to a
// FileRegistry contract deployed on an Ethereum chain instead.
//
// Commands:
//
//	create            deploy a registry and print its address (server only)
//	append <hash>     record a 32-byte hex hash
//	add-file <path>   fingerprint a file and record the result
//	list              print recorded hashes in insertion order
//	owner             print the registry owner
//	hash <path>       print a file fingerprint without recording it
//
// Example:
//
//	addr=$(registry-client --private-key=./key.hex create)
//	registry-client --private-key=./key.hex --registry=$addr add-file ./release.tar.gz
//	registry-client --registry=$addr list
package main
