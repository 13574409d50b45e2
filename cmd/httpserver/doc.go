// Package main (cmd/httpserver) runs the content hash registry server.
//
// The server keeps registry state in one or more storage locations given by
// repeated --storage flags. The first location is the primary and serves
// reads. Writes are replicated to the others and are refused while any of
// them is offline.
//
// Example usage:
//
//	registry-server --listen-addr=0.0.0.0:8080 \
//	    --storage=leveldb:///var/lib/registry \
//	    --storage=s3://key:secret@bucket/registry?region=eu-west-1 \
//	    --gas-limit=100000
//
// Prometheus metrics are served on --metrics-addr. The server shuts down
// gracefully on SIGINT or SIGTERM and closes the state store last.
package main
