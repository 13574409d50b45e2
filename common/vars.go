package common

var (
	// Version is set at build time with -ldflags "-X github.com/ruteri/content-hash-registry/common.Version=..."
	Version = "dev"

	// PackageName is the namespace of exported metrics.
	PackageName = "content_hash_registry"
)
