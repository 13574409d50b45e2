package cryptoutils

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/content-hash-registry/interfaces"
	"golang.org/x/crypto/blake2b"
)

// HashAlgorithm names a 256-bit hash function used for fingerprints.
type HashAlgorithm string

const (
	SHA256    HashAlgorithm = "sha256"
	Keccak256 HashAlgorithm = "keccak256"
	Blake2b   HashAlgorithm = "blake2b"
)

// ParseHashAlgorithm accepts the algorithm names case-insensitively.
// The empty string selects SHA256.
func ParseHashAlgorithm(name string) (HashAlgorithm, error) {
	switch algo := HashAlgorithm(strings.ToLower(name)); algo {
	case "":
		return SHA256, nil
	case SHA256, Keccak256, Blake2b:
		return algo, nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm %q", name)
	}
}

func (a HashAlgorithm) newHash() (hash.Hash, error) {
	switch a {
	case SHA256, "":
		return sha256.New(), nil
	case Keccak256:
		return crypto.NewKeccakState(), nil
	case Blake2b:
		return blake2b.New256(nil)
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", string(a))
	}
}

// Fingerprint hashes the content of r.
func Fingerprint(r io.Reader, algo HashAlgorithm) (interfaces.ContentHash, error) {
	h, err := algo.newHash()
	if err != nil {
		return interfaces.ContentHash{}, err
	}
	if _, err := io.Copy(h, r); err != nil {
		return interfaces.ContentHash{}, fmt.Errorf("failed to read content: %w", err)
	}
	return interfaces.NewContentHashFromBytes(h.Sum(nil))
}

// FingerprintFile hashes the file at path.
func FingerprintFile(path string, algo HashAlgorithm) (interfaces.ContentHash, error) {
	f, err := os.Open(path)
	if err != nil {
		return interfaces.ContentHash{}, err
	}
	defer f.Close()

	return Fingerprint(f, algo)
}
