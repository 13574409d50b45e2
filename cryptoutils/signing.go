package cryptoutils

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/content-hash-registry/interfaces"
)

// ErrInvalidSignature is returned when a signature is malformed or does not recover to a key.
var ErrInvalidSignature = errors.New("invalid signature")

// RequestMessage returns the message a request signature covers.
// timestamp is the signing time in Unix seconds.
func RequestMessage(method, path string, timestamp int64, body []byte) []byte {
	msg := make([]byte, 0, len(method)+len(path)+len(body)+24)
	msg = append(msg, method...)
	msg = append(msg, ' ')
	msg = append(msg, path...)
	msg = append(msg, '\n')
	msg = strconv.AppendInt(msg, timestamp, 10)
	msg = append(msg, '\n')
	return append(msg, body...)
}

// SignRequest signs a request with key.
func SignRequest(key *ecdsa.PrivateKey, method, path string, timestamp int64, body []byte) ([]byte, error) {
	hash := accounts.TextHash(RequestMessage(method, path, timestamp, body))
	return crypto.Sign(hash, key)
}

// RecoverRequestSigner returns the identity that produced sig over the request.
func RecoverRequestSigner(sig []byte, method, path string, timestamp int64, body []byte) (interfaces.Identity, error) {
	if len(sig) != crypto.SignatureLength {
		return interfaces.Identity{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSignature, crypto.SignatureLength, len(sig))
	}

	sig = append([]byte(nil), sig...)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	hash := accounts.TextHash(RequestMessage(method, path, timestamp, body))
	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return interfaces.Identity{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return IdentityOf(pub), nil
}

// IdentityOf returns the identity of a public key.
func IdentityOf(pub *ecdsa.PublicKey) interfaces.Identity {
	return interfaces.Identity(crypto.PubkeyToAddress(*pub))
}

// LoadPrivateKey reads a secp256k1 private key given either as hex
// (with or without 0x) or as the path of a file holding the hex key.
func LoadPrivateKey(keyOrPath string) (*ecdsa.PrivateKey, error) {
	if keyOrPath == "" {
		return nil, errors.New("no private key given")
	}

	if _, err := os.Stat(keyOrPath); err == nil {
		key, err := crypto.LoadECDSA(keyOrPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load private key from %s: %w", keyOrPath, err)
		}
		return key, nil
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(keyOrPath), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}
