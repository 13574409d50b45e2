package storage

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/ruteri/content-hash-registry/interfaces"
)

// VaultBackend implements a storage backend using the KV v2 secrets engine
// of HashiCorp Vault, authenticated with a token.
type VaultBackend struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	log         *slog.Logger
	locationURI string
}

// NewVaultBackend creates a new Vault storage backend.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - mountPath: KV v2 mount path (e.g. "secret")
//   - dataPath: Path within the mount (e.g. "registry")
//   - token: Vault token; empty falls back to VAULT_TOKEN
//   - log: Structured logger for operational insights
func NewVaultBackend(address, mountPath, dataPath, token string, log *slog.Logger) (*VaultBackend, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.HttpClient = &http.Client{
		Timeout: 30 * time.Second,
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	mountPath = strings.Trim(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultBackend{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", strings.TrimPrefix(strings.TrimPrefix(address, "https://"), "http://"), mountPath, dataPath),
	}, nil
}

// Get reads the secret stored for key.
func (b *VaultBackend) Get(ctx context.Context, key []byte) ([]byte, error) {
	secretPath := b.secretPath(key)

	secret, err := b.client.KVv2(b.mountPath).Get(ctx, secretPath)
	if errors.Is(err, api.ErrSecretNotFound) {
		return nil, interfaces.ErrKeyNotFound
	}
	if err != nil {
		b.log.Error("Failed to read from Vault",
			slog.String("path", secretPath),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, interfaces.ErrKeyNotFound
	}

	content, ok := secret.Data["value"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid value format in Vault data at %s", secretPath)
	}

	value, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return nil, fmt.Errorf("invalid value encoding in Vault data at %s: %w", secretPath, err)
	}
	return value, nil
}

// Put writes a new version of the secret for key.
func (b *VaultBackend) Put(ctx context.Context, key []byte, value []byte) error {
	secretPath := b.secretPath(key)

	_, err := b.client.KVv2(b.mountPath).Put(ctx, secretPath, map[string]interface{}{
		"value": base64.StdEncoding.EncodeToString(value),
	})
	if err != nil {
		b.log.Error("Failed to write to Vault",
			slog.String("path", secretPath),
			"err", err)
		return fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	b.log.Debug("Stored value in Vault", slog.String("path", secretPath))
	return nil
}

// Available checks if the Vault backend is accessible.
// It uses the health endpoint to verify that Vault is initialized and unsealed.
func (b *VaultBackend) Available(ctx context.Context) bool {
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := b.client.Sys().HealthWithContext(healthCtx)
	if err != nil {
		b.log.Debug("Vault health check failed", "err", err)
		return false
	}

	if !health.Initialized || health.Sealed {
		b.log.Debug("Vault is not available",
			slog.Bool("initialized", health.Initialized),
			slog.Bool("sealed", health.Sealed))
		return false
	}

	return true
}

// Name returns a unique identifier for this storage backend.
func (b *VaultBackend) Name() string {
	return fmt.Sprintf("vault-%s-%s", b.mountPath, b.dataPath)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *VaultBackend) LocationURI() string {
	return b.locationURI
}

func (b *VaultBackend) Close() error {
	return nil
}

func (b *VaultBackend) secretPath(key []byte) string {
	name := hex.EncodeToString(key)
	if b.dataPath == "" {
		return name
	}
	return b.dataPath + "/" + name
}
