package storage

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/ruteri/content-hash-registry/interfaces"
)

// IPFSBackend implements a storage backend on the mutable file system (MFS)
// of an IPFS node. Each key is a file named by its hex encoding under root.
type IPFSBackend struct {
	shell       *shell.Shell
	host        string
	port        string
	root        string
	timeout     time.Duration
	log         *slog.Logger
	locationURI string
}

// NewIPFSBackend creates a new IPFS storage backend connected to the API of the node at host:port.
func NewIPFSBackend(host, port, root string, timeout time.Duration, log *slog.Logger) (*IPFSBackend, error) {
	apiURL := fmt.Sprintf("%s:%s", host, port)

	root = "/" + strings.Trim(root, "/")

	sh := shell.NewShell(apiURL)
	sh.SetTimeout(timeout)

	return &IPFSBackend{
		shell:       sh,
		host:        host,
		port:        port,
		root:        root,
		timeout:     timeout,
		log:         log,
		locationURI: fmt.Sprintf("ipfs://%s%s?timeout=%s", apiURL, root, timeout),
	}, nil
}

// Get reads the MFS file for key. Returns ErrKeyNotFound if the file doesn't
// exist or ErrBackendUnavailable if the IPFS node is not accessible.
func (b *IPFSBackend) Get(ctx context.Context, key []byte) ([]byte, error) {
	start := time.Now()
	filePath := b.getMFSPath(key)

	reader, err := b.shell.FilesRead(ctx, filePath)
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") {
			return nil, interfaces.ErrKeyNotFound
		}

		b.log.Error("Failed to read file from IPFS",
			slog.String("path", filePath),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read data from IPFS: %w", err)
	}

	b.log.Debug("Fetched value from IPFS",
		slog.String("path", filePath),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Put writes value to the MFS file for key, replacing any previous content.
func (b *IPFSBackend) Put(ctx context.Context, key []byte, value []byte) error {
	filePath := b.getMFSPath(key)

	err := b.shell.FilesWrite(ctx, filePath, bytes.NewReader(value),
		shell.FilesWrite.Create(true),
		shell.FilesWrite.Parents(true),
		shell.FilesWrite.Truncate(true))
	if err != nil {
		return fmt.Errorf("failed to write file to IPFS: %w", err)
	}

	b.log.Debug("Stored value in IPFS",
		slog.String("path", filePath),
		slog.Int("size", len(value)))

	return nil
}

// Available checks if the IPFS node is accessible.
func (b *IPFSBackend) Available(ctx context.Context) bool {
	return b.shell.IsUp()
}

// Name returns a unique identifier for this storage backend.
func (b *IPFSBackend) Name() string {
	return fmt.Sprintf("ipfs-%s-%s", b.host, b.port)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *IPFSBackend) LocationURI() string {
	return b.locationURI
}

func (b *IPFSBackend) Close() error {
	return nil
}

func (b *IPFSBackend) getMFSPath(key []byte) string {
	return path.Join(b.root, hex.EncodeToString(key))
}
