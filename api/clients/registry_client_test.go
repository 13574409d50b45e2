package clients

import (
	"context"
	"io"
	"encoding/hex"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/content-hash-registry/api"
	"github.com/ruteri/content-hash-registry/cryptoutils"
	"github.com/ruteri/content-hash-registry/host"
	"github.com/ruteri/content-hash-registry/httpserver"
	"github.com/ruteri/content-hash-registry/interfaces"
	"github.com/ruteri/content-hash-registry/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T, gasLimit uint64) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	h, err := host.New(host.Config{Store: storage.NewMemoryBackend(log), GasLimit: gasLimit, Log: log})
	require.NoError(t, err)

	cfg := &api.HTTPServerConfig{Log: log, GracefulShutdownDuration: time.Second}
	srv := httptest.NewServer(httpserver.New(cfg, httpserver.NewHandler(h, log, 0, 0), nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestRegistryClient_RoundTrip(t *testing.T) {
	srv := newTestAPI(t, 0)
	ctx := context.Background()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	client := NewRegistryClient(srv.URL+"/", key, 5*time.Second)

	self, err := client.Identity()
	require.NoError(t, err)
	assert.Equal(t, cryptoutils.IdentityOf(&key.PublicKey), self)

	addr, err := client.Create(ctx)
	require.NoError(t, err)

	reg := client.At(addr)
	owner, err := reg.Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, self, owner)

	entries, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	hashes := []interfaces.ContentHash{
		interfaces.ComputeContentHash([]byte("a")),
		interfaces.ComputeContentHash([]byte("b")),
		interfaces.ComputeContentHash([]byte("a")),
	}
	for _, h := range hashes {
		require.NoError(t, reg.Append(ctx, h))
	}

	entries, err = reg.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, hashes, entries)

	info, err := client.Info(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), info.Entries)

	// a second caller can append but does not become owner
	otherKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	other := NewRegistryClient(srv.URL, otherKey).At(addr)
	require.NoError(t, other.Append(ctx, hashes[1]))

	owner, err = other.Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, self, owner)
}

func TestRegistryClient_Errors(t *testing.T) {
	srv := newTestAPI(t, 44200)
	ctx := context.Background()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	client := NewRegistryClient(srv.URL, key)

	_, err = client.List(ctx, interfaces.ContractAddress{0xaa})
	assert.ErrorIs(t, err, interfaces.ErrUnknownRegistry)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.StatusCode)

	// deployment needs more gas than the server allows
	_, err = client.Create(ctx)
	assert.ErrorIs(t, err, interfaces.ErrOutOfGas)

	readOnly := NewRegistryClient(srv.URL, nil)
	_, err = readOnly.Create(ctx)
	assert.Error(t, err)
	_, err = readOnly.Identity()
	assert.Error(t, err)
}

func TestCreateSignedRequest(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	body := []byte(`{"hash":"0x01"}`)

	before := time.Now().Unix()
	req, err := CreateSignedRequest(context.Background(), http.MethodPost, "http://registry.local/api/registries/0x01/entries?x=1", body, key)
	require.NoError(t, err)

	timestamp, err := strconv.ParseInt(req.Header.Get(api.TimestampHeader), 10, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, timestamp, before)
	assert.LessOrEqual(t, timestamp, time.Now().Unix())

	sig, err := hex.DecodeString(strings.TrimPrefix(req.Header.Get(api.SignatureHeader), "0x"))
	require.NoError(t, err)
	signer, err := cryptoutils.RecoverRequestSigner(sig, http.MethodPost, "/api/registries/0x01/entries", timestamp, body)
	require.NoError(t, err)
	assert.Equal(t, cryptoutils.IdentityOf(&key.PublicKey), signer)
	assert.Equal(t, signer.String(), req.Header.Get(api.CallerHeader))
}
