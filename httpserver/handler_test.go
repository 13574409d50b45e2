package httpserver

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
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
	"github.com/ruteri/content-hash-registry/interfaces"
	"github.com/ruteri/content-hash-registry/registry"
	"github.com/ruteri/content-hash-registry/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testServer(t *testing.T, rh interfaces.RegistryHost, maxBodySize int64) http.Handler {
	t.Helper()
	cfg := &api.HTTPServerConfig{
		ListenAddr:               "127.0.0.1:0",
		Log:                      testLogger(),
		DrainDuration:            time.Millisecond,
		GracefulShutdownDuration: time.Second,
	}
	return New(cfg, NewHandler(rh, cfg.Log, maxBodySize, 0), nil).Handler()
}

func memoryHost(t *testing.T) *host.Host {
	t.Helper()
	h, err := host.New(host.Config{Store: storage.NewMemoryBackend(testLogger()), Log: testLogger()})
	require.NoError(t, err)
	return h
}

func newKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key
}

func signedRequest(t *testing.T, key *ecdsa.PrivateKey, method, path string, body []byte) *http.Request {
	t.Helper()
	return signedRequestAt(t, key, method, path, body, time.Now())
}

func signedRequestAt(t *testing.T, key *ecdsa.PrivateKey, method, path string, body []byte, at time.Time) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	sig, err := cryptoutils.SignRequest(key, method, path, at.Unix(), body)
	require.NoError(t, err)
	req.Header.Set(api.SignatureHeader, "0x"+hex.EncodeToString(sig))
	req.Header.Set(api.TimestampHeader, strconv.FormatInt(at.Unix(), 10))
	return req
}

func serve(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func appendBody(t *testing.T, hash interfaces.ContentHash) []byte {
	t.Helper()
	body, err := json.Marshal(api.AppendEntryRequest{Hash: hash})
	require.NoError(t, err)
	return body
}

func TestRegistryAPI_Scenario(t *testing.T) {
	handler := testServer(t, memoryHost(t), 0)
	alice := newKey(t)
	bob := newKey(t)

	rr := serve(handler, signedRequest(t, alice, http.MethodPost, "/api/registries", nil))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[api.CreateRegistryResponse](t, rr)
	assert.Equal(t, cryptoutils.IdentityOf(&alice.PublicKey), created.Owner)

	entriesPath := "/api/registries/" + created.Address.String() + "/entries"

	h1 := interfaces.ComputeContentHash([]byte("first"))
	h2 := interfaces.ComputeContentHash([]byte("second"))

	rr = serve(handler, signedRequest(t, alice, http.MethodPost, entriesPath, appendBody(t, h1)))
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	// appends are open to every caller
	rr = serve(handler, signedRequest(t, bob, http.MethodPost, entriesPath, appendBody(t, h2)))
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	rr = serve(handler, signedRequest(t, alice, http.MethodPost, entriesPath, appendBody(t, h1)))
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	rr = serve(handler, httptest.NewRequest(http.MethodGet, entriesPath, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	listed := decode[api.ListEntriesResponse](t, rr)
	assert.Equal(t, []interfaces.ContentHash{h1, h2, h1}, listed.Entries)

	rr = serve(handler, httptest.NewRequest(http.MethodGet, "/api/registries/"+created.Address.String(), nil))
	require.Equal(t, http.StatusOK, rr.Code)
	info := decode[api.RegistryInfoResponse](t, rr)
	assert.Equal(t, created.Address, info.Address)
	assert.Equal(t, created.Owner, info.Owner)
	assert.Equal(t, uint64(3), info.Entries)
}

func TestRegistryAPI_EmptyListIsArray(t *testing.T) {
	handler := testServer(t, memoryHost(t), 0)

	rr := serve(handler, signedRequest(t, newKey(t), http.MethodPost, "/api/registries", nil))
	require.Equal(t, http.StatusCreated, rr.Code)
	created := decode[api.CreateRegistryResponse](t, rr)

	rr = serve(handler, httptest.NewRequest(http.MethodGet, "/api/registries/"+created.Address.String()+"/entries", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"entries":[]}`, rr.Body.String())
}

func TestRegistryAPI_Authentication(t *testing.T) {
	handler := testServer(t, memoryHost(t), 0)
	key := newKey(t)

	t.Run("missing signature", func(t *testing.T) {
		rr := serve(handler, httptest.NewRequest(http.MethodPost, "/api/registries", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, decode[api.ErrorResponse](t, rr).Error, "missing signature")
	})

	t.Run("malformed signature", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/registries", nil)
		req.Header.Set(api.SignatureHeader, "zz")
		assert.Equal(t, http.StatusUnauthorized, serve(handler, req).Code)

		req = httptest.NewRequest(http.MethodPost, "/api/registries", nil)
		req.Header.Set(api.SignatureHeader, "abcd")
		assert.Equal(t, http.StatusUnauthorized, serve(handler, req).Code)
	})

	t.Run("tampered body", func(t *testing.T) {
		// a signature over another body recovers to an unrelated identity
		req := signedRequest(t, key, http.MethodPost, "/api/registries", []byte("signed"))
		req.Body = io.NopCloser(strings.NewReader("tampered"))
		req.Header.Set(api.CallerHeader, cryptoutils.IdentityOf(&key.PublicKey).String())
		assert.Equal(t, http.StatusUnauthorized, serve(handler, req).Code)
	})

	t.Run("timestamp window", func(t *testing.T) {
		caller := cryptoutils.IdentityOf(&key.PublicKey).String()
		tests := []struct {
			name     string
			at       time.Time
			expected int
		}{
			{name: "recent", at: time.Now().Add(-4 * time.Minute), expected: http.StatusCreated},
			{name: "slightly ahead", at: time.Now().Add(time.Minute), expected: http.StatusCreated},
			{name: "stale", at: time.Now().Add(-10 * time.Minute), expected: http.StatusUnauthorized},
			{name: "future", at: time.Now().Add(10 * time.Minute), expected: http.StatusUnauthorized},
		}
		for _, tt := range tests {
			req := signedRequestAt(t, key, http.MethodPost, "/api/registries", nil, tt.at)
			req.Header.Set(api.CallerHeader, caller)
			assert.Equal(t, tt.expected, serve(handler, req).Code, tt.name)
		}
	})

	t.Run("timestamp header", func(t *testing.T) {
		req := signedRequest(t, key, http.MethodPost, "/api/registries", nil)
		req.Header.Del(api.TimestampHeader)
		rr := serve(handler, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, decode[api.ErrorResponse](t, rr).Error, "missing timestamp")

		req = signedRequest(t, key, http.MethodPost, "/api/registries", nil)
		req.Header.Set(api.TimestampHeader, "yesterday")
		assert.Equal(t, http.StatusBadRequest, serve(handler, req).Code)

		// moving a signature to another time recovers an unrelated identity
		at := time.Now()
		req = signedRequestAt(t, key, http.MethodPost, "/api/registries", nil, at)
		req.Header.Set(api.TimestampHeader, strconv.FormatInt(at.Unix()-1, 10))
		req.Header.Set(api.CallerHeader, cryptoutils.IdentityOf(&key.PublicKey).String())
		assert.Equal(t, http.StatusUnauthorized, serve(handler, req).Code)
	})

	t.Run("caller header", func(t *testing.T) {
		req := signedRequest(t, key, http.MethodPost, "/api/registries", nil)
		req.Header.Set(api.CallerHeader, cryptoutils.IdentityOf(&key.PublicKey).String())
		assert.Equal(t, http.StatusCreated, serve(handler, req).Code)

		req = signedRequest(t, key, http.MethodPost, "/api/registries", nil)
		req.Header.Set(api.CallerHeader, cryptoutils.IdentityOf(&newKey(t).PublicKey).String())
		assert.Equal(t, http.StatusUnauthorized, serve(handler, req).Code)

		req = signedRequest(t, key, http.MethodPost, "/api/registries", nil)
		req.Header.Set(api.CallerHeader, "not-an-identity")
		assert.Equal(t, http.StatusBadRequest, serve(handler, req).Code)
	})
}

func TestRegistryAPI_BadInput(t *testing.T) {
	handler := testServer(t, memoryHost(t), 64)
	key := newKey(t)

	rr := serve(handler, httptest.NewRequest(http.MethodGet, "/api/registries/0x1234/entries", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(handler, signedRequest(t, key, http.MethodPost, "/api/registries", nil))
	require.Equal(t, http.StatusCreated, rr.Code)
	entriesPath := "/api/registries/" + decode[api.CreateRegistryResponse](t, rr).Address.String() + "/entries"

	for name, body := range map[string]string{
		"not json":     `{`,
		"missing hash": `{}`,
		"short hash":   `{"hash":"0x1234"}`,
	} {
		rr := serve(handler, signedRequest(t, key, http.MethodPost, entriesPath, []byte(body)))
		assert.Equal(t, http.StatusBadRequest, rr.Code, name)
	}

	rr = serve(handler, signedRequest(t, key, http.MethodPost, entriesPath, bytes.Repeat([]byte(" "), 65)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestRegistryAPI_UnknownRegistry(t *testing.T) {
	handler := testServer(t, memoryHost(t), 0)
	addr := "/api/registries/0x00000000000000000000000000000000000000aa"

	assert.Equal(t, http.StatusNotFound, serve(handler, httptest.NewRequest(http.MethodGet, addr, nil)).Code)
	assert.Equal(t, http.StatusNotFound, serve(handler, httptest.NewRequest(http.MethodGet, addr+"/entries", nil)).Code)

	body := appendBody(t, interfaces.ComputeContentHash([]byte("x")))
	assert.Equal(t, http.StatusNotFound, serve(handler, signedRequest(t, newKey(t), http.MethodPost, addr+"/entries", body)).Code)
}

func TestRegistryAPI_HostErrors(t *testing.T) {
	key := newKey(t)
	caller := cryptoutils.IdentityOf(&key.PublicKey)
	addr := interfaces.ContractAddress{0xaa}
	hash := interfaces.ComputeContentHash([]byte("x"))
	path := "/api/registries/" + addr.String() + "/entries"

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "out of gas", err: interfaces.ErrOutOfGas, expected: http.StatusUnprocessableEntity},
		{name: "aborted", err: interfaces.ErrExecutionAborted, expected: http.StatusInternalServerError},
		{name: "invalid caller", err: interfaces.ErrInvalidCaller, expected: http.StatusUnauthorized},
		{name: "store", err: errors.New("disk on fire"), expected: http.StatusInternalServerError},
		{name: "backend offline", err: interfaces.ErrBackendUnavailable, expected: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rh := new(registry.MockRegistryHost)
			rh.On("Append", mock.Anything, addr, caller, hash).Return(tt.err)

			rr := serve(testServer(t, rh, 0), signedRequest(t, key, http.MethodPost, path, appendBody(t, hash)))
			assert.Equal(t, tt.expected, rr.Code)
			assert.Contains(t, decode[api.ErrorResponse](t, rr).Error, tt.err.Error())
			rh.AssertExpectations(t)
		})
	}
}

func TestRegistryAPI_CreatePassesCaller(t *testing.T) {
	key := newKey(t)
	caller := cryptoutils.IdentityOf(&key.PublicKey)
	addr := interfaces.ContractAddress{0x01}

	rh := new(registry.MockRegistryHost)
	rh.On("Create", mock.MatchedBy(func(ctx context.Context) bool { return ctx != nil }), caller).Return(addr, nil)

	rr := serve(testServer(t, rh, 0), signedRequest(t, key, http.MethodPost, "/api/registries", nil))
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, api.CreateRegistryResponse{Address: addr, Owner: caller}, decode[api.CreateRegistryResponse](t, rr))
	rh.AssertExpectations(t)
}

func TestRegistryAPI_InfoDoesNotListEntries(t *testing.T) {
	addr := interfaces.ContractAddress{0x01}
	owner := interfaces.Identity{0x02}

	rh := new(registry.MockRegistryHost)
	rh.On("Owner", mock.Anything, addr).Return(owner, nil)
	rh.On("Len", mock.Anything, addr).Return(uint64(1_000_000), nil)

	rr := serve(testServer(t, rh, 0), httptest.NewRequest(http.MethodGet, "/api/registries/"+addr.String(), nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, api.RegistryInfoResponse{Address: addr, Owner: owner, Entries: 1_000_000}, decode[api.RegistryInfoResponse](t, rr))
	rh.AssertExpectations(t)
	rh.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestHealthEndpoints(t *testing.T) {
	handler := testServer(t, new(registry.MockRegistryHost), 0)

	get := func(path string) *httptest.ResponseRecorder {
		return serve(handler, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, http.StatusOK, get("/livez").Code)
	assert.Equal(t, http.StatusOK, get("/readyz").Code)

	assert.JSONEq(t, `{"status":"draining"}`, get("/drain").Body.String())
	assert.JSONEq(t, `{"status":"already draining"}`, get("/drain").Body.String())
	assert.Equal(t, http.StatusServiceUnavailable, get("/readyz").Code)

	assert.JSONEq(t, `{"status":"ready"}`, get("/undrain").Body.String())
	assert.JSONEq(t, `{"status":"already ready"}`, get("/undrain").Body.String())
	assert.Equal(t, http.StatusOK, get("/readyz").Code)
}
