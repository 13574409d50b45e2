package clients

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ruteri/content-hash-registry/api"
	"github.com/ruteri/content-hash-registry/cryptoutils"
	"github.com/ruteri/content-hash-registry/interfaces"
)

// APIError is a non-2xx response from the registry API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("registry API returned %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps well-known status codes back to the registry errors they carry.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return interfaces.ErrUnknownRegistry
	case http.StatusUnprocessableEntity:
		return interfaces.ErrOutOfGas
	case http.StatusUnauthorized:
		return interfaces.ErrInvalidCaller
	}
	return nil
}

// RegistryClient talks to the registry HTTP API, signing mutating requests
// with the caller's key.
type RegistryClient struct {
	baseURL    string
	privateKey *ecdsa.PrivateKey
	httpClient *http.Client
}

// NewRegistryClient creates a client for the API at baseURL (e.g. "http://localhost:8080").
// privateKey may be nil for a read-only client.
//
// Parameters:
//   - baseURL: The base URL of the registry API
//   - privateKey: The caller's secp256k1 key
//   - timeout: Request timeout duration (optional, default 30 seconds)
func NewRegistryClient(baseURL string, privateKey *ecdsa.PrivateKey, timeout ...time.Duration) *RegistryClient {
	clientTimeout := 30 * time.Second
	if len(timeout) > 0 {
		clientTimeout = timeout[0]
	}

	return &RegistryClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		privateKey: privateKey,
		httpClient: &http.Client{
			Timeout: clientTimeout,
		},
	}
}

// Identity returns the identity requests are signed as.
func (c *RegistryClient) Identity() (interfaces.Identity, error) {
	if c.privateKey == nil {
		return interfaces.Identity{}, errors.New("client has no private key")
	}
	return cryptoutils.IdentityOf(&c.privateKey.PublicKey), nil
}

// Create deploys a new registry owned by the client's identity.
func (c *RegistryClient) Create(ctx context.Context) (interfaces.ContractAddress, error) {
	var resp api.CreateRegistryResponse
	if err := c.do(ctx, http.MethodPost, "/api/registries", nil, true, http.StatusCreated, &resp); err != nil {
		return interfaces.ContractAddress{}, err
	}
	return resp.Address, nil
}

// Info returns the owner and entry count of the registry at addr.
func (c *RegistryClient) Info(ctx context.Context, addr interfaces.ContractAddress) (*api.RegistryInfoResponse, error) {
	var resp api.RegistryInfoResponse
	if err := c.do(ctx, http.MethodGet, registryPath(addr), nil, false, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Append records hash in the registry at addr.
func (c *RegistryClient) Append(ctx context.Context, addr interfaces.ContractAddress, hash interfaces.ContentHash) error {
	body, err := json.Marshal(api.AppendEntryRequest{Hash: hash})
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, registryPath(addr)+"/entries", body, true, http.StatusNoContent, nil)
}

// List returns all hashes recorded in the registry at addr.
func (c *RegistryClient) List(ctx context.Context, addr interfaces.ContractAddress) ([]interfaces.ContentHash, error) {
	var resp api.ListEntriesResponse
	if err := c.do(ctx, http.MethodGet, registryPath(addr)+"/entries", nil, false, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// At returns a view of the registry at addr bound to the client's identity.
func (c *RegistryClient) At(addr interfaces.ContractAddress) interfaces.Registry {
	return &remoteRegistry{client: c, addr: addr}
}

func registryPath(addr interfaces.ContractAddress) string {
	return "/api/registries/" + addr.String()
}

func (c *RegistryClient) do(ctx context.Context, method, path string, body []byte, sign bool, expected int, out any) error {
	var (
		req *http.Request
		err error
	)
	if sign {
		if c.privateKey == nil {
			return errors.New("client has no private key")
		}
		req, err = CreateSignedRequest(ctx, method, c.baseURL+path, body, c.privateKey)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	}
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != expected {
		raw, _ := io.ReadAll(resp.Body)
		var errResp api.ErrorResponse
		if json.Unmarshal(raw, &errResp) != nil || errResp.Error == "" {
			errResp.Error = strings.TrimSpace(string(raw))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// CreateSignedRequest creates a request carrying the caller signature and
// caller headers the registry API authenticates.
//
// The signature covers the method, the URL path, the current time and the
// body, see cryptoutils.SignRequest.
func CreateSignedRequest(ctx context.Context, method, reqURL string, body []byte, privateKey *ecdsa.PrivateKey) (*http.Request, error) {
	parsedURL, err := url.Parse(reqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	timestamp := time.Now().Unix()
	signature, err := cryptoutils.SignRequest(privateKey, method, parsedURL.Path, timestamp, body)
	if err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}

	req.Header.Set(api.SignatureHeader, "0x"+hex.EncodeToString(signature))
	req.Header.Set(api.TimestampHeader, strconv.FormatInt(timestamp, 10))
	req.Header.Set(api.CallerHeader, cryptoutils.IdentityOf(&privateKey.PublicKey).String())
	return req, nil
}

type remoteRegistry struct {
	client *RegistryClient
	addr   interfaces.ContractAddress
}

func (r *remoteRegistry) Owner(ctx context.Context) (interfaces.Identity, error) {
	info, err := r.client.Info(ctx, r.addr)
	if err != nil {
		return interfaces.Identity{}, err
	}
	return info.Owner, nil
}

func (r *remoteRegistry) Append(ctx context.Context, hash interfaces.ContentHash) error {
	return r.client.Append(ctx, r.addr, hash)
}

func (r *remoteRegistry) List(ctx context.Context) ([]interfaces.ContentHash, error) {
	return r.client.List(ctx, r.addr)
}
