package httpserver

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/content-hash-registry/api"
	"github.com/ruteri/content-hash-registry/cryptoutils"
	"github.com/ruteri/content-hash-registry/interfaces"
)

// RequestError provides structured error information for HTTP responses.
// It includes both an HTTP status code and the underlying error.
type RequestError struct {
	// StatusCode is the HTTP status code to return.
	StatusCode int

	// Err is the underlying error.
	Err error
}

// Error returns the error message from the underlying error.
func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func badRequest(format string, args ...any) *RequestError {
	return &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf(format, args...)}
}

// Handler serves the registry API on top of a RegistryHost.
// Mutating requests are attributed to the identity recovered from their signature.
type Handler struct {
	host         interfaces.RegistryHost
	log          *slog.Logger
	maxBodySize  int64
	maxClockSkew time.Duration
}

// NewHandler creates a new HTTP request handler.
//
// Parameters:
//   - host: Registry host executing the operations
//   - log: Structured logger for operational insights
//   - maxBodySize: Request body limit in bytes, zero for api.DefaultMaxBodySize
//   - maxClockSkew: Accepted distance of a signature timestamp from now, zero for api.DefaultMaxClockSkew
func NewHandler(host interfaces.RegistryHost, log *slog.Logger, maxBodySize int64, maxClockSkew time.Duration) *Handler {
	if maxBodySize <= 0 {
		maxBodySize = api.DefaultMaxBodySize
	}
	if maxClockSkew <= 0 {
		maxClockSkew = api.DefaultMaxClockSkew
	}
	return &Handler{
		host:         host,
		log:          log,
		maxBodySize:  maxBodySize,
		maxClockSkew: maxClockSkew,
	}
}

// HandleCreate deploys a registry owned by the signing caller.
//
// URL format: POST /api/registries
// Required headers:
//   - X-Registry-Signature: signature over the request
//   - X-Registry-Timestamp: signing time in Unix seconds
//
// Response: 201 with {"address", "owner"}
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, caller, reqErr := h.readSigned(w, r)
	if reqErr != nil {
		h.writeError(w, reqErr)
		return
	}

	addr, err := h.host.Create(r.Context(), caller)
	if err != nil {
		h.log.Error("Create failed", "err", err, slog.String("caller", caller.String()))
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, api.CreateRegistryResponse{Address: addr, Owner: caller})
}

// HandleGetRegistry returns the owner and number of entries of a registry.
//
// URL format: GET /api/registries/{address}
func (h *Handler) HandleGetRegistry(w http.ResponseWriter, r *http.Request) {
	addr, reqErr := parseAddress(r)
	if reqErr != nil {
		h.writeError(w, reqErr)
		return
	}

	owner, err := h.host.Owner(r.Context(), addr)
	if err != nil {
		h.writeError(w, err)
		return
	}

	n, err := h.host.Len(r.Context(), addr)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.RegistryInfoResponse{
		Address: addr,
		Owner:   owner,
		Entries: n,
	})
}

// HandleAppend records a hash in a registry on behalf of the signing caller.
// Any caller may append.
//
// URL format: POST /api/registries/{address}/entries
// Required headers:
//   - X-Registry-Signature: signature over the request
//   - X-Registry-Timestamp: signing time in Unix seconds
//
// Request body: {"hash": "0x..."}
// Response: 204
func (h *Handler) HandleAppend(w http.ResponseWriter, r *http.Request) {
	addr, reqErr := parseAddress(r)
	if reqErr != nil {
		h.writeError(w, reqErr)
		return
	}

	body, caller, reqErr := h.readSigned(w, r)
	if reqErr != nil {
		h.writeError(w, reqErr)
		return
	}

	var req struct {
		Hash *interfaces.ContentHash `json:"hash"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeError(w, badRequest("invalid request body: %v", err))
		return
	}
	if req.Hash == nil {
		h.writeError(w, badRequest("missing hash"))
		return
	}

	if err := h.host.Append(r.Context(), addr, caller, *req.Hash); err != nil {
		h.log.Error("Append failed", "err", err,
			slog.String("registry", addr.String()),
			slog.String("caller", caller.String()))
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleList returns all hashes recorded in a registry in insertion order.
//
// URL format: GET /api/registries/{address}/entries
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	addr, reqErr := parseAddress(r)
	if reqErr != nil {
		h.writeError(w, reqErr)
		return
	}

	entries, err := h.host.List(r.Context(), addr)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if entries == nil {
		entries = []interfaces.ContentHash{}
	}
	h.writeJSON(w, http.StatusOK, api.ListEntriesResponse{Entries: entries})
}

// readSigned reads the request body and authenticates its signature.
func (h *Handler) readSigned(w http.ResponseWriter, r *http.Request) ([]byte, interfaces.Identity, *RequestError) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, interfaces.Identity{}, &RequestError{StatusCode: http.StatusRequestEntityTooLarge, Err: err}
		}
		return nil, interfaces.Identity{}, badRequest("failed to read request body: %v", err)
	}

	caller, reqErr := h.authenticate(r, body)
	if reqErr != nil {
		h.log.Warn("Authentication failed", "err", reqErr, slog.String("path", r.URL.Path))
		return nil, interfaces.Identity{}, reqErr
	}
	return body, caller, nil
}

func (h *Handler) authenticate(r *http.Request, body []byte) (interfaces.Identity, *RequestError) {
	unauthorized := func(err error) *RequestError {
		return &RequestError{StatusCode: http.StatusUnauthorized, Err: err}
	}

	sigHex := r.Header.Get(api.SignatureHeader)
	if sigHex == "" {
		return interfaces.Identity{}, unauthorized(errors.New("missing signature"))
	}

	sig, err := hex.DecodeString(strings.TrimPrefix(sigHex, "0x"))
	if err != nil {
		return interfaces.Identity{}, unauthorized(fmt.Errorf("invalid signature encoding: %w", err))
	}

	tsRaw := r.Header.Get(api.TimestampHeader)
	if tsRaw == "" {
		return interfaces.Identity{}, unauthorized(errors.New("missing timestamp"))
	}
	timestamp, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return interfaces.Identity{}, badRequest("invalid timestamp header %q", tsRaw)
	}
	signedAt := time.Unix(timestamp, 0)
	if skew := time.Since(signedAt); skew > h.maxClockSkew || skew < -h.maxClockSkew {
		return interfaces.Identity{}, unauthorized(fmt.Errorf("signature timestamp %s is outside the accepted window of %s", signedAt.UTC().Format(time.RFC3339), h.maxClockSkew))
	}

	caller, err := cryptoutils.RecoverRequestSigner(sig, r.Method, r.URL.Path, timestamp, body)
	if err != nil {
		return interfaces.Identity{}, unauthorized(err)
	}

	if claimed := r.Header.Get(api.CallerHeader); claimed != "" {
		expected, err := interfaces.NewIdentityFromHex(claimed)
		if err != nil {
			return interfaces.Identity{}, &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("invalid caller header: %w", err)}
		}
		if expected != caller {
			return interfaces.Identity{}, unauthorized(fmt.Errorf("signature of %s does not match caller %s", caller, expected))
		}
	}

	return caller, nil
}

func parseAddress(r *http.Request) (interfaces.ContractAddress, *RequestError) {
	raw := chi.URLParam(r, "address")
	addr, err := interfaces.NewContractAddressFromHex(raw)
	if err != nil {
		return interfaces.ContractAddress{}, badRequest("invalid registry address %q", raw)
	}
	return addr, nil
}

// statusFor maps an error to the HTTP status code returned for it.
func statusFor(err error) int {
	var reqErr *RequestError
	switch {
	case errors.As(err, &reqErr):
		return reqErr.StatusCode
	case errors.Is(err, interfaces.ErrUnknownRegistry):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrInvalidCaller):
		return http.StatusUnauthorized
	case errors.Is(err, interfaces.ErrOutOfGas):
		return http.StatusUnprocessableEntity
	case errors.Is(err, interfaces.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	h.writeJSON(w, statusFor(err), api.ErrorResponse{Error: err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}
