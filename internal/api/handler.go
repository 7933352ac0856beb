package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/eugenenazirov/conductor-config/internal/conductor"
	"github.com/eugenenazirov/conductor-config/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const maxSourceBytes = 1 << 20

// Resolver turns a YAML document into a resolved configuration.
type Resolver interface {
	LoadBytes(data []byte, overrides conductor.Overrides) (*conductor.Config, error)
}

// Handler wires resolver and storage dependencies into HTTP handlers.
type Handler struct {
	resolver  Resolver
	storage   storage.Storage
	overrides conductor.Overrides

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithOverrides sets the variables every resolution runs against.
func WithOverrides(overrides conductor.Overrides) HandlerOption {
	return func(h *Handler) {
		h.overrides = overrides
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(resolver Resolver, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		resolver: resolver,
		storage:  store,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	_ = r
	snapshot, ok := h.currentSnapshot(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newConfigResponse(snapshot.Config, snapshot.ResolvedAt, ""))
}

func (h *Handler) handleGetCapabilities(w http.ResponseWriter, r *http.Request) {
	_ = r
	snapshot, ok := h.currentSnapshot(w)
	if !ok {
		return
	}

	caps, err := snapshot.Config.Capabilities()
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, capabilitiesResponse{Capabilities: caps})
}

func (h *Handler) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	source, ok := readSource(w, r)
	if !ok {
		return
	}

	cfg, ok := h.resolve(w, source, h.overrides)
	if !ok {
		return
	}

	resolvedAt := h.clock()
	if err := h.storage.SetSnapshot(storage.Snapshot{Config: cfg, Source: source, ResolvedAt: resolvedAt}); err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newConfigResponse(cfg, resolvedAt, "Configuration updated successfully"))
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	source, ok := readSource(w, r)
	if !ok {
		return
	}

	overrides := conductor.Overrides{
		Properties:  maps.Clone(h.overrides.Properties),
		Environment: h.overrides.Environment,
	}
	if overrides.Properties == nil {
		overrides.Properties = map[string]string{}
	}
	query := r.URL.Query()
	if platform := strings.TrimSpace(query.Get("platform")); platform != "" {
		overrides.Properties[conductor.PlatformOverride] = platform
	}
	if schemes := strings.TrimSpace(query.Get("schemes")); schemes != "" {
		overrides.Properties[conductor.SchemesOverride] = schemes
	}

	cfg, ok := h.resolve(w, source, overrides)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newConfigResponse(cfg, h.clock(), ""))
}

func (h *Handler) currentSnapshot(w http.ResponseWriter) (storage.Snapshot, bool) {
	snapshot, err := h.storage.GetSnapshot()
	if err != nil {
		if errors.Is(err, storage.ErrNoSnapshot) {
			writeError(w, http.StatusNotFound, "No configuration", err.Error(), "PUT a YAML document to /api/config")
			return storage.Snapshot{}, false
		}
		writeInternalError(w, err)
		return storage.Snapshot{}, false
	}
	return snapshot, true
}

func (h *Handler) resolve(w http.ResponseWriter, source []byte, overrides conductor.Overrides) (*conductor.Config, bool) {
	cfg, err := h.resolver.LoadBytes(source, overrides)
	if err != nil {
		switch {
		case errors.Is(err, conductor.ErrMalformedSource):
			writeError(w, http.StatusBadRequest, "Invalid configuration", err.Error())
		case errors.Is(err, conductor.ErrInvalidPlatform):
			writeError(w, http.StatusUnprocessableEntity, "Invalid platform", err.Error(), "Use one of NONE, IOS, ANDROID")
		default:
			writeInternalError(w, err)
		}
		return nil, false
	}
	return cfg, true
}

func readSource(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	source, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSourceBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", fmt.Sprintf("unable to read body: %v", err))
		return nil, false
	}
	return source, true
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type configResponse struct {
	Config      *conductor.Config `json:"config"`
	FullAppPath string            `json:"fullAppPath,omitempty"`
	Local       bool              `json:"local"`
	ResolvedAt  time.Time         `json:"resolvedAt"`
	Message     string            `json:"message,omitempty"`
}

func newConfigResponse(cfg *conductor.Config, resolvedAt time.Time, message string) configResponse {
	// an unresolvable working directory only drops the informational field
	appPath, _ := cfg.FullAppPath()
	return configResponse{
		Config:      cfg,
		FullAppPath: appPath,
		Local:       cfg.IsLocal(),
		ResolvedAt:  resolvedAt,
		Message:     message,
	}
}

type capabilitiesResponse struct {
	Capabilities map[string]any `json:"capabilities"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
