package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/matzehuels/statbridge/pkg/buildinfo"
	"github.com/matzehuels/statbridge/pkg/errors"
	"github.com/matzehuels/statbridge/pkg/pipeline"
	"github.com/matzehuels/statbridge/pkg/tools"
)

// RequestIDHeader carries the request id on requests and responses.
const RequestIDHeader = "X-Request-Id"

const (
	// maxBodySize bounds a tool call body.
	maxBodySize = 1 << 20

	shutdownTimeout = 10 * time.Second

	// DefaultMaxInFlight bounds concurrent tool calls.
	DefaultMaxInFlight = 8
)

type ctxKey struct{}

// RequestID returns the id assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// HTTP serves the registry over plain HTTP.
type HTTP struct {
	Registry *tools.Registry
	Runner   *pipeline.Runner
	Logger   *log.Logger

	router chi.Router
	calls  *semaphore.Weighted
}

// HTTPOption configures an [HTTP] server.
type HTTPOption func(*HTTP)

// WithMaxInFlight bounds how many tool calls run at once; further calls
// wait for a slot until their request is cancelled. n <= 0 keeps the
// default.
func WithMaxInFlight(n int) HTTPOption {
	return func(h *HTTP) {
		if n > 0 {
			h.calls = semaphore.NewWeighted(int64(n))
		}
	}
}

// NewHTTP builds the router.
func NewHTTP(reg *tools.Registry, r *pipeline.Runner, logger *log.Logger, opts ...HTTPOption) *HTTP {
	if logger == nil {
		logger = log.Default()
	}
	h := &HTTP{
		Registry: reg,
		Runner:   r,
		Logger:   logger,
		router:   chi.NewRouter(),
		calls:    semaphore.NewWeighted(DefaultMaxInFlight),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.setupMiddleware()
	h.setupRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// ListenAndServe serves h on addr until ctx is done, then shuts down,
// giving in-flight calls up to shutdownTimeout to finish.
func (h *HTTP) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	h.Logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	h.Logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (h *HTTP) setupMiddleware() {
	h.router.Use(requestID)
	h.router.Use(middleware.Recoverer)
	h.router.Use(h.logRequests)
}

func (h *HTTP) setupRoutes() {
	h.router.Get("/healthz", h.handleHealth)
	h.router.Get("/tools", h.handleListTools)
	h.router.Post("/tools/{name}", h.handleCallTool)
	h.router.Get("/sources", h.handleSources)
}

// requestID reuses an incoming X-Request-Id or assigns a fresh UUID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func (h *HTTP) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.Logger.Info("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", RequestID(r.Context()))
	})
}

func (h *HTTP) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (h *HTTP) handleListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": h.Registry.List()})
}

func (h *HTTP) handleSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sources": h.Runner.Sources()})
}

func (h *HTTP) handleCallTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := h.Registry.Get(name); !ok {
		h.writeError(w, r, errors.New(errors.ErrCodeUnknownTool, "unknown tool: %s", name))
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		h.writeError(w, r, errors.Invalid("arguments", "read body: %v", err))
		return
	}
	if err := h.calls.Acquire(r.Context(), 1); err != nil {
		h.Logger.Warn("no call slot", "tool", name, "err", err, "request_id", RequestID(r.Context()))
		writeJSON(w, http.StatusServiceUnavailable, errors.ToPayload(errors.Wrap(errors.ErrCodeInternal, err, "server busy")))
		return
	}
	defer h.calls.Release(1)

	out, err := h.Registry.Call(r.Context(), name, body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTP) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Warn("tool error", "status", status, "err", err, "request_id", RequestID(r.Context()))
	}
	writeJSON(w, status, errors.ToPayload(err))
}

// StatusFor maps an error to the HTTP status returned to callers: 400 for
// validation failures, 404 for unknown tools, 502 for upstream failures and
// 500 for everything else.
func StatusFor(err error) int {
	switch {
	case errors.IsValidation(err):
		return http.StatusBadRequest
	case errors.GetCode(err) == errors.ErrCodeUnknownTool:
		return http.StatusNotFound
	case errors.IsAPI(err):
		return http.StatusBadGateway
	case errors.GetCode(err) == errors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
