package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mychem-mcp/mychem-mcp/internal/client"
	"github.com/mychem-mcp/mychem-mcp/internal/config"
	"github.com/mychem-mcp/mychem-mcp/internal/server/middleware"
	"github.com/mychem-mcp/mychem-mcp/internal/tools"
)

// HTTPServer exposes the tool registry over plain HTTP for callers that do
// not speak MCP.
type HTTPServer struct {
	router    *chi.Mux
	server    *http.Server
	registry  *tools.Registry
	apiClient tools.Client
	version   string
	log       *zap.Logger
	cfg       config.HTTPConfig
}

// NewHTTPServer creates the HTTP transport.
func NewHTTPServer(cfg config.HTTPConfig, registry *tools.Registry, apiClient tools.Client, version string, log *zap.Logger) *HTTPServer {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)

	s := &HTTPServer{
		router:    r,
		registry:  registry,
		apiClient: apiClient,
		version:   version,
		log:       log,
		cfg:       cfg,
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/v1/tools", s.handleListTools)
	r.Post("/v1/tools/{name}", s.handleCallTool)

	return s
}

// Start blocks serving HTTP until the server is shut down.
func (s *HTTPServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.log.Info("starting http server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"name":    ServerName,
		"version": s.version,
	})
}

func (s *HTTPServer) handleListTools(w http.ResponseWriter, r *http.Request) {
	type toolInfo struct {
		Name        string          `json:"name"`
		Domain      string          `json:"domain"`
		Description string          `json:"description"`
		InputSchema json.RawMessage `json:"input_schema"`
	}

	all := s.registry.All()
	out := make([]toolInfo, 0, len(all))
	for _, t := range all {
		out = append(out, toolInfo{
			Name:        t.Name,
			Domain:      t.Domain,
			Description: t.Description,
			InputSchema: t.Schema,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"tools": out})
}

func (s *HTTPServer) handleCallTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	args := map[string]any{}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorPayload(name, fmt.Errorf("invalid request body: %w", err)))
			return
		}
	}

	result, err := s.registry.Call(r.Context(), s.apiClient, name, args)
	if err != nil {
		s.log.Warn("tool call failed",
			zap.String("tool", name),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err))
		s.writeJSON(w, statusForError(err), errorPayload(name, err))
		return
	}

	if text, ok := result.(string); ok {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(text))
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("failed to write response", zap.Error(err))
	}
}

// statusForError maps tool errors to HTTP status codes. API failures are
// upstream problems, argument errors are the caller's.
func statusForError(err error) int {
	if errors.Is(err, tools.ErrUnknownTool) {
		return http.StatusNotFound
	}
	if apiErr, ok := client.AsAPIError(err); ok {
		switch apiErr.Kind {
		case client.KindTimeout:
			return http.StatusGatewayTimeout
		case client.KindCancelled:
			return http.StatusRequestTimeout
		default:
			return http.StatusBadGateway
		}
	}
	return http.StatusBadRequest
}
