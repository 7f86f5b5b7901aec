// Package api implements the HTTP ingress adapter (C5): job validation,
// rate limiting, dispatch invocation, and outcome-to-response mapping, plus
// the WebSocket upgrade endpoint that hands connections off to a sink
// session.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/midsbie/promptivd/internal/audit"
	"github.com/midsbie/promptivd/internal/config"
	"github.com/midsbie/promptivd/internal/ratelimit"
	"github.com/midsbie/promptivd/internal/sink"
	"github.com/midsbie/promptivd"
)

// Version is set at build time via -ldflags; it is reported by
// GET /v1/health.
var Version = "dev"

// Server wires the ingress adapter to the dispatch engine, sink registry,
// rate limiter, audit writer and schema validator.
type Server struct {
	cfg       *config.Config
	registry  *sink.Registry
	engine    *sink.Engine
	limiter   *ratelimit.Limiter
	audit     *audit.Writer
	validator *SchemaValidator
	logger    promptivd.Logger

	httpServer *http.Server
}

// NewServer builds a Server ready to have Routes() mounted.
func NewServer(cfg *config.Config, registry *sink.Registry, engine *sink.Engine, limiter *ratelimit.Limiter, auditWriter *audit.Writer, logger promptivd.Logger) (*Server, error) {
	validator, err := NewSchemaValidator()
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:       cfg,
		registry:  registry,
		engine:    engine,
		limiter:   limiter,
		audit:     auditWriter,
		validator: validator,
		logger:    logger,
	}, nil
}

// Routes builds the mux described in the external interfaces contract.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/providers", s.handleProviders)
	mux.HandleFunc("POST /v1/insert", s.handleInsert)
	mux.HandleFunc("GET /v1/sink/ws", s.handleSinkWS)
	mux.Handle("GET /v1/metrics", metricsHandler())

	var handler http.Handler = mux
	handler = s.securityHeadersMiddleware(handler)
	handler = s.corsMiddleware(handler)
	handler = s.recoverMiddleware(handler)
	return handler
}

// ListenAndServe starts the HTTP server and blocks until ctx is cancelled,
// at which point it shuts down gracefully within a fixed grace period.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:        s.cfg.Server.BindAddr,
		Handler:     s.Routes(),
		ReadTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
