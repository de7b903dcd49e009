// Package api exposes the supervisor over HTTP with a Huma v2 API.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/smazurov/procman/internal/logging"
	"github.com/smazurov/procman/internal/metrics"
	"github.com/smazurov/procman/internal/supervisor"
	"github.com/smazurov/procman/internal/version"
)

// Server serves the supervisor API and the Prometheus scrape endpoint.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	sup        *supervisor.Supervisor
	logger     *slog.Logger
}

// NewServer builds the API around a supervisor instance.
func NewServer(sup *supervisor.Supervisor) *Server {
	mux := http.NewServeMux()

	config := huma.DefaultConfig("procman API", version.Version)
	config.Info.Description = "Process supervision API"
	config.Servers = []*huma.Server{}

	s := &Server{
		api:    humago.New(mux, config),
		mux:    mux,
		sup:    sup,
		logger: logging.GetLogger("api"),
	}

	mux.Handle("GET /metrics", metrics.Handler())
	s.registerRoutes()
	return s
}

// Start runs the HTTP server until Stop or a listen error.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting API server", "addr", addr)
	s.httpServer = &http.Server{Addr: addr, Handler: s.mux}
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the HTTP server down, waiting for in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping API server")
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the underlying mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Tags:        []string{"system"},
	}, func(_ context.Context, _ *struct{}) (*HealthResponse, error) {
		return &HealthResponse{Body: HealthData{Status: "ok"}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Tags:        []string{"system"},
	}, func(_ context.Context, _ *struct{}) (*VersionResponse, error) {
		return &VersionResponse{Body: version.Get()}, nil
	})

	s.registerProcessRoutes()
	s.registerLogRoutes()
}
