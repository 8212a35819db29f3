package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/hazard-route-engine/internal/geograph"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker = sharedobs.ReadinessChecker

// GraphSource yields the graph currently served.
type GraphSource interface {
	Graph() *geograph.Graph
}

// AllReady combines checkers; the result is ready only when every checker is.
func AllReady(checkers ...ReadinessChecker) ReadinessChecker {
	return allReady(checkers)
}

type allReady []ReadinessChecker

func (a allReady) CheckReadiness(ctx context.Context) error {
	var errs []error
	for _, c := range a {
		if err := c.CheckReadiness(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Server exposes health, readiness, graph info, and metrics HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /graph, and /metrics routes.
func NewServer(addr string, ready ReadinessChecker, graphs GraphSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.HandleFunc("GET /graph", handleGraph(graphs))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type graphInfo struct {
	Version    string `json:"version"`
	Nodes      int    `json:"nodes"`
	Edges      int    `json:"edges"`
	Arcs       int    `json:"arcs"`
	Facilities int    `json:"facilities"`
}

func handleGraph(graphs GraphSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		g := graphs.Graph()
		if g == nil {
			sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "graph not loaded"})
			return
		}
		stats := g.Stats()
		sharedobs.WriteJSON(w, http.StatusOK, graphInfo{
			Version:    g.Version(),
			Nodes:      stats.Nodes,
			Edges:      stats.Edges,
			Arcs:       stats.Arcs,
			Facilities: stats.Facilities,
		})
	}
}
