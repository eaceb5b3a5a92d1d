// Package httpapi exposes a Report's liveness state and Prometheus
// metrics over HTTP, for operators to scrape or poll.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sociallayer-im/solindexer/report"
)

// Server is a small gorilla/mux-based HTTP surface mounting /healthz and
// /metrics for a single Report.
type Server struct {
	addr   string
	router *mux.Router
	server *http.Server
	report *report.Report
	logger *zap.Logger
}

// NewServer builds a Server bound to addr, reporting rep's liveness state
// and metrics.
func NewServer(addr string, rep *report.Report, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		addr:   addr,
		router: mux.NewRouter(),
		report: rep,
		logger: logger,
	}
	s.setupRoutes()
	s.server = &http.Server{Addr: addr, Handler: s.router}
	return s
}

func (s *Server) setupRoutes() {
	registry := prometheus.NewRegistry()
	registry.MustRegister(s.report.Metrics())

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods("GET")
	s.router.Use(s.loggingMiddleware)
}

// Start blocks serving HTTP until the server is stopped or fails.
func (s *Server) Start() error {
	s.logger.Info("health/metrics server starting", zap.String("addr", s.addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := s.report.State()
	w.Header().Set("Content-Type", "application/json")
	if state != report.Available {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": state.String()})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("http request", zap.String("method", r.Method), zap.String("path", r.URL.Path))
		next.ServeHTTP(w, r)
	})
}
