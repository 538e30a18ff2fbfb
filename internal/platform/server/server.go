// Package server is the HTTP delivery layer. Handlers decode, delegate to
// the decision and routing services, and encode; no guardrail logic lives
// here.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/vigil-ai/vigil/internal/decision"
	"github.com/vigil-ai/vigil/internal/platform/middleware"
	"github.com/vigil-ai/vigil/internal/platform/telemetry"
	"github.com/vigil-ai/vigil/internal/redteam"
	"github.com/vigil-ai/vigil/internal/routing"
)

// Dependencies holds all injected dependencies for the server.
type Dependencies struct {
	Gate               *decision.Gate
	Cache              *decision.Cache
	Registry           *routing.Registry
	Router             *routing.Router
	Tracker            *routing.Tracker
	Threats            *redteam.Engine
	Metrics            *telemetry.Metrics
	Logger             *slog.Logger
	CORSAllowedOrigins []string
}

type Server struct {
	httpServer *http.Server
	handler    http.Handler
	deps       Dependencies
}

func New(addr string, deps Dependencies) *Server {
	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps: deps,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}

	if deps.Gate != nil {
		mux.HandleFunc("POST /api/v1/analyze/prompt", s.handleAnalyzePrompt)
		mux.HandleFunc("POST /api/v1/analyze/response", s.handleAnalyzeResponse)
	}
	if deps.Router != nil {
		mux.HandleFunc("POST /api/v1/route/model", s.handleRouteModel)
	}
	if deps.Registry != nil {
		mux.HandleFunc("GET /api/v1/route/health", s.handleModelHealth)
	}
	if deps.Tracker != nil {
		mux.HandleFunc("POST /api/v1/route/health/check", s.handleHealthCheck)
	}
	if deps.Threats != nil {
		mux.HandleFunc("GET /api/v1/threats/report", s.handleThreatReport)
		mux.HandleFunc("GET /api/v1/threats/vectors", s.handleAttackVectors)
		mux.HandleFunc("GET /api/v1/threats/incidents", s.handleIncidents)
	}
	mux.HandleFunc("GET /api/v1/dashboard/summary", s.handleDashboard)

	// Wrap with observability middleware
	var handler http.Handler = mux
	if deps.Logger != nil {
		handler = middleware.Logging(deps.Logger)(handler)
	}
	handler = middleware.RequestID(handler)
	if len(deps.CORSAllowedOrigins) > 0 {
		handler = middleware.CORS(deps.CORSAllowedOrigins)(handler)
	}

	s.handler = handler
	s.httpServer.Handler = handler
	return s
}

// Handler returns the full middleware-wrapped handler chain (for testing).
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.httpServer.Addr, err)
	}

	slog.Info("server starting", "addr", listener.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
