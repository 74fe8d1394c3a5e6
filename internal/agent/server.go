package agent

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/resumecurator/analyzer/internal/orchestrator"
)

/*
Server serves the local observation endpoints:
- /api/v1/status returns the current analysis job snapshot
- /api/v1/health returns the reachability of the scoring service
- /metrics exposes prometheus metrics
*/
type Server struct {
	address       string
	orch          *orchestrator.Orchestrator
	healthChecker *HealthChecker
	restServer    *http.Server
}

func NewServer(address string, orch *orchestrator.Orchestrator, healthChecker *HealthChecker) *Server {
	return &Server{
		address:       address,
		orch:          orch,
		healthChecker: healthChecker,
	}
}

// Handler builds the observation router.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Get("/api/v1/status", s.handleStatus)
	router.Get("/api/v1/health", s.handleHealth)
	router.Handle("/metrics", promhttp.Handler())
	return router
}

func (s *Server) Start() {
	s.restServer = &http.Server{Addr: s.address, Handler: s.Handler()}

	err := s.restServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		zap.S().Named("server").Errorf("failed to start status server: %s", err)
	}
}

func (s *Server) Stop(stopCh chan any) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.restServer != nil {
		if err := s.restServer.Shutdown(shutdownCtx); err != nil {
			zap.S().Named("server").Errorf("failed to graceful shutdown the status server: %s", err)
		}
	}
	close(stopCh)
}

type statusReply struct {
	Job orchestrator.Snapshot `json:"job"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	reply := statusReply{Job: s.orch.Snapshot()}
	render.JSON(w, r, reply)
}

type healthReply struct {
	Service string `json:"service"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reply := healthReply{Service: "unreachable"}
	if s.healthChecker.State() == HealthCheckStateServiceReachable {
		reply.Service = "reachable"
	} else {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, reply)
}
