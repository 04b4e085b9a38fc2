// Package server exposes the simulator over a headless HTTP JSON API with
// websocket progress updates.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"
)

// Server is the HTTP server for the simulator API.
type Server struct {
	mux         *http.ServeMux
	handler     *Handlers
	addr        string
	metricsPath string
}

// NewServer creates a new HTTP server. The metrics endpoint is mounted at
// metricsPath when the handlers carry a metrics registry.
func NewServer(addr string, handler *Handlers, metricsPath string) *Server {
	s := &Server{
		mux:         http.NewServeMux(),
		handler:     handler,
		addr:        addr,
		metricsPath: metricsPath,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /api/schemes", s.handler.HandleSchemes)
	s.mux.HandleFunc("POST /api/simulate", s.handler.HandleSimulate)
	s.mux.HandleFunc("POST /api/sweep", s.handler.HandleSweep)
	s.mux.HandleFunc("GET /api/runs", s.handler.HandleRuns)
	s.mux.HandleFunc("GET /api/runs/{id}", s.handler.HandleRun)

	s.mux.HandleFunc("/ws", s.handler.HandleWebSocket)

	if s.handler.metrics != nil && s.metricsPath != "" {
		s.mux.Handle("GET "+s.metricsPath, s.handler.metrics.Handler())
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until ctx is cancelled, then shuts down gracefully and stops
// background sweeps.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on http://%s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("[server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.handler.Close()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
