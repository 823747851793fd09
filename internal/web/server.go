package web

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"pingdash/internal/logging"
	"pingdash/internal/models"
)

// LiveStatus is the latest dashboard state, published by the host loop.
type LiveStatus struct {
	Target    string              `json:"target"`
	Address   string              `json:"address"`
	UpdatedAt time.Time           `json:"updated_at"`
	Stats     models.NetworkStats `json:"stats"`
}

// Server handles web requests
type Server struct {
	store models.Store
	addr  string
	live  atomic.Pointer[LiveStatus]
}

// New creates a new web server
func New(store models.Store, addr string) *Server {
	return &Server{
		store: store,
		addr:  addr,
	}
}

// Publish replaces the status served by /api/live.
func (s *Server) Publish(status LiveStatus) {
	s.live.Store(&status)
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/live", s.handleLive)
	mux.HandleFunc("GET /api/recent", s.handleRecent)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/outages", s.handleOutages)
	mux.HandleFunc("GET /api/hourly", s.handleHourly)
	mux.HandleFunc("GET /api/speedtests", s.handleSpeedTests)
	mux.HandleFunc("GET /api/portscans", s.handlePortScans)

	return mux
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logging.Infof("Web server starting on %s", s.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
