package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/andy/docket/internal/config"
	"github.com/andy/docket/internal/httpserver/deps"
	"github.com/andy/docket/internal/httpserver/mw"
	"github.com/andy/docket/internal/httpserver/routes"
	"github.com/andy/docket/internal/logger"
)

// Server serves the timer API to popout windows and scripts.
type Server struct {
	http   *http.Server
	logger logger.Logger
}

// NewRouter builds the router with middlewares and all routes
func NewRouter(log logger.Logger, d deps.Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(mw.Log(log))

	routes.RegisterAll(r, d)
	return r
}

// New builds the HTTP server
func New(cfg config.ServerConfig, log logger.Logger, d deps.Deps) *Server {
	s := &http.Server{
		Addr:              cfg.Listen,
		Handler:           NewRouter(log, d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return &Server{http: s, logger: log}
}

// Start runs the HTTP server (blocks until error or shutdown).
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", logger.String("addr", s.http.Addr))
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	return s.http.Shutdown(ctx)
}
