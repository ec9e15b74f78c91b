// Package httpserver wraps net/http server construction so timeouts are set
// in one place and main stays small.
package httpserver

import (
	"context"
	"net/http"
	"time"
)

// Server wraps http.Server with production timeouts.
type Server struct {
	srv *http.Server
}

// New builds a server for the given address and handler.
func New(addr string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// ListenAndServe starts serving. Blocks until Shutdown or failure.
func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
