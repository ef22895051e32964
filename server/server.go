package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/volcengine/apminsight-profiling-demo/logger"
)

// Server owns the listener so readiness is logged only once connections can be accepted.
type Server struct {
	httpServer *http.Server
	logger     logger.Logger
	ready      chan struct{}
	addr       net.Addr
}

func New(addr string, handler http.Handler, l logger.Logger) *Server {
	return &Server{
		httpServer: &http.Server{Addr: addr, Handler: handler},
		logger:     logger.OrNoop(l),
		ready:      make(chan struct{}),
	}
}

// ListenAndServe blocks until the server is shut down. A clean shutdown returns nil.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	s.addr = ln.Addr()
	close(s.ready)
	s.logger.Info("Server started on http://localhost:%d", ln.Addr().(*net.TCPAddr).Port)

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr is valid after Ready is closed.
func (s *Server) Addr() net.Addr {
	return s.addr
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("[Server.Shutdown] draining http connections")
	return s.httpServer.Shutdown(ctx)
}
