// Package server exposes a document tree over HTTP: GET reads the value at the
// request path and PUT stores the request body there.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/brettbedarf/jsontree/codec"
	"github.com/brettbedarf/jsontree/config"
	"github.com/brettbedarf/jsontree/internal/util"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

// Server serves a [codec.Tree] over HTTP.
type Server struct {
	cfg    *config.Config
	tree   *codec.Tree
	logger zerolog.Logger
}

// New creates a Server for tree configured by cfg.
func New(cfg *config.Config, tree *codec.Tree) *Server {
	return &Server{
		cfg:    cfg,
		tree:   tree,
		logger: util.GetLogger("server"),
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func (s *Server) httpServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       seconds(s.cfg.ReadTimeout),
		ReadHeaderTimeout: seconds(s.cfg.ReadTimeout),
		WriteTimeout:      seconds(s.cfg.WriteTimeout),
		ErrorLog:          util.NewLogLogger("httpserver", util.WarnLevel),
	}
}

// Serve listens on the configured address until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled, then shuts down,
// giving in-flight requests a short grace period.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := s.httpServer()
	s.logger.Info().Str("addr", ln.Addr().String()).Stringer("root", s.tree.Root()).Msg("HTTP server listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
