package httpserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"
)

type config struct {
	addr            string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// Server wraps http.Server with graceful, context-driven shutdown. Signal
// handling is the caller's job; cancelling the Run context stops the server.
type Server struct {
	cfg *config
}

// New returns a configured Server.
func New(opts ...Option) *Server {
	cfg := &config{
		addr:            ":8080",
		shutdownTimeout: 5 * time.Second,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Server{cfg: cfg}
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the listener fails. Startup failures are wrapped with ErrStart, shutdown
// failures with ErrShutdown.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	srv := &http.Server{
		Addr:         s.cfg.addr,
		Handler:      handler,
		ReadTimeout:  s.cfg.readTimeout,
		WriteTimeout: s.cfg.writeTimeout,
		IdleTimeout:  s.cfg.idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.cfg.logger.InfoContext(ctx, "http server started", "addr", s.cfg.addr)

	select {
	case err := <-errCh:
		return errors.Join(ErrStart, err)

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		<-errCh // drain ListenAndServe's ErrServerClosed
		s.cfg.logger.InfoContext(ctx, "http server stopped", "addr", s.cfg.addr)
		if err != nil {
			return errors.Join(ErrShutdown, err)
		}
		return nil
	}
}
