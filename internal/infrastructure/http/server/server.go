package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/augusttoleao/nfse-client/internal/infrastructure/config"
	httpx "github.com/augusttoleao/nfse-client/internal/infrastructure/http"
	"github.com/augusttoleao/nfse-client/internal/infrastructure/http/middleware"
)

// Server serves the local console API.
type Server struct {
	log             *slog.Logger
	httpServer      *http.Server
	shutdownTimeout time.Duration
	auth            *middleware.JWTAuthenticator

	mu       sync.Mutex
	listener net.Listener
}

// Options wires the server. Console is mounted under /api; a nil Console
// answers 503 there.
type Options struct {
	Config        config.AppConfig
	Logger        *slog.Logger
	HealthHandler http.Handler
	Auth          *middleware.JWTAuthenticator
	Console       http.Handler
}

// New builds the router and the underlying http.Server.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.HealthHandler == nil {
		return nil, errors.New("health handler is required")
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chimw.Recoverer)

	r.Method(http.MethodGet, "/health", opts.HealthHandler)

	console := opts.Console
	if console == nil {
		console = unavailable(opts.Logger)
	}

	r.Group(func(api chi.Router) {
		if opts.Auth != nil {
			api.Use(opts.Auth.Middleware)
		}
		api.Use(middleware.RequestTimeout(opts.Config.HTTP.RequestTimeout))
		api.Mount("/api", console)
	})

	srv := &http.Server{
		Addr:         opts.Config.HTTP.Address(),
		Handler:      r,
		ReadTimeout:  opts.Config.HTTP.ReadTimeout,
		WriteTimeout: opts.Config.HTTP.WriteTimeout,
		IdleTimeout:  opts.Config.HTTP.IdleTimeout,
	}

	return &Server{
		log:             opts.Logger,
		httpServer:      srv,
		shutdownTimeout: opts.Config.HTTP.ShutdownTimeout,
		auth:            opts.Auth,
	}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the bound address once Run is listening, or the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server started", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutting down HTTP server", "timeout", s.shutdownTimeout.String())
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdown())
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP server: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	if s.auth != nil {
		s.auth.Close()
	}
}

func (s *Server) shutdown() time.Duration {
	if s.shutdownTimeout <= 0 {
		return 30 * time.Second
	}
	return s.shutdownTimeout
}

func unavailable(log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteError(w, http.StatusServiceUnavailable, "Serviço indisponível", []string{"Console não configurado"}, log)
	})
}
